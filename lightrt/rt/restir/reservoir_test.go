package restir

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func single(sample int, pHat float32) Reservoir[int] {
	r := Reservoir[int]{}
	r.Update(sample, pHat, pHat, 0)
	r.Normalize()
	return r
}

func TestMergeSelectionFrequency(t *testing.T) {
	const trials = 40000
	w1, w2 := float32(1), float32(3)
	a, b := single(1, 1), single(2, 1)

	rng := rand.New(rand.NewSource(7))
	picked := 0
	for i := 0; i < trials; i++ {
		var r Reservoir[int]
		r.Merge(a, w1, 1, rng.Float32())
		r.Merge(b, w2, 1, rng.Float32())
		if r.Sample == 1 {
			picked++
		}
	}

	freq := float64(picked) / trials
	assert.InDelta(t, float64(w1/(w1+w2)), freq, 0.015)
}

func TestUpdateAndNormalize(t *testing.T) {
	var r Reservoir[int]
	r.Update(7, 2, 4, 0.1)
	r.Update(8, 0, 0, 0.1) // zero-weight candidates still count
	r.Normalize()

	assert.Equal(t, 7, r.Sample)
	assert.Equal(t, float32(2), r.M)
	assert.InDelta(t, 2.0/(4*2), r.W, 1e-6)
	assert.False(t, r.IsEmpty())
}

func TestZeroWeightReservoir(t *testing.T) {
	var r Reservoir[int]
	r.Update(1, 0, 0, 0.5)
	r.Normalize()

	assert.Equal(t, float32(0), r.W)
	assert.True(t, r.IsEmpty())

	var merged Reservoir[int]
	merged.Merge(r, 1, 1, 0.5)
	merged.Normalize()
	assert.True(t, merged.IsEmpty())
	assert.Equal(t, float32(1), merged.M)
}

func TestTemporalCap(t *testing.T) {
	const maxM = 20
	rng := rand.New(rand.NewSource(3))

	var history Reservoir[int]
	for frame := 0; frame < 200; frame++ {
		var fresh Reservoir[int]
		p := rng.Float32() + 0.1
		fresh.Update(frame, p, p, rng.Float32())

		history.ClampM(HistoryCap(fresh.M, maxM))
		fresh.Merge(history, history.TargetPdf, 1, rng.Float32())
		fresh.Normalize()

		require.LessOrEqual(t, fresh.M, float32(maxM), "frame %d", frame)
		history = fresh
	}
	assert.Equal(t, float32(maxM), history.M)
}

func TestHistoryCap(t *testing.T) {
	assert.Equal(t, float32(19), HistoryCap(1, 20))
	assert.Equal(t, float32(0), HistoryCap(25, 20))
}
