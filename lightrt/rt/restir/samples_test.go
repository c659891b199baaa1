package restir

import (
	"math"
	"testing"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestGiJacobianIdentity(t *testing.T) {
	s := GiSample{
		VisiblePoint: mgl32.Vec3{0, 0, 0},
		SamplePoint:  mgl32.Vec3{0, 2, 0},
		SampleNormal: mgl32.Vec3{0, -1, 0},
	}

	j, ok := GiJacobian(&s, s.VisiblePoint)
	assert.True(t, ok)
	assert.InDelta(t, 1, j, 1e-5)
}

func TestGiJacobianRejectsExtremes(t *testing.T) {
	s := GiSample{
		VisiblePoint: mgl32.Vec3{0, 0, 0},
		SamplePoint:  mgl32.Vec3{0, 1, 0},
		SampleNormal: mgl32.Vec3{0, -1, 0},
	}

	// 20 times farther: d² ratio of 1/400
	_, ok := GiJacobian(&s, mgl32.Vec3{0, -19, 0})
	assert.False(t, ok)

	// grazing reconnection
	_, ok = GiJacobian(&s, mgl32.Vec3{50, 1, 0})
	assert.False(t, ok)

	_, ok = GiJacobian(&s, s.SamplePoint)
	assert.False(t, ok)
}

func TestGiTargetBackFacing(t *testing.T) {
	s := GiSample{SamplePoint: mgl32.Vec3{0, -1, 0}, Radiance: mgl32.Vec3{1, 1, 1}}
	assert.Equal(t, float32(0), GiTarget(&s, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	assert.InDelta(t, 1, GiTarget(&s, mgl32.Vec3{}, mgl32.Vec3{0, -1, 0}), 1e-5)
}

func TestDiTarget(t *testing.T) {
	light := core.NewPointLight(mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{1, 1, 1}, 10).Serialize()
	surface := core.Surface{
		Normal: mgl32.Vec3{0, 1, 0},
		Depth:  1,
		Albedo: mgl32.Vec3{1, 1, 1},
	}

	pHat, contrib, lightPoint := DiTarget(&light, mgl32.Vec2{}, &surface)

	window := 1 - float32(math.Pow(0.1, 4))
	want := window * window / math.Pi
	assert.InDelta(t, want, contrib.X(), 1e-5)
	assert.InDelta(t, want, pHat, 1e-5)
	assert.Equal(t, light.Position(), lightPoint)
}

func TestUpsampleCoversBlock(t *testing.T) {
	seen := map[[2]uint32]bool{}
	for frame := uint32(0); frame < 4; frame++ {
		seen[Upsample([2]uint32{3, 5}, frame)] = true
	}
	assert.Len(t, seen, 4)
	for px := range seen {
		assert.Equal(t, uint32(3), px[0]/2)
		assert.Equal(t, uint32(5), px[1]/2)
	}
}

func TestPickNeighborsInBounds(t *testing.T) {
	vp := core.Viewport{Width: 20, Height: 10}
	for i := uint32(0); i < 100; i++ {
		noise := core.NewNoise(5, [2]uint32{i % 20, i % 10}, i)
		center := [2]uint32{i % 20, i % 10}
		n := PickNeighbors(&noise, center, 16, 5, vp)

		assert.LessOrEqual(t, n.Count, uint32(5))
		for k := uint32(0); k < n.Count; k++ {
			px := n.Pixels[k]
			assert.True(t, vp.Contains(int32(px[0]), int32(px[1])))
			assert.NotEqual(t, center, px)
		}
	}
}
