package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightSerializeKeepsTag(t *testing.T) {
	point := NewPointLight(mgl32.Vec3{1, 2, 3}, 0.1, mgl32.Vec3{1, 1, 1}, 10).Serialize()
	spot := NewSpotLight(mgl32.Vec3{0, 5, 0}, 0, mgl32.Vec3{2, 2, 2}, 20, mgl32.Vec3{0, -1, 0}, 0.5).Serialize()

	assert.Equal(t, LightPoint, point.Kind())
	assert.Equal(t, LightSpot, spot.Kind())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, point.Position())
	assert.InDelta(t, 0.5, spot.Angle(), 1e-6)
	assert.True(t, spot.Direction().ApproxEqualThreshold(mgl32.Vec3{0, -1, 0}, 1e-5))
	assert.False(t, point.DidChange(), "a new light has prev == current")
}

func TestGpuLightBytes(t *testing.T) {
	l := NewPointLight(mgl32.Vec3{1, 2, 3}, 0.5, mgl32.Vec3{4, 5, 6}, 7).Serialize()
	data := l.ToBytes()
	require.Len(t, data, GpuLightSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
	assert.Equal(t, float32(1), f(0))
	assert.Equal(t, float32(0.5), f(12))
	assert.Equal(t, float32(7), f(28))
	// prev_d0 starts at the fifth record
	assert.Equal(t, float32(3), f(64+8))
}

func TestPointLightRadiance(t *testing.T) {
	l := NewPointLight(mgl32.Vec3{0, 2, 0}, 0, mgl32.Vec3{10, 10, 10}, 100).Serialize()

	got := l.Radiance(l.Position(), mgl32.Vec3{0, 0, 0})
	ratio := float32(2.0 / 100.0)
	window := 1 - ratio*ratio*ratio*ratio
	want := 10 * window * window / 4
	assert.InDelta(t, want, got.X(), 1e-5)

	assert.Equal(t, mgl32.Vec3{}, l.Radiance(l.Position(), mgl32.Vec3{0, 200, 0}), "out of range")
}

func TestSpotLightCone(t *testing.T) {
	l := NewSpotLight(mgl32.Vec3{0, 5, 0}, 0, mgl32.Vec3{1, 1, 1}, 50, mgl32.Vec3{0, -1, 0}, 0.3).Serialize()

	below := l.Radiance(l.Position(), mgl32.Vec3{0, 0, 0})
	aside := l.Radiance(l.Position(), mgl32.Vec3{5, 5, 0})

	assert.Greater(t, below.X(), float32(0))
	assert.Equal(t, float32(0), aside.X())
}

func TestContributionBackFacing(t *testing.T) {
	l := NewPointLight(mgl32.Vec3{0, -2, 0}, 0, mgl32.Vec3{1, 1, 1}, 10).Serialize()
	c, _ := l.Contribution(mgl32.Vec2{}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.Vec3{}, c)
}

func TestLightStoreMotion(t *testing.T) {
	s := NewLightStore()
	a := s.Add(NewPointLight(mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{1, 1, 1}, 10))
	b := s.Add(NewPointLight(mgl32.Vec3{5, 1, 0}, 0, mgl32.Vec3{1, 1, 1}, 10))
	require.Equal(t, 2, s.Len())

	require.True(t, s.Update(a, NewPointLight(mgl32.Vec3{0, 2, 0}, 0, mgl32.Vec3{1, 1, 1}, 10)))
	la, _ := s.Get(a)
	assert.True(t, la.DidChange())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, la.PrevPosition())

	s.Flush()
	la, _ = s.Get(a)
	assert.False(t, la.DidChange())
	assert.Equal(t, mgl32.Vec3{0, 2, 0}, la.PrevPosition())

	require.True(t, s.Remove(a))
	lb, ok := s.Get(b)
	require.True(t, ok)
	assert.True(t, lb.DidChange(), "a light moved into a freed slot invalidates history")
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.Remove(a))
	assert.False(t, s.Update(a, Light{}))
}
