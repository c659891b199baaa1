package restir

import (
	"math"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

type DiSample struct {
	LightID uint32
	LightUV mgl32.Vec2 // sample coordinates on the light's sphere
}

type DiReservoir = Reservoir[DiSample]

// DiTarget evaluates the unshadowed contribution of a light sample at a
// surface. p̂ is its luminance.
func DiTarget(light *core.GpuLight, uv mgl32.Vec2, s *core.Surface) (float32, mgl32.Vec3, mgl32.Vec3) {
	irradiance, lightPoint := light.Contribution(uv, s.Point, s.Normal)
	contrib := core.MulVec3(s.Albedo.Mul(1/math.Pi), irradiance)
	return core.Luminance(contrib), contrib, lightPoint
}

type GiSample struct {
	VisiblePoint  mgl32.Vec3
	VisibleNormal mgl32.Vec3
	SamplePoint   mgl32.Vec3
	SampleNormal  mgl32.Vec3
	Radiance      mgl32.Vec3
}

type GiReservoir = Reservoir[GiSample]

// GiTarget is p̂ of an indirect sample re-seen from (point, normal).
func GiTarget(s *GiSample, point, normal mgl32.Vec3) float32 {
	dir := s.SamplePoint.Sub(point)
	if dir.LenSqr() == 0 {
		return 0
	}
	cos := normal.Dot(dir.Normalize())
	if cos <= 0 {
		return 0
	}
	return core.Luminance(s.Radiance) * cos
}

const (
	minJacobian = 1.0 / 10.0
	maxJacobian = 10.0
)

// GiJacobian converts the reconnection from the sample's visible point q to
// a new visible point r:
//
//	J = (cos φr / cos φq) · (dq² / dr²)
//
// Values outside [1/10, 10] are rejected.
func GiJacobian(s *GiSample, point mgl32.Vec3) (float32, bool) {
	offQ := s.VisiblePoint.Sub(s.SamplePoint)
	offR := point.Sub(s.SamplePoint)
	dq2, dr2 := offQ.LenSqr(), offR.LenSqr()
	if dq2 == 0 || dr2 == 0 {
		return 0, false
	}

	cosQ := mgl32.Abs(s.SampleNormal.Dot(offQ.Mul(1 / float32(math.Sqrt(float64(dq2))))))
	cosR := mgl32.Abs(s.SampleNormal.Dot(offR.Mul(1 / float32(math.Sqrt(float64(dr2))))))

	j := (cosR / cosQ) * (dq2 / dr2)
	if !core.IsFinite(j) || j < minJacobian || j > maxJacobian {
		return 0, false
	}
	return j, true
}

// GiCandidate is a freshly traced indirect sample; Frame stamps when it was
// produced so temporal resampling ignores stale quarter-res slots.
type GiCandidate struct {
	Frame     uint32
	Valid     bool
	Reservoir GiReservoir
}

// Upsample maps a quarter-res invocation to the full-res pixel it serves
// this frame; the chosen member of the 2×2 block rotates each frame.
func Upsample(id [2]uint32, frame uint32) [2]uint32 {
	sub := frame % 4
	return [2]uint32{id[0]*2 + sub%2, id[1]*2 + sub/2}
}
