package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Noise is a PCG-hash generator. Two generators built from the same
// (seed, pixel, frame) yield the same sequence.
type Noise struct {
	state uint32
}

func NewNoise(seed uint32, pixel [2]uint32, frame uint32) Noise {
	s := pcg(seed ^ pcg(pixel[0]+pcg(pixel[1]+pcg(frame))))
	return Noise{state: s}
}

func pcg(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

func (n *Noise) next() uint32 {
	n.state = pcg(n.state)
	return n.state
}

// Sample returns a float in [0, 1).
func (n *Noise) Sample() float32 {
	return float32(n.next()>>8) / (1 << 24)
}

func (n *Noise) Sample2() mgl32.Vec2 {
	return mgl32.Vec2{n.Sample(), n.Sample()}
}

// SampleInt returns an integer in [0, bound); zero when bound is zero.
func (n *Noise) SampleInt(bound uint32) uint32 {
	if bound == 0 {
		return 0
	}
	return uint32(uint64(n.next()) * uint64(bound) >> 32)
}

func (n *Noise) SampleSphere() mgl32.Vec3 {
	return UniformSphere(n.Sample(), n.Sample())
}

// SampleHemisphere returns a cosine-weighted direction around normal.
func (n *Noise) SampleHemisphere(normal mgl32.Vec3) mgl32.Vec3 {
	return CosineHemisphere(normal, n.Sample(), n.Sample())
}

func UniformSphere(u, v float32) mgl32.Vec3 {
	z := 1 - 2*u
	r := sqrt(max(0, 1-z*z))
	phi := 2 * math.Pi * float64(v)
	return mgl32.Vec3{
		r * float32(math.Cos(phi)),
		r * float32(math.Sin(phi)),
		z,
	}
}

// CosineHemisphere maps (u, v) onto the hemisphere around n with pdf cosθ/π.
func CosineHemisphere(n mgl32.Vec3, u, v float32) mgl32.Vec3 {
	r := sqrt(u)
	phi := 2 * math.Pi * float64(v)
	x := r * float32(math.Cos(phi))
	y := r * float32(math.Sin(phi))
	z := sqrt(max(0, 1-u))

	t, b := Basis(n)
	return t.Mul(x).Add(b.Mul(y)).Add(n.Mul(z)).Normalize()
}
