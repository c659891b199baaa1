package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PackedHit is the two-texel storage form of a Hit.
//
//	d0 = (normal.xyz, distance)
//	d1 = (uv.x, uv.y, bits(material), 1 if hit else 0)
type PackedHit [2]mgl32.Vec4

type Hit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Material uint32
	Distance float32
}

func NoHit() Hit {
	return Hit{Distance: math.MaxFloat32}
}

func (h Hit) IsNone() bool {
	return h.Distance >= math.MaxFloat32
}

func (h Hit) Serialize() PackedHit {
	if h.IsNone() {
		return PackedHit{
			{0, 0, 0, math.MaxFloat32},
			{0, 0, 0, 0},
		}
	}

	return PackedHit{
		h.Normal.Vec4(h.Distance),
		{h.UV.X(), h.UV.Y(), math.Float32frombits(h.Material), 1},
	}
}

// DeserializeHit rebuilds a hit from its packed form; the point is recovered
// from the ray that produced it.
func DeserializeHit(packed PackedHit, ray Ray) Hit {
	d0, d1 := packed[0], packed[1]
	if d1.W() == 0 {
		return NoHit()
	}

	return Hit{
		Point:    ray.At(d0.W()),
		Normal:   d0.Vec3(),
		UV:       mgl32.Vec2{d1.X(), d1.Y()},
		Material: math.Float32bits(d1.Z()),
		Distance: d0.W(),
	}
}
