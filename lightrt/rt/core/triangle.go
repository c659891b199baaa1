package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TriangleSize is the packed size of a triangle record.
//
//	struct Triangle {
//	   position_u : vec4<f32>[3]; (48)
//	   normal_v   : vec4<f32>[3]; (48)
//	   material   : u32;          (4)
//	   padding    : u32[3];       (12)
//	}; -> 112 bytes
const TriangleSize = 112

type Triangle struct {
	Positions [3]mgl32.Vec3
	Normals   [3]mgl32.Vec3
	UVs       [3]mgl32.Vec2
	Material  uint32
}

// NewFlatTriangle creates a triangle whose vertex normals all equal the face normal.
func NewFlatTriangle(a, b, c mgl32.Vec3, material uint32) Triangle {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.LenSqr() > 0 {
		n = n.Normalize()
	}
	return Triangle{
		Positions: [3]mgl32.Vec3{a, b, c},
		Normals:   [3]mgl32.Vec3{n, n, n},
		UVs:       [3]mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Material:  material,
	}
}

func (t *Triangle) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	minB := MinVec3(MinVec3(t.Positions[0], t.Positions[1]), t.Positions[2])
	maxB := MaxVec3(MaxVec3(t.Positions[0], t.Positions[1]), t.Positions[2])
	return minB, maxB
}

func (t *Triangle) Center() mgl32.Vec3 {
	return t.Positions[0].Add(t.Positions[1]).Add(t.Positions[2]).Mul(1.0 / 3.0)
}

// Hit intersects the ray with the triangle (Möller–Trumbore, double sided).
// Returns the distance and barycentrics of a hit in (tMin, tMax).
func (t *Triangle) Hit(ray Ray, tMin, tMax float32) (float32, float32, float32, bool) {
	e1 := t.Positions[1].Sub(t.Positions[0])
	e2 := t.Positions[2].Sub(t.Positions[0])

	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)
	if mgl32.Abs(det) < 1e-9 {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	s := ray.Origin.Sub(t.Positions[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	dist := e2.Dot(q) * invDet
	if dist <= tMin || dist >= tMax {
		return 0, 0, 0, false
	}
	return dist, u, v, true
}

// Normal interpolates the shading normal; degenerate vertex normals fall
// back to the face normal.
func (t *Triangle) Normal(u, v float32) mgl32.Vec3 {
	w := 1 - u - v
	n := t.Normals[0].Mul(w).Add(t.Normals[1].Mul(u)).Add(t.Normals[2].Mul(v))
	if n.LenSqr() < 1e-12 {
		n = t.Positions[1].Sub(t.Positions[0]).Cross(t.Positions[2].Sub(t.Positions[0]))
		if n.LenSqr() < 1e-12 {
			return mgl32.Vec3{0, 0, 1}
		}
	}
	return n.Normalize()
}

func (t *Triangle) UV(u, v float32) mgl32.Vec2 {
	w := 1 - u - v
	return t.UVs[0].Mul(w).Add(t.UVs[1].Mul(u)).Add(t.UVs[2].Mul(v))
}

func (t *Triangle) ToBytes() []byte {
	buf := make([]byte, TriangleSize)
	for i := 0; i < 3; i++ {
		off := i * 16
		putVec4(buf[off:], t.Positions[i].Vec4(t.UVs[i].X()))
		putVec4(buf[48+off:], t.Normals[i].Vec4(t.UVs[i].Y()))
	}
	binary.LittleEndian.PutUint32(buf[96:100], t.Material)
	return buf
}

func TrianglesToBytes(tris []Triangle) []byte {
	out := make([]byte, 0, len(tris)*TriangleSize)
	for i := range tris {
		out = append(out, tris[i].ToBytes()...)
	}
	return out
}

func putVec4(buf []byte, v mgl32.Vec4) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}

func readVec4(buf []byte) mgl32.Vec4 {
	var v mgl32.Vec4
	for i := 0; i < 4; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
