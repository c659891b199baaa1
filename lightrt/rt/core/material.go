package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaterialSize is the packed size of a material record: base color (vec4),
// emissive (vec4), roughness, metallic, padding.
const MaterialSize = 48

type Material struct {
	BaseColor mgl32.Vec3 // linear RGB
	Emissive  mgl32.Vec3
	Roughness float32
	Metallic  float32
}

func NewMaterial(baseColor, emissive mgl32.Vec3) Material {
	return Material{
		BaseColor: baseColor,
		Emissive:  emissive,
		Roughness: 1.0,
		Metallic:  0.0,
	}
}

// Helper for default white
func DefaultMaterial() Material {
	return NewMaterial(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
}

// Albedo is the diffuse reflectance; metals have none.
func (m *Material) Albedo() mgl32.Vec3 {
	return m.BaseColor.Mul(1 - mgl32.Clamp(m.Metallic, 0, 1))
}

func (m *Material) ToBytes() []byte {
	buf := make([]byte, MaterialSize)
	putVec4(buf[0:], m.BaseColor.Vec4(1))
	putVec4(buf[16:], m.Emissive.Vec4(0))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(m.Roughness))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(m.Metallic))
	return buf
}

func MaterialsToBytes(mats []Material) []byte {
	out := make([]byte, 0, len(mats)*MaterialSize)
	for i := range mats {
		out = append(out, mats[i].ToBytes()...)
	}
	return out
}
