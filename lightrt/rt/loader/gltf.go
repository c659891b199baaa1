// Package loader turns glTF documents into the triangle soup and material
// table the engine traces against.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

var ErrNoGeometry = errors.New("gltf: document has no triangles")

// Scene is geometry ready for Engine.SetGeometry.
type Scene struct {
	Triangles []core.Triangle
	Materials []core.Material
}

type Loader struct {
	// FlipV converts glTF's top-left texture origin to bottom-left.
	FlipV bool
	// Fallback is used by primitives without a material.
	Fallback core.Material
}

func NewLoader() *Loader {
	return &Loader{
		FlipV:    true,
		Fallback: core.DefaultMaterial(),
	}
}

// Load opens a .gltf or .glb file.
func Load(path string) (*Scene, error) {
	return NewLoader().Load(path)
}

func (l *Loader) Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.FromDocument(doc)
}

// FromDocument converts every triangle primitive of every mesh. Node
// transforms are not applied.
func (l *Loader) FromDocument(doc *gltf.Document) (*Scene, error) {
	scene := &Scene{}
	for _, m := range doc.Materials {
		scene.Materials = append(scene.Materials, convertMaterial(m))
	}
	fallback := -1

	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}

			material := uint32(0)
			if prim.Material != nil && *prim.Material < len(scene.Materials) {
				material = uint32(*prim.Material)
			} else {
				if fallback < 0 {
					fallback = len(scene.Materials)
					scene.Materials = append(scene.Materials, l.Fallback)
				}
				material = uint32(fallback)
			}

			tris, err := l.primitive(doc, prim, material)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
			scene.Triangles = append(scene.Triangles, tris...)
		}
	}

	if len(scene.Triangles) == 0 {
		return nil, ErrNoGeometry
	}
	return scene, nil
}

func convertMaterial(m *gltf.Material) core.Material {
	mat := core.DefaultMaterial()
	mat.Emissive = mgl32.Vec3{float32(m.EmissiveFactor[0]), float32(m.EmissiveFactor[1]), float32(m.EmissiveFactor[2])}

	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}
	if pbr.BaseColorFactor != nil {
		c := pbr.BaseColorFactor
		mat.BaseColor = mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
	}
	if pbr.MetallicFactor != nil {
		mat.Metallic = float32(*pbr.MetallicFactor)
	}
	if pbr.RoughnessFactor != nil {
		mat.Roughness = float32(*pbr.RoughnessFactor)
	}
	return mat
}

func (l *Loader) primitive(doc *gltf.Document, prim *gltf.Primitive, material uint32) ([]core.Triangle, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	positions, err := readVec3(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals []mgl32.Vec3
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readVec3(doc, idx); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs []mgl32.Vec2
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readVec2(doc, idx); err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = readIndices(doc, *prim.Indices); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	tris := make([]core.Triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		var v [3]uint32
		for j := range 3 {
			v[j] = indices[i+j]
			if int(v[j]) >= len(positions) {
				return nil, fmt.Errorf("index %d out of range (%d vertices)", v[j], len(positions))
			}
		}

		tri := core.NewFlatTriangle(positions[v[0]], positions[v[1]], positions[v[2]], material)
		if len(normals) == len(positions) {
			for j := range 3 {
				if n := normals[v[j]]; n.LenSqr() > 0 {
					tri.Normals[j] = n.Normalize()
				}
			}
		}
		if len(uvs) == len(positions) {
			for j := range 3 {
				uv := uvs[v[j]]
				if l.FlipV {
					uv[1] = 1 - uv[1]
				}
				tri.UVs[j] = uv
			}
		}
		tris = append(tris, tri)
	}
	return tris, nil
}

// view returns the bytes an accessor reads from, its first offset and its
// element stride.
func view(doc *gltf.Document, idx int, elemSize int) ([]byte, int, int, *gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, 0, 0, nil, fmt.Errorf("accessor %d does not exist", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, 0, 0, nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	bv := doc.BufferViews[*acc.BufferView]
	data := doc.Buffers[bv.Buffer].Data
	if data == nil {
		return nil, 0, 0, nil, fmt.Errorf("buffer %d has no data", bv.Buffer)
	}

	start := bv.ByteOffset + acc.ByteOffset
	stride := bv.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if acc.Count > 0 && start+(acc.Count-1)*stride+elemSize > len(data) {
		return nil, 0, 0, nil, fmt.Errorf("accessor %d overruns its buffer", idx)
	}
	return data, start, stride, acc, nil
}

func readFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func readVec3(doc *gltf.Document, idx int) ([]mgl32.Vec3, error) {
	data, start, stride, acc, err := view(doc, idx, 12)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", acc.Type, acc.ComponentType)
	}
	out := make([]mgl32.Vec3, acc.Count)
	for i := range out {
		o := start + i*stride
		out[i] = mgl32.Vec3{readFloat(data[o:]), readFloat(data[o+4:]), readFloat(data[o+8:])}
	}
	return out, nil
}

func readVec2(doc *gltf.Document, idx int) ([]mgl32.Vec2, error) {
	data, start, stride, acc, err := view(doc, idx, 8)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec2 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC2, got %v / %v", acc.Type, acc.ComponentType)
	}
	out := make([]mgl32.Vec2, acc.Count)
	for i := range out {
		o := start + i*stride
		out[i] = mgl32.Vec2{readFloat(data[o:]), readFloat(data[o+4:])}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, idx int) ([]uint32, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d does not exist", idx)
	}
	var size int
	switch doc.Accessors[idx].ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index type %v", doc.Accessors[idx].ComponentType)
	}

	data, start, stride, acc, err := view(doc, idx, size)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		o := start + i*stride
		switch size {
		case 1:
			out[i] = uint32(data[o])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[o:]))
		case 4:
			out[i] = binary.LittleEndian.Uint32(data[o:])
		}
	}
	return out, nil
}
