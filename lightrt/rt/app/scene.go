package app

import (
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// quad splits a-b-c-d (counter-clockwise seen from the front) in two.
func quad(a, b, c, d mgl32.Vec3, material uint32) []core.Triangle {
	return []core.Triangle{
		core.NewFlatTriangle(a, b, c, material),
		core.NewFlatTriangle(a, c, d, material),
	}
}

// box is an axis-aligned cuboid with outward faces.
func box(lo, hi mgl32.Vec3, material uint32) []core.Triangle {
	p := func(x, y, z int) mgl32.Vec3 {
		v := lo
		if x == 1 {
			v[0] = hi[0]
		}
		if y == 1 {
			v[1] = hi[1]
		}
		if z == 1 {
			v[2] = hi[2]
		}
		return v
	}
	var tris []core.Triangle
	tris = append(tris, quad(p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1), material)...) // +z
	tris = append(tris, quad(p(1, 0, 0), p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), material)...) // -z
	tris = append(tris, quad(p(1, 0, 1), p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), material)...) // +x
	tris = append(tris, quad(p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0), material)...) // -x
	tris = append(tris, quad(p(0, 1, 1), p(1, 1, 1), p(1, 1, 0), p(0, 1, 0), material)...) // +y
	tris = append(tris, quad(p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1), material)...) // -y
	return tris
}

const (
	matWhite uint32 = iota
	matRed
	matGreen
	matLamp
	matGold
)

// DefaultScene is a closed room with colored side walls, an emissive
// ceiling panel, two blocks, a point light and a spot light.
func DefaultScene() ([]core.Triangle, []core.Material, []core.Light) {
	materials := []core.Material{
		matWhite: core.NewMaterial(mgl32.Vec3{0.73, 0.73, 0.73}, mgl32.Vec3{}),
		matRed:   core.NewMaterial(mgl32.Vec3{0.65, 0.05, 0.05}, mgl32.Vec3{}),
		matGreen: core.NewMaterial(mgl32.Vec3{0.12, 0.45, 0.15}, mgl32.Vec3{}),
		matLamp:  core.NewMaterial(mgl32.Vec3{0.8, 0.8, 0.8}, mgl32.Vec3{6, 5.5, 4.5}),
		matGold:  {BaseColor: mgl32.Vec3{1.0, 0.78, 0.34}, Roughness: 0.3, Metallic: 0.6},
	}

	h := float32(2)
	v := func(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }

	var tris []core.Triangle
	tris = append(tris, quad(v(-1, 0, 1), v(1, 0, 1), v(1, 0, -1), v(-1, 0, -1), matWhite)...)   // floor
	tris = append(tris, quad(v(-1, h, -1), v(1, h, -1), v(1, h, 1), v(-1, h, 1), matWhite)...)   // ceiling
	tris = append(tris, quad(v(-1, 0, -1), v(1, 0, -1), v(1, h, -1), v(-1, h, -1), matWhite)...) // back
	tris = append(tris, quad(v(-1, 0, 1), v(-1, 0, -1), v(-1, h, -1), v(-1, h, 1), matRed)...)   // left
	tris = append(tris, quad(v(1, 0, -1), v(1, 0, 1), v(1, h, 1), v(1, h, -1), matGreen)...)     // right
	tris = append(tris, quad(v(-0.25, h-0.01, -0.25), v(0.25, h-0.01, -0.25), v(0.25, h-0.01, 0.25), v(-0.25, h-0.01, 0.25), matLamp)...)

	tris = append(tris, box(v(-0.6, 0, -0.6), v(-0.1, 1.2, -0.1), matWhite)...)
	tris = append(tris, box(v(0.15, 0, 0.05), v(0.65, 0.55, 0.55), matGold)...)

	lights := []core.Light{
		core.NewPointLight(v(0, 1.7, 0.3), 0.05, v(1.5, 1.4, 1.2), 6),
		core.NewSpotLight(v(0.7, 1.8, 0.8), 0.05, v(3, 2.6, 2), 6, v(-0.5, -1, -0.6), mgl32.DegToRad(30)),
	}
	return tris, materials, lights
}
