package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RayEpsilon offsets secondary ray origins away from the surface they start on.
const RayEpsilon = 1e-3

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// NewSurfaceRay starts a ray on a surface, nudged along the normal.
func NewSurfaceRay(point, normal, direction mgl32.Vec3) Ray {
	return Ray{
		Origin:    point.Add(normal.Mul(RayEpsilon)),
		Direction: direction,
	}
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
