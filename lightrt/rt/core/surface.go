package core

import "github.com/go-gl/mathgl/mgl32"

// Surface is one gbuffer texel: the shaded primary hit of a pixel.
type Surface struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Depth    float32 // distance from the camera, 0 when the pixel saw the sky
	Albedo   mgl32.Vec3
	Emissive mgl32.Vec3
}

func (s *Surface) IsNone() bool {
	return s.Depth <= 0
}

// IsSimilar reports whether two surfaces are close enough, in relative
// depth and normal orientation, to share samples.
func (s *Surface) IsSimilar(other *Surface, depthThreshold, normalThreshold float32) bool {
	if s.IsNone() || other.IsNone() {
		return false
	}
	if mgl32.Abs(s.Depth-other.Depth)/s.Depth > depthThreshold {
		return false
	}
	return s.Normal.Dot(other.Normal) >= normalThreshold
}

// Reprojection maps a pixel to where its surface was in the previous frame.
type Reprojection struct {
	Prev  [2]uint32
	Valid bool
}

// World holds scene-wide shading parameters.
type World struct {
	Sky mgl32.Vec3
}
