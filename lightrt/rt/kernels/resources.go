package kernels

import (
	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/go-gl/mathgl/mgl32"
)

// Engine-wide scene resources.
type (
	Triangles = gpu.Storage[core.Triangle]
	Nodes     = gpu.Storage[bvh.BVHNode]
	Lights    = gpu.Storage[core.GpuLight]
	Materials = gpu.Storage[core.Material]
	World     = gpu.Uniform[core.World]
	Config    = gpu.Uniform[restir.Config]
)

// Per-camera resources.
type (
	CameraUniform   = gpu.Uniform[core.Camera]
	Hits            = gpu.Texture[core.PackedHit]
	GBuffer         = gpu.Texture[core.Surface]
	Reprojections   = gpu.Texture[core.Reprojection]
	DiReservoirs    = gpu.Texture[restir.DiReservoir]
	GiReservoirs    = gpu.Texture[restir.GiReservoir]
	GiCandidates    = gpu.Texture[restir.GiCandidate]
	Picks           = gpu.Texture[restir.Neighbors]
	SpatialSamples  = gpu.Texture[restir.SpatialSamples]
	RadianceTexture = gpu.Texture[mgl32.Vec3]
)

func sceneView(tris *Triangles, nodes *Nodes) bvh.View {
	return bvh.View{Nodes: nodes.Items(), Triangles: tris.Items()}
}

func light(lights *Lights, id uint32) (*core.GpuLight, bool) {
	if int(id) >= lights.Len() {
		return nil, false
	}
	return lights.At(id), true
}

func material(materials *Materials, id uint32) core.Material {
	if int(id) >= materials.Len() {
		return core.DefaultMaterial()
	}
	return *materials.At(id)
}

// visible casts a shadow ray from a surface towards target.
func visible(view bvh.View, stack *bvh.Stack, s *core.Surface, target mgl32.Vec3) bool {
	origin := s.Point.Add(s.Normal.Mul(core.RayEpsilon))
	toTarget := target.Sub(origin)
	dist := toTarget.Len()
	if dist <= 2*core.RayEpsilon {
		return true
	}
	ray := core.NewRay(origin, toTarget.Mul(1/dist))
	return !view.TraceAny(ray, dist-2*core.RayEpsilon, stack)
}
