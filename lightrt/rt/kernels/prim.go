package kernels

import (
	"math"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
)

func primTracing() *kernel {
	return &kernel{
		name: shaders.PrimTracing,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Triangles](), shaders.Read[*Nodes]()},
			{shaders.Read[*CameraUniform](), shaders.Write[*Hits]()},
		},
		bind: func(b *binder) shaders.Program {
			tris := get[*Triangles](b, groupScene, 0)
			nodes := get[*Nodes](b, groupScene, 1)
			cam := get[*CameraUniform](b, groupCamera, 0)
			hits := get[*Hits](b, groupCamera, 1)

			return func(inv *gpu.Invocation, _ shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !hits.InBounds(x, y) {
					return
				}
				ray := cam.Get().Ray(x, y)
				hit := sceneView(tris, nodes).TraceNearest(ray, &inv.Shared.Stack)
				hits.Set(x, y, hit.Serialize())
			}
		},
	}
}

func primShading() *kernel {
	return &kernel{
		name: shaders.PrimShading,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Materials]()},
			{shaders.Read[*CameraUniform](), shaders.Read[*Hits](), shaders.Write[*GBuffer]()},
		},
		bind: func(b *binder) shaders.Program {
			materials := get[*Materials](b, groupScene, 0)
			cam := get[*CameraUniform](b, groupCamera, 0)
			hits := get[*Hits](b, groupCamera, 1)
			gbuffer := get[*GBuffer](b, groupCamera, 2)

			return func(inv *gpu.Invocation, _ shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !gbuffer.InBounds(x, y) {
					return
				}
				hit := core.DeserializeHit(hits.At(x, y), cam.Get().Ray(x, y))
				if hit.IsNone() {
					gbuffer.Set(x, y, core.Surface{})
					return
				}
				mat := material(materials, hit.Material)
				gbuffer.Set(x, y, core.Surface{
					Point:    hit.Point,
					Normal:   hit.Normal,
					Depth:    hit.Distance,
					Albedo:   mat.Albedo(),
					Emissive: mat.Emissive,
				})
			}
		},
	}
}

func frameReprojection() *kernel {
	return &kernel{
		name: shaders.FrameReprojection,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Config]()},
			{
				shaders.Read[*CameraUniform](), shaders.Read[*CameraUniform](),
				shaders.Read[*GBuffer](), shaders.Read[*GBuffer](),
				shaders.Write[*Reprojections](),
			},
		},
		bind: func(b *binder) shaders.Program {
			cfg := get[*Config](b, groupScene, 0)
			currCam := get[*CameraUniform](b, groupCamera, 0)
			pastCam := get[*CameraUniform](b, groupCamera, 1)
			currSurf := get[*GBuffer](b, groupCamera, 2)
			pastSurf := get[*GBuffer](b, groupCamera, 3)
			out := get[*Reprojections](b, groupCamera, 4)

			return func(inv *gpu.Invocation, _ shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				out.Set(x, y, reproject(currSurf.Ptr(x, y), currCam.Get(), pastCam.Get(), pastSurf, cfg.Get()))
			}
		},
	}
}

func reproject(s *core.Surface, curr, past *core.Camera, pastSurf *GBuffer, cfg *restir.Config) core.Reprojection {
	if s.IsNone() || past.Viewport != curr.Viewport {
		return core.Reprojection{}
	}
	screen, ok := past.Project(s.Point)
	if !ok {
		return core.Reprojection{}
	}
	px := [2]uint32{uint32(math.Floor(float64(screen.X()))), uint32(math.Floor(float64(screen.Y())))}
	if !pastSurf.InBounds(px[0], px[1]) {
		return core.Reprojection{}
	}

	prev := pastSurf.Ptr(px[0], px[1])
	expected := core.Surface{
		Point:  s.Point,
		Normal: s.Normal,
		Depth:  s.Point.Sub(past.Position).Len(),
	}
	if !expected.IsSimilar(prev, cfg.DepthThreshold, cfg.NormalThreshold) {
		return core.Reprojection{}
	}
	return core.Reprojection{Prev: px, Valid: true}
}
