package kernels

import (
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// diSampling picks one light per pixel out of a few uniformly drawn
// candidates (RIS), then checks it for visibility.
func diSampling() *kernel {
	return &kernel{
		name: shaders.DiSampling,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Triangles](), shaders.Read[*Nodes](), shaders.Read[*Lights](), shaders.Read[*Config]()},
			{shaders.Read[*GBuffer](), shaders.Write[*DiReservoirs]()},
		},
		bind: func(b *binder) shaders.Program {
			tris := get[*Triangles](b, groupScene, 0)
			nodes := get[*Nodes](b, groupScene, 1)
			lights := get[*Lights](b, groupScene, 2)
			cfg := get[*Config](b, groupScene, 3)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			out := get[*DiReservoirs](b, groupCamera, 1)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				noise := core.NewNoise(params.Seed, inv.GlobalID, params.Frame)

				r := sampleLight(&noise, s, lights, cfg.Get().DiCandidates)
				if !r.IsEmpty() {
					l := lights.At(r.Sample.LightID)
					if !visible(sceneView(tris, nodes), &inv.Shared.Stack, s, l.SamplePoint(r.Sample.LightUV)) {
						r.W = 0
					}
				}

				// the candidate enters resampling as a single sample
				r.M = 1
				r.WSum = r.W * r.TargetPdf
				out.Set(x, y, r)
			}
		},
	}
}

func sampleLight(noise *core.Noise, s *core.Surface, lights *Lights, candidates int) restir.DiReservoir {
	var r restir.DiReservoir
	n := uint32(lights.Len())
	if s.IsNone() || n == 0 {
		return r
	}

	k := max(min(candidates, int(n)), 1)
	for i := 0; i < k; i++ {
		id := noise.SampleInt(n)
		uv := noise.Sample2()
		pHat, _, _ := restir.DiTarget(lights.At(id), uv, s)
		// source pdf is 1/n
		r.Update(restir.DiSample{LightID: id, LightUV: uv}, pHat*float32(n), pHat, noise.Sample())
	}
	r.Normalize()
	return r
}

func diTemporalResampling() *kernel {
	return &kernel{
		name: shaders.DiTemporalResampling,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Lights](), shaders.Read[*Config]()},
			{
				shaders.Read[*GBuffer](), shaders.Read[*Reprojections](),
				shaders.Read[*DiReservoirs](), shaders.Read[*DiReservoirs](),
				shaders.Write[*DiReservoirs](),
			},
		},
		bind: func(b *binder) shaders.Program {
			lights := get[*Lights](b, groupScene, 0)
			cfg := get[*Config](b, groupScene, 1)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			reprojection := get[*Reprojections](b, groupCamera, 1)
			candidates := get[*DiReservoirs](b, groupCamera, 2)
			history := get[*DiReservoirs](b, groupCamera, 3)
			out := get[*DiReservoirs](b, groupCamera, 4)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				r := candidates.At(x, y)
				if s.IsNone() {
					out.Set(x, y, restir.DiReservoir{})
					return
				}

				noise := core.NewNoise(params.Seed, inv.GlobalID, params.Frame)
				rp := reprojection.At(x, y)
				if rp.Valid && history.InBounds(rp.Prev[0], rp.Prev[1]) {
					h := history.At(rp.Prev[0], rp.Prev[1])
					if l, ok := light(lights, h.Sample.LightID); ok && h.M > 0 {
						if l.DidChange() {
							h.ClampM(1)
						}
						h.ClampM(restir.HistoryCap(r.M, cfg.Get().DiMaxM))
						pHat, _, _ := restir.DiTarget(l, h.Sample.LightUV, s)
						r.Merge(h, pHat, 1, noise.Sample())
					}
				}
				r.Normalize()
				out.Set(x, y, r)
			}
		},
	}
}

func diSpatialPick() *kernel {
	return spatialPick(shaders.DiSpatialResamplingPick, func(c *restir.Config) (float32, int) {
		return c.DiRadius, c.DiNeighbors
	})
}

// diSpatialSample re-evaluates every picked neighbor's light sample at the
// center pixel. Light-space samples need no Jacobian.
func diSpatialSample() *kernel {
	return &kernel{
		name: shaders.DiSpatialResamplingSample,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Lights]()},
			{shaders.Read[*GBuffer](), shaders.Read[*Picks](), shaders.Read[*DiReservoirs](), shaders.Write[*SpatialSamples]()},
		},
		bind: func(b *binder) shaders.Program {
			lights := get[*Lights](b, groupScene, 0)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			picks := get[*Picks](b, groupCamera, 1)
			temporal := get[*DiReservoirs](b, groupCamera, 2)
			out := get[*SpatialSamples](b, groupCamera, 3)

			return func(inv *gpu.Invocation, _ shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				samples := restir.SpatialSamples{Neighbors: picks.At(x, y)}

				for k := uint32(0); k < samples.Neighbors.Count; k++ {
					px := samples.Neighbors.Pixels[k]
					nr := temporal.Ptr(px[0], px[1])
					l, ok := light(lights, nr.Sample.LightID)
					if !ok || nr.IsEmpty() {
						continue
					}
					samples.TargetPdf[k], _, _ = restir.DiTarget(l, nr.Sample.LightUV, s)
					samples.Jacobian[k] = 1
				}
				out.Set(x, y, samples)
			}
		},
	}
}

func diSpatialTrace() *kernel {
	return &kernel{
		name: shaders.DiSpatialResamplingTrace,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Triangles](), shaders.Read[*Nodes](), shaders.Read[*Lights](), shaders.Read[*Config]()},
			{shaders.Read[*GBuffer](), shaders.Read[*DiReservoirs](), shaders.Read[*SpatialSamples](), shaders.Write[*DiReservoirs]()},
		},
		bind: func(b *binder) shaders.Program {
			tris := get[*Triangles](b, groupScene, 0)
			nodes := get[*Nodes](b, groupScene, 1)
			lights := get[*Lights](b, groupScene, 2)
			cfg := get[*Config](b, groupScene, 3)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			temporal := get[*DiReservoirs](b, groupCamera, 1)
			samples := get[*SpatialSamples](b, groupCamera, 2)
			out := get[*DiReservoirs](b, groupCamera, 3)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				if s.IsNone() {
					out.Set(x, y, restir.DiReservoir{})
					return
				}

				noise := core.NewNoise(params.Seed, inv.GlobalID, params.Frame)
				view := sceneView(tris, nodes)
				own := temporal.At(x, y)
				sp := samples.Ptr(x, y)

				var r restir.DiReservoir
				r.Merge(own, own.TargetPdf, 1, noise.Sample())
				for k := uint32(0); k < sp.Neighbors.Count; k++ {
					if sp.TargetPdf[k] <= 0 {
						continue
					}
					px := sp.Neighbors.Pixels[k]
					nr := temporal.At(px[0], px[1])
					l, ok := light(lights, nr.Sample.LightID)
					if !ok || !visible(view, &inv.Shared.Stack, s, l.SamplePoint(nr.Sample.LightUV)) {
						continue
					}
					r.Merge(nr, sp.TargetPdf[k], sp.Jacobian[k], noise.Sample())
				}
				r.Normalize()
				r.ClampM(cfg.Get().DiMaxM)
				out.Set(x, y, r)
			}
		},
	}
}

func diResolving() *kernel {
	return &kernel{
		name: shaders.DiResolving,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Lights](), shaders.Read[*World]()},
			{shaders.Read[*GBuffer](), shaders.Read[*DiReservoirs](), shaders.Write[*RadianceTexture]()},
		},
		bind: func(b *binder) shaders.Program {
			lights := get[*Lights](b, groupScene, 0)
			world := get[*World](b, groupScene, 1)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			reservoirs := get[*DiReservoirs](b, groupCamera, 1)
			out := get[*RadianceTexture](b, groupCamera, 2)

			return func(inv *gpu.Invocation, _ shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				out.Set(x, y, resolveDirect(gbuffer.Ptr(x, y), reservoirs.Ptr(x, y), lights, world.Get()))
			}
		},
	}
}

func resolveDirect(s *core.Surface, r *restir.DiReservoir, lights *Lights, world *core.World) mgl32.Vec3 {
	if s.IsNone() {
		return world.Sky
	}
	color := s.Emissive
	if r.IsEmpty() {
		return color
	}
	l, ok := light(lights, r.Sample.LightID)
	if !ok {
		return color
	}
	_, contrib, _ := restir.DiTarget(l, r.Sample.LightUV, s)
	out := color.Add(contrib.Mul(r.W))
	if !core.IsFinite(out.X()) || !core.IsFinite(out.Y()) || !core.IsFinite(out.Z()) {
		return color
	}
	return out
}
