package kernels

import (
	"math"

	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// skyDistance places the sample point of a ray that escaped the scene.
const skyDistance = 1e4

// giRay regenerates the secondary ray of a quarter-res invocation. Both
// candidate passes run with the same seed so they agree on it.
func giRay(noise *core.Noise, s *core.Surface) core.Ray {
	dir := noise.SampleHemisphere(s.Normal)
	return core.NewSurfaceRay(s.Point, s.Normal, dir)
}

func giSamplingA() *kernel {
	return &kernel{
		name: shaders.GiSamplingA,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Triangles](), shaders.Read[*Nodes]()},
			{shaders.Read[*GBuffer](), shaders.Write[*Hits]()},
		},
		bind: func(b *binder) shaders.Program {
			tris := get[*Triangles](b, groupScene, 0)
			nodes := get[*Nodes](b, groupScene, 1)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			out := get[*Hits](b, groupCamera, 1)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				id := inv.GlobalID
				if !out.InBounds(id[0], id[1]) {
					return
				}
				px := restir.Upsample(id, params.Frame)
				if !gbuffer.InBounds(px[0], px[1]) || gbuffer.Ptr(px[0], px[1]).IsNone() {
					out.Set(id[0], id[1], core.NoHit().Serialize())
					return
				}

				noise := core.NewNoise(params.Seed, id, params.Frame)
				ray := giRay(&noise, gbuffer.Ptr(px[0], px[1]))
				hit := sceneView(tris, nodes).TraceNearest(ray, &inv.Shared.Stack)
				out.Set(id[0], id[1], hit.Serialize())
			}
		},
	}
}

// giSamplingB shades the secondary hits traced by giSamplingA with one
// light sample and stores the resulting candidate at the full-res pixel.
func giSamplingB() *kernel {
	return &kernel{
		name: shaders.GiSamplingB,
		layout: [][]shaders.BindingLayout{
			{
				shaders.Read[*Triangles](), shaders.Read[*Nodes](), shaders.Read[*Lights](),
				shaders.Read[*Materials](), shaders.Read[*World](),
			},
			{shaders.Read[*GBuffer](), shaders.Read[*Hits](), shaders.Write[*GiCandidates]()},
		},
		bind: func(b *binder) shaders.Program {
			tris := get[*Triangles](b, groupScene, 0)
			nodes := get[*Nodes](b, groupScene, 1)
			lights := get[*Lights](b, groupScene, 2)
			materials := get[*Materials](b, groupScene, 3)
			world := get[*World](b, groupScene, 4)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			hits := get[*Hits](b, groupCamera, 1)
			out := get[*GiCandidates](b, groupCamera, 2)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				id := inv.GlobalID
				if !hits.InBounds(id[0], id[1]) {
					return
				}
				px := restir.Upsample(id, params.Frame)
				if !out.InBounds(px[0], px[1]) {
					return
				}

				candidate := restir.GiCandidate{Frame: params.Frame, Valid: true}
				candidate.Reservoir.M = 1

				s := gbuffer.Ptr(px[0], px[1])
				if s.IsNone() {
					out.Set(px[0], px[1], candidate)
					return
				}

				noise := core.NewNoise(params.Seed, id, params.Frame)
				ray := giRay(&noise, s)
				hit := core.DeserializeHit(hits.At(id[0], id[1]), ray)

				sample := restir.GiSample{VisiblePoint: s.Point, VisibleNormal: s.Normal}
				if hit.IsNone() {
					sample.SamplePoint = ray.At(skyDistance)
					sample.SampleNormal = ray.Direction.Mul(-1)
					sample.Radiance = world.Get().Sky
				} else {
					sample.SamplePoint = hit.Point
					sample.SampleNormal = hit.Normal
					sample.Radiance = shadeSecondary(&noise, &hit, material(materials, hit.Material), lights, sceneView(tris, nodes), &inv.Shared.Stack)
				}

				cos := s.Normal.Dot(ray.Direction)
				pdf := cos / math.Pi
				pHat := restir.GiTarget(&sample, s.Point, s.Normal)
				if pdf > 1e-6 {
					candidate.Reservoir = restir.GiReservoir{}
					candidate.Reservoir.Update(sample, pHat/pdf, pHat, noise.Sample())
					candidate.Reservoir.Normalize()
				}
				out.Set(px[0], px[1], candidate)
			}
		},
	}
}

// shadeSecondary is the outgoing radiance at a secondary hit: emission plus
// one shadowed light sample.
func shadeSecondary(noise *core.Noise, hit *core.Hit, mat core.Material, lights *Lights, view bvh.View, stack *bvh.Stack) mgl32.Vec3 {
	radiance := mat.Emissive
	n := uint32(lights.Len())
	if n == 0 {
		return radiance
	}

	l := lights.At(noise.SampleInt(n))
	irradiance, lightPoint := l.Contribution(noise.Sample2(), hit.Point, hit.Normal)
	if irradiance.LenSqr() == 0 {
		return radiance
	}
	surface := core.Surface{Point: hit.Point, Normal: hit.Normal, Depth: hit.Distance}
	if !visible(view, stack, &surface, lightPoint) {
		return radiance
	}
	brdf := mat.Albedo().Mul(1 / math.Pi)
	return radiance.Add(core.MulVec3(brdf, irradiance).Mul(float32(n)))
}

func giTemporalResampling() *kernel {
	return &kernel{
		name: shaders.GiTemporalResampling,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Config]()},
			{
				shaders.Read[*GBuffer](), shaders.Read[*Reprojections](),
				shaders.Read[*GiCandidates](), shaders.Read[*GiReservoirs](),
				shaders.Write[*GiReservoirs](),
			},
		},
		bind: func(b *binder) shaders.Program {
			cfg := get[*Config](b, groupScene, 0)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			reprojection := get[*Reprojections](b, groupCamera, 1)
			candidates := get[*GiCandidates](b, groupCamera, 2)
			history := get[*GiReservoirs](b, groupCamera, 3)
			out := get[*GiReservoirs](b, groupCamera, 4)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				if s.IsNone() {
					out.Set(x, y, restir.GiReservoir{})
					return
				}

				var r restir.GiReservoir
				if c := candidates.Ptr(x, y); c.Valid && c.Frame == params.Frame {
					r = c.Reservoir
				}

				noise := core.NewNoise(params.Seed, inv.GlobalID, params.Frame)
				rp := reprojection.At(x, y)
				if rp.Valid && history.InBounds(rp.Prev[0], rp.Prev[1]) {
					h := history.At(rp.Prev[0], rp.Prev[1])
					if h.M > 0 {
						h.ClampM(restir.HistoryCap(r.M, cfg.Get().GiMaxM))
						if jacobian, ok := restir.GiJacobian(&h.Sample, s.Point); ok {
							pHat := restir.GiTarget(&h.Sample, s.Point, s.Normal)
							r.Merge(h, pHat, jacobian, noise.Sample())
						}
					}
				}
				r.Normalize()
				r.Sample.VisiblePoint = s.Point
				r.Sample.VisibleNormal = s.Normal
				out.Set(x, y, r)
			}
		},
	}
}

func giSpatialPick() *kernel {
	return spatialPick(shaders.GiSpatialResamplingPick, func(c *restir.Config) (float32, int) {
		return c.GiRadius, c.GiNeighbors
	})
}

func giSpatialSample() *kernel {
	return &kernel{
		name: shaders.GiSpatialResamplingSample,
		layout: [][]shaders.BindingLayout{
			{},
			{shaders.Read[*GBuffer](), shaders.Read[*Picks](), shaders.Read[*GiReservoirs](), shaders.Write[*SpatialSamples]()},
		},
		bind: func(b *binder) shaders.Program {
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			picks := get[*Picks](b, groupCamera, 1)
			temporal := get[*GiReservoirs](b, groupCamera, 2)
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
					if nr.IsEmpty() {
						continue
					}
					jacobian, ok := restir.GiJacobian(&nr.Sample, s.Point)
					if !ok {
						continue
					}
					samples.TargetPdf[k] = restir.GiTarget(&nr.Sample, s.Point, s.Normal)
					samples.Jacobian[k] = jacobian
				}
				out.Set(x, y, samples)
			}
		},
	}
}

func giSpatialTrace() *kernel {
	return &kernel{
		name: shaders.GiSpatialResamplingTrace,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Triangles](), shaders.Read[*Nodes](), shaders.Read[*Config]()},
			{shaders.Read[*GBuffer](), shaders.Read[*GiReservoirs](), shaders.Read[*SpatialSamples](), shaders.Write[*GiReservoirs]()},
		},
		bind: func(b *binder) shaders.Program {
			tris := get[*Triangles](b, groupScene, 0)
			nodes := get[*Nodes](b, groupScene, 1)
			cfg := get[*Config](b, groupScene, 2)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			temporal := get[*GiReservoirs](b, groupCamera, 1)
			samples := get[*SpatialSamples](b, groupCamera, 2)
			out := get[*GiReservoirs](b, groupCamera, 3)

			return func(inv *gpu.Invocation, params shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				if s.IsNone() {
					out.Set(x, y, restir.GiReservoir{})
					return
				}

				noise := core.NewNoise(params.Seed, inv.GlobalID, params.Frame)
				view := sceneView(tris, nodes)
				own := temporal.At(x, y)
				sp := samples.Ptr(x, y)

				var r restir.GiReservoir
				r.Merge(own, own.TargetPdf, 1, noise.Sample())
				for k := uint32(0); k < sp.Neighbors.Count; k++ {
					if sp.TargetPdf[k] <= 0 {
						continue
					}
					px := sp.Neighbors.Pixels[k]
					nr := temporal.At(px[0], px[1])
					if !visible(view, &inv.Shared.Stack, s, nr.Sample.SamplePoint) {
						continue
					}
					r.Merge(nr, sp.TargetPdf[k], sp.Jacobian[k], noise.Sample())
				}
				r.Normalize()
				r.ClampM(cfg.Get().GiMaxM)
				r.Sample.VisiblePoint = s.Point
				r.Sample.VisibleNormal = s.Normal
				out.Set(x, y, r)
			}
		},
	}
}

func giResolving() *kernel {
	return &kernel{
		name: shaders.GiResolving,
		layout: [][]shaders.BindingLayout{
			{},
			{shaders.Read[*GBuffer](), shaders.Read[*GiReservoirs](), shaders.Write[*RadianceTexture]()},
		},
		bind: func(b *binder) shaders.Program {
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			reservoirs := get[*GiReservoirs](b, groupCamera, 1)
			out := get[*RadianceTexture](b, groupCamera, 2)

			return func(inv *gpu.Invocation, _ shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				out.Set(x, y, resolveIndirect(gbuffer.Ptr(x, y), reservoirs.Ptr(x, y)))
			}
		},
	}
}

func resolveIndirect(s *core.Surface, r *restir.GiReservoir) mgl32.Vec3 {
	if s.IsNone() || r.IsEmpty() {
		return mgl32.Vec3{}
	}
	dir := r.Sample.SamplePoint.Sub(s.Point)
	if dir.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	cos := s.Normal.Dot(dir.Normalize())
	if cos <= 0 {
		return mgl32.Vec3{}
	}
	brdf := s.Albedo.Mul(1 / math.Pi)
	out := core.MulVec3(brdf, r.Sample.Radiance).Mul(cos * r.W)
	if !core.IsFinite(out.X()) || !core.IsFinite(out.Y()) || !core.IsFinite(out.Z()) {
		return mgl32.Vec3{}
	}
	return out
}
