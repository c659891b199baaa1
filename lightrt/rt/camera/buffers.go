package camera

import (
	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/kernels"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBuffers are owned by the engine and bound read-only by every camera.
type SceneBuffers struct {
	Triangles *kernels.Triangles
	Nodes     *kernels.Nodes
	Lights    *kernels.Lights
	Materials *kernels.Materials
	World     *kernels.World
	Config    *kernels.Config
}

func NewSceneBuffers(cfg restir.Config) *SceneBuffers {
	return &SceneBuffers{
		Triangles: gpu.NewStorage[core.Triangle]("triangles"),
		Nodes:     gpu.NewStorage[bvh.BVHNode]("bvh_nodes"),
		Lights:    gpu.NewStorage[core.GpuLight]("lights"),
		Materials: gpu.NewStorage[core.Material]("materials"),
		World:     gpu.NewUniform("world", core.World{}),
		Config:    gpu.NewUniform("config", cfg),
	}
}

// Buffers are the resources of one camera. Everything that crosses a frame
// boundary is double-buffered on the shared alternation.
type Buffers struct {
	alt      *gpu.Alternation
	viewport core.Viewport

	Camera  *gpu.DoubleBuffered[*kernels.CameraUniform]
	Hits    *gpu.DoubleBuffered[*kernels.Hits]
	GBuffer *gpu.DoubleBuffered[*kernels.GBuffer]

	Reprojection *kernels.Reprojections

	DiCandidates *kernels.DiReservoirs
	DiTemporal   *kernels.DiReservoirs
	DiPicks      *kernels.Picks
	DiSamples    *kernels.SpatialSamples
	DiReservoirs *gpu.DoubleBuffered[*kernels.DiReservoirs]
	Direct       *kernels.RadianceTexture

	GiHits       *kernels.Hits // quarter resolution
	GiCandidates *kernels.GiCandidates
	GiTemporal   *kernels.GiReservoirs
	GiPicks      *kernels.Picks
	GiSamples    *kernels.SpatialSamples
	GiReservoirs *gpu.DoubleBuffered[*kernels.GiReservoirs]
	Indirect     *kernels.RadianceTexture
}

func doubleTexture[T any](alt *gpu.Alternation, label string, vp core.Viewport) *gpu.DoubleBuffered[*gpu.Texture[T]] {
	return gpu.NewDoubleBuffered(alt,
		gpu.NewTexture[T](label+"_a", vp.Width, vp.Height),
		gpu.NewTexture[T](label+"_b", vp.Width, vp.Height),
	)
}

func quarter(vp core.Viewport) core.Viewport {
	return core.Viewport{Width: (vp.Width + 1) / 2, Height: (vp.Height + 1) / 2}
}

func NewBuffers(vp core.Viewport) *Buffers {
	alt := &gpu.Alternation{}
	q := quarter(vp)
	w, h := vp.Width, vp.Height

	return &Buffers{
		alt:      alt,
		viewport: vp,

		Camera: gpu.NewDoubleBuffered(alt,
			gpu.NewUniform("camera_a", core.Camera{}),
			gpu.NewUniform("camera_b", core.Camera{}),
		),
		Hits:    doubleTexture[core.PackedHit](alt, "prim_hits", vp),
		GBuffer: doubleTexture[core.Surface](alt, "prim_surfaces", vp),

		Reprojection: gpu.NewTexture[core.Reprojection]("reprojection", w, h),

		DiCandidates: gpu.NewTexture[restir.DiReservoir]("di_candidates", w, h),
		DiTemporal:   gpu.NewTexture[restir.DiReservoir]("di_temporal", w, h),
		DiPicks:      gpu.NewTexture[restir.Neighbors]("di_picks", w, h),
		DiSamples:    gpu.NewTexture[restir.SpatialSamples]("di_samples", w, h),
		DiReservoirs: doubleTexture[restir.DiReservoir](alt, "di_reservoirs", vp),
		Direct:       gpu.NewTexture[mgl32.Vec3]("direct", w, h),

		GiHits:       gpu.NewTexture[core.PackedHit]("gi_hits", q.Width, q.Height),
		GiCandidates: gpu.NewTexture[restir.GiCandidate]("gi_candidates", w, h),
		GiTemporal:   gpu.NewTexture[restir.GiReservoir]("gi_temporal", w, h),
		GiPicks:      gpu.NewTexture[restir.Neighbors]("gi_picks", w, h),
		GiSamples:    gpu.NewTexture[restir.SpatialSamples]("gi_samples", w, h),
		GiReservoirs: doubleTexture[restir.GiReservoir](alt, "gi_reservoirs", vp),
		Indirect:     gpu.NewTexture[mgl32.Vec3]("indirect", w, h),
	}
}

func (b *Buffers) Viewport() core.Viewport       { return b.viewport }
func (b *Buffers) Alternation() *gpu.Alternation { return b.alt }

// Resize reallocates every texture for the new viewport.
func (b *Buffers) Resize(vp core.Viewport) gpu.FlushOutcome {
	var out gpu.FlushOutcome
	if vp == b.viewport {
		return out
	}
	b.viewport = vp
	w, h := vp.Width, vp.Height
	q := quarter(vp)

	flush := func(o gpu.FlushOutcome) { out.Reallocated = out.Reallocated || o.Reallocated }
	single := func(r gpu.Resizable, w, h uint32) {
		if r.Resize(w, h) {
			out.Reallocated = true
		}
	}

	flush(b.Hits.Resize(w, h))
	flush(b.GBuffer.Resize(w, h))
	flush(b.DiReservoirs.Resize(w, h))
	flush(b.GiReservoirs.Resize(w, h))
	for _, r := range []gpu.Resizable{
		b.Reprojection, b.DiCandidates, b.DiTemporal, b.DiPicks, b.DiSamples, b.Direct,
		b.GiCandidates, b.GiTemporal, b.GiPicks, b.GiSamples, b.Indirect,
	} {
		single(r, w, h)
	}
	single(b.GiHits, q.Width, q.Height)
	return out
}

// InvalidateHistory wipes everything the next frame would read as past.
func (b *Buffers) InvalidateHistory() {
	b.Camera.Past().Set(core.Camera{})
	b.GBuffer.Past().Clear()
	b.Hits.Past().Clear()
	b.DiReservoirs.Past().Clear()
	b.GiReservoirs.Past().Clear()
	b.GiCandidates.Clear()
}
