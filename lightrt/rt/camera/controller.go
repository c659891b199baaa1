// Package camera drives the per-camera frame pipeline: it owns the
// camera's buffers, binds every pass against them and runs the passes in
// order once per frame.
package camera

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/kernels"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
)

// ErrStaleBindings means the buffers were reallocated and Rebuild was not
// called before the next frame.
var ErrStaleBindings = errors.New("camera bindings are stale")

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type Controller struct {
	logger   Logger
	device   *gpu.Device
	registry *shaders.Registry
	scene    *SceneBuffers
	buffers  *Buffers

	camera       core.Camera
	passes       []*Pass
	stale        bool
	historyValid bool
	frames       uint64

	Profiler *Profiler
}

func NewController(logger Logger, device *gpu.Device, registry *shaders.Registry, scene *SceneBuffers, cfg Config) (*Controller, error) {
	c := &Controller{
		logger:   logger,
		device:   device,
		registry: registry,
		scene:    scene,
		buffers:  NewBuffers(cfg.Viewport),
		camera:   cfg.Camera(),
		Profiler: NewProfiler(),
	}
	if err := c.Rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) Buffers() *Buffers   { return c.buffers }
func (c *Controller) Camera() core.Camera { return c.camera }
func (c *Controller) Frames() uint64      { return c.frames }
func (c *Controller) Stale() bool         { return c.stale }

// HistoryValid reports whether the next frame may reuse the past buffers.
func (c *Controller) HistoryValid() bool { return c.historyValid }

// SetCamera updates the camera for the next frame. A viewport change
// reallocates the buffers; the caller must Rebuild when the outcome says so.
func (c *Controller) SetCamera(cam core.Camera) gpu.FlushOutcome {
	c.camera = cam
	out := c.buffers.Resize(cam.Viewport)
	if out.Reallocated {
		c.logger.Infof("Camera resized to %dx%d, rebuilding bindings", cam.Viewport.Width, cam.Viewport.Height)
		c.stale = true
		c.historyValid = false
	}
	return out
}

// MarkStale flags the bindings for rebuild, e.g. after scene buffers were
// reallocated.
func (c *Controller) MarkStale() {
	c.stale = true
}

// InvalidateHistory makes the next frame ignore everything it would reuse.
func (c *Controller) InvalidateHistory() {
	c.historyValid = false
}

func (c *Controller) Rebuild() error {
	passes, err := c.buildPasses()
	if err != nil {
		return err
	}
	c.passes = passes
	c.stale = false
	return nil
}

func (c *Controller) buildPasses() ([]*Pass, error) {
	s, b := c.scene, c.buffers

	builders := []*PassBuilder{
		NewPass(shaders.PrimTracing).
			Bind(gpu.BindReadable(s.Triangles), gpu.BindReadable(s.Nodes)).
			Bind(b.Camera.BindCurrReadable(), b.Hits.BindCurrWritable()),
		NewPass(shaders.PrimShading).
			Bind(gpu.BindReadable(s.Materials)).
			Bind(b.Camera.BindCurrReadable(), b.Hits.BindCurrReadable(), b.GBuffer.BindCurrWritable()),
		NewPass(shaders.FrameReprojection).
			Bind(gpu.BindReadable(s.Config)).
			Bind(
				b.Camera.BindCurrReadable(), b.Camera.BindPastReadable(),
				b.GBuffer.BindCurrReadable(), b.GBuffer.BindPastReadable(),
				gpu.BindWritable(b.Reprojection),
			),

		NewPass(shaders.DiSampling).
			Bind(gpu.BindReadable(s.Triangles), gpu.BindReadable(s.Nodes), gpu.BindReadable(s.Lights), gpu.BindReadable(s.Config)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindWritable(b.DiCandidates)),
		NewPass(shaders.DiTemporalResampling).
			Bind(gpu.BindReadable(s.Lights), gpu.BindReadable(s.Config)).
			Bind(
				b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.Reprojection),
				gpu.BindReadable(b.DiCandidates), b.DiReservoirs.BindPastReadable(),
				gpu.BindWritable(b.DiTemporal),
			),
		NewPass(shaders.DiSpatialResamplingPick).
			Bind(gpu.BindReadable(s.Config)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindWritable(b.DiPicks)),
		NewPass(shaders.DiSpatialResamplingSample).
			Bind(gpu.BindReadable(s.Lights)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.DiPicks), gpu.BindReadable(b.DiTemporal), gpu.BindWritable(b.DiSamples)),
		NewPass(shaders.DiSpatialResamplingTrace).
			Bind(gpu.BindReadable(s.Triangles), gpu.BindReadable(s.Nodes), gpu.BindReadable(s.Lights), gpu.BindReadable(s.Config)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.DiTemporal), gpu.BindReadable(b.DiSamples), b.DiReservoirs.BindCurrWritable()),
		NewPass(shaders.DiResolving).
			Bind(gpu.BindReadable(s.Lights), gpu.BindReadable(s.World)).
			Bind(b.GBuffer.BindCurrReadable(), b.DiReservoirs.BindCurrReadable(), gpu.BindWritable(b.Direct)),

		NewPass(shaders.GiSamplingA).
			Downsample(2).
			Bind(gpu.BindReadable(s.Triangles), gpu.BindReadable(s.Nodes)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindWritable(b.GiHits)),
		NewPass(shaders.GiSamplingB).
			Downsample(2).
			SeedFrom(shaders.GiSamplingA).
			Bind(
				gpu.BindReadable(s.Triangles), gpu.BindReadable(s.Nodes), gpu.BindReadable(s.Lights),
				gpu.BindReadable(s.Materials), gpu.BindReadable(s.World),
			).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.GiHits), gpu.BindWritable(b.GiCandidates)),
		NewPass(shaders.GiTemporalResampling).
			Bind(gpu.BindReadable(s.Config)).
			Bind(
				b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.Reprojection),
				gpu.BindReadable(b.GiCandidates), b.GiReservoirs.BindPastReadable(),
				gpu.BindWritable(b.GiTemporal),
			),
		NewPass(shaders.GiSpatialResamplingPick).
			Bind(gpu.BindReadable(s.Config)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindWritable(b.GiPicks)),
		NewPass(shaders.GiSpatialResamplingSample).
			Bind().
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.GiPicks), gpu.BindReadable(b.GiTemporal), gpu.BindWritable(b.GiSamples)),
		NewPass(shaders.GiSpatialResamplingTrace).
			Bind(gpu.BindReadable(s.Triangles), gpu.BindReadable(s.Nodes), gpu.BindReadable(s.Config)).
			Bind(b.GBuffer.BindCurrReadable(), gpu.BindReadable(b.GiTemporal), gpu.BindReadable(b.GiSamples), b.GiReservoirs.BindCurrWritable()),
		NewPass(shaders.GiResolving).
			Bind().
			Bind(b.GBuffer.BindCurrReadable(), b.GiReservoirs.BindCurrReadable(), gpu.BindWritable(b.Indirect)),
	}

	passes := make([]*Pass, 0, len(builders))
	for _, builder := range builders {
		c.logger.Debugf("Initializing pass: %s", builder.name)
		p, err := builder.Build(c.registry)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	return passes, nil
}

// Run renders one frame: every pass in order, then the alternation flips
// so this frame's current buffers become the next frame's past.
func (c *Controller) Run(ctx context.Context, frame, seed uint32) error {
	if c.stale {
		return ErrStaleBindings
	}

	b := c.buffers
	b.Camera.Current().Set(c.camera)
	if !c.historyValid {
		b.InvalidateHistory()
	}

	alternate := b.Alternation().Get()
	vp := b.Viewport()
	c.Profiler.StartFrame()

	for _, p := range c.passes {
		params := shaders.PassParams{Seed: mixSeed(seed, p.seedKey), Frame: frame}

		c.Profiler.Begin(p.name)
		err := p.Run(ctx, c.device, alternate, vp, params)
		c.Profiler.End(p.name)

		if err != nil {
			// a dropped frame leaves current buffers half written
			c.historyValid = false
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}

	b.Alternation().Flip()
	c.historyValid = true
	c.frames++
	c.Profiler.CommitFrame()
	c.Profiler.SetCount("frames", int(c.frames))

	c.logger.Debugf("Frame %d rendered in %s", frame, c.Profiler.Total())
	return nil
}

func mixSeed(seed uint32, key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return seed ^ h.Sum32()
}

// Outputs are read-only views of the last completed frame.
type Outputs struct {
	Direct       *kernels.RadianceTexture
	Indirect     *kernels.RadianceTexture
	GBuffer      *kernels.GBuffer
	DiReservoirs *kernels.DiReservoirs
	GiReservoirs *kernels.GiReservoirs
}

func (c *Controller) Outputs() Outputs {
	b := c.buffers
	return Outputs{
		Direct:       b.Direct,
		Indirect:     b.Indirect,
		GBuffer:      b.GBuffer.Past(),
		DiReservoirs: b.DiReservoirs.Past(),
		GiReservoirs: b.GiReservoirs.Past(),
	}
}
