// Package lumen renders direct and indirect lighting for any number of
// cameras over one shared triangle scene, reusing light samples across
// pixels and frames.
package lumen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"github.com/gekko3d/lumen/lightrt/rt/camera"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/kernels"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownCamera = errors.New("unknown camera")
	ErrUnknownLight  = errors.New("unknown light")
)

type CameraID string

// Engine owns the scene snapshot and the cameras rendering it. Its methods
// are safe to call from multiple goroutines; Render holds the engine for
// the whole frame.
type Engine struct {
	mu sync.Mutex

	logger   Logger
	device   *gpu.Device
	registry *shaders.Registry
	uploader *gpu.SceneUploader

	scene  *camera.SceneBuffers
	lights *core.LightStore
	stats  bvh.Stats

	cameras map[CameraID]*camera.Controller
	order   []CameraID

	rng   *rand.Rand
	frame uint32

	runCamera func(*camera.Controller, context.Context, uint32, uint32) error
}

func NewEngine(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = NewNopLogger()
	}

	registry := shaders.NewRegistry()
	compiler := cfg.Compiler
	if compiler == nil {
		compiler = kernels.NewCompiler()
	}
	if err := shaders.Populate(registry, compiler, shaders.Passes); err != nil {
		return nil, fmt.Errorf("compile kernels: %w", err)
	}

	e := &Engine{
		logger:   cfg.Logger,
		device:   gpu.NewDevice(cfg.Workers),
		registry: registry,
		scene:    camera.NewSceneBuffers(cfg.Restir),
		lights:   core.NewLightStore(),
		cameras:  make(map[CameraID]*camera.Controller),
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),

		runCamera: (*camera.Controller).Run,
	}
	if cfg.GPU != nil {
		e.uploader = gpu.NewSceneUploader(cfg.GPU)
	}
	e.scene.Materials.Write([]core.Material{core.DefaultMaterial()})
	e.scene.Nodes.Write(bvh.NewBuilder().Build(nil).Nodes)

	e.logger.Infof("Engine ready: %d kernels, %d workers", len(registry.Names()), e.device.Workers())
	return e, nil
}

// SetGeometry replaces the scene triangles and their materials. An empty
// material table gets a single default material.
func (e *Engine) SetGeometry(tris []core.Triangle, materials []core.Material) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(materials) == 0 {
		materials = []core.Material{core.DefaultMaterial()}
	}

	tree := bvh.NewBuilder().Build(tris)
	e.stats = tree.Stats()
	e.logger.Infof("BVH built: %d triangles, %d nodes, %d leaves, depth %d",
		len(tree.Triangles), e.stats.Nodes, e.stats.Leaves, e.stats.MaxDepth)

	reallocated := e.scene.Triangles.Write(tree.Triangles)
	reallocated = e.scene.Nodes.Write(tree.Nodes) || reallocated
	reallocated = e.scene.Materials.Write(materials) || reallocated
	if reallocated {
		e.markStale()
	}
	e.upload()
}

func (e *Engine) Stats() bvh.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) SetWorld(w core.World) {
	e.mu.Lock()
	e.scene.World.Set(w)
	e.mu.Unlock()
}

func (e *Engine) AddLight(l core.Light) core.LightID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lights.Add(l)
}

func (e *Engine) UpdateLight(id core.LightID, l core.Light) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.lights.Update(id, l) {
		return fmt.Errorf("%w: %d", ErrUnknownLight, id)
	}
	return nil
}

func (e *Engine) RemoveLight(id core.LightID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.lights.Remove(id) {
		return fmt.Errorf("%w: %d", ErrUnknownLight, id)
	}
	return nil
}

// Light returns the packed light as the next frame will see it.
func (e *Engine) Light(id core.LightID) (core.GpuLight, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lights.Get(id)
}

func (e *Engine) CreateCamera(cfg camera.Config) (CameraID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := CameraID(uuid.NewString())
	ctrl, err := camera.NewController(cameraLogger{Logger: e.logger, id: id}, e.device, e.registry, e.scene, cfg)
	if err != nil {
		return "", fmt.Errorf("create camera: %w", err)
	}
	e.cameras[id] = ctrl
	e.order = append(e.order, id)
	e.logger.Infof("Created camera %s (%dx%d)", id, cfg.Viewport.Width, cfg.Viewport.Height)
	return id, nil
}

// UpdateCamera moves or resizes a camera. A resize reallocates its buffers
// and starts its history over.
func (e *Engine) UpdateCamera(id CameraID, cfg camera.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctrl, ok := e.cameras[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCamera, id)
	}
	if ctrl.SetCamera(cfg.Camera()).Reallocated {
		return ctrl.Rebuild()
	}
	return nil
}

func (e *Engine) DeleteCamera(id CameraID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cameras[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCamera, id)
	}
	delete(e.cameras, id)
	for i, other := range e.order {
		if other == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

func (e *Engine) Cameras() []CameraID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]CameraID(nil), e.order...)
}

// Outputs are the last completed frame of a camera. They stay valid until
// the next Render.
func (e *Engine) Outputs(id CameraID) (camera.Outputs, error) {
	ctrl, err := e.controller(id)
	if err != nil {
		return camera.Outputs{}, err
	}
	return ctrl.Outputs(), nil
}

func (e *Engine) Profiler(id CameraID) (*camera.Profiler, error) {
	ctrl, err := e.controller(id)
	if err != nil {
		return nil, err
	}
	return ctrl.Profiler, nil
}

func (e *Engine) controller(id CameraID) (*camera.Controller, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctrl, ok := e.cameras[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCamera, id)
	}
	return ctrl, nil
}

func (e *Engine) Frame() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Render runs one frame on every camera. Cameras render concurrently since
// they only share the read-only scene. The lights' previous-frame state is
// committed once all cameras finished.
//
// If any camera fails the frame is dropped for all of them: the frame
// counter and light history stay put, and every camera's history is
// invalidated since the ones that finished already flipped their buffers.
func (e *Engine) Render(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lights.Dirty() {
		if e.scene.Lights.Write(e.lights.Lights()) {
			e.markStale()
		}
		e.lights.ClearDirty()
		e.upload()
	}

	for _, id := range e.order {
		ctrl := e.cameras[id]
		if !ctrl.Stale() {
			continue
		}
		if err := ctrl.Rebuild(); err != nil {
			return fmt.Errorf("camera %s: %w", id, err)
		}
	}

	seed := e.rng.Uint32()
	frame := e.frame

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range e.order {
		ctrl := e.cameras[id]
		cameraSeed := seed ^ uint32(i)*0x9e3779b9
		g.Go(func() error {
			if err := e.runCamera(ctrl, gctx, frame, cameraSeed); err != nil {
				return fmt.Errorf("camera %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, ctrl := range e.cameras {
			ctrl.InvalidateHistory()
		}
		return err
	}

	e.lights.Flush()
	e.frame++
	return nil
}

// GPUScene is the webgpu mirror of the scene, nil unless the engine was
// created WithDevice.
func (e *Engine) GPUScene() *gpu.SceneUploader {
	return e.uploader
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uploader != nil {
		e.uploader.Release()
	}
	e.cameras = make(map[CameraID]*camera.Controller)
	e.order = nil
}

func (e *Engine) markStale() {
	for _, ctrl := range e.cameras {
		ctrl.MarkStale()
	}
}

func (e *Engine) upload() {
	if e.uploader == nil {
		return
	}
	recreated := e.uploader.Upload(gpu.SceneBytes{
		Triangles: core.TrianglesToBytes(e.scene.Triangles.Items()),
		Nodes:     bvh.NodesToBytes(e.scene.Nodes.Items()),
		Lights:    core.LightsToBytes(e.scene.Lights.Items()),
		Materials: core.MaterialsToBytes(e.scene.Materials.Items()),
	})
	if recreated {
		e.logger.Debugf("GPU scene buffers recreated")
	}
}
