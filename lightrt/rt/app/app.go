// Package app is the headless driver behind the lightrt command: it builds
// an engine around a scene, orbits one camera around it and writes PNG
// snapshots of the composed frames.
package app

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/gekko3d/lumen"
	"github.com/gekko3d/lumen/lightrt/rt/camera"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/loader"
	"github.com/go-gl/mathgl/mgl32"
)

const fps = 30

type Options struct {
	Width, Height uint32
	// ScenePath is a .gltf/.glb file; empty renders DefaultScene.
	ScenePath string
	Workers   int
	Seed      uint64
	Exposure  float32
	// OrbitSpeed is the target yaw velocity in radians per frame.
	OrbitSpeed float64
	Debug      bool
}

func DefaultOptions() Options {
	return Options{
		Width:      320,
		Height:     240,
		Seed:       1,
		Exposure:   1,
		OrbitSpeed: 0.02,
	}
}

// orbit eases the yaw velocity towards the requested speed so the camera
// starts and stops smoothly.
type orbit struct {
	yaw      float64
	velocity float64
	accel    float64
	spring   harmonica.Spring
}

func newOrbit() orbit {
	return orbit{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (o *orbit) Update(target float64) {
	o.velocity, o.accel = o.spring.Update(o.velocity, o.accel, target)
	o.yaw += o.velocity
}

type App struct {
	Options Options
	Logger  lumen.Logger
	Engine  *lumen.Engine
	Camera  *core.CameraState

	camera lumen.CameraID
	orbit  orbit

	FrameCount int
	FPS        float64
	frameTime  time.Duration
}

func NewApp(opts Options) *App {
	logger := lumen.NewDefaultLogger("lightrt", opts.Debug)
	return &App{
		Options: opts,
		Logger:  logger,
		Camera:  core.NewCameraState(),
		orbit:   newOrbit(),
	}
}

func (a *App) Init() error {
	engine, err := lumen.NewEngine(
		lumen.WithLogger(a.Logger),
		lumen.WithWorkers(a.Options.Workers),
		lumen.WithSeed(a.Options.Seed),
	)
	if err != nil {
		return err
	}
	a.Engine = engine

	if err := a.loadScene(); err != nil {
		return err
	}

	id, err := a.Engine.CreateCamera(a.cameraConfig())
	if err != nil {
		return err
	}
	a.camera = id
	return nil
}

func (a *App) loadScene() error {
	if a.Options.ScenePath == "" {
		tris, mats, lights := DefaultScene()
		a.Engine.SetGeometry(tris, mats)
		for _, l := range lights {
			a.Engine.AddLight(l)
		}
		a.Engine.SetWorld(core.World{Sky: mgl32.Vec3{0.02, 0.02, 0.03}})
		return nil
	}

	scene, err := loader.Load(a.Options.ScenePath)
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(a.Options.ScenePath), err)
	}
	a.Engine.SetGeometry(scene.Triangles, scene.Materials)
	a.Engine.SetWorld(core.World{Sky: mgl32.Vec3{0.5, 0.6, 0.8}})

	// frame the loaded geometry with a light above it
	lo, hi := bounds(scene.Triangles)
	center := lo.Add(hi).Mul(0.5)
	extent := hi.Sub(lo).Len()
	a.Camera.Target = center
	a.Camera.Distance = max(extent, 1)
	a.Engine.AddLight(core.NewPointLight(center.Add(mgl32.Vec3{0, extent, 0}), extent*0.05, mgl32.Vec3{20, 20, 20}, extent*4))
	return nil
}

func bounds(tris []core.Triangle) (mgl32.Vec3, mgl32.Vec3) {
	lo := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := lo.Mul(-1)
	for i := range tris {
		tlo, thi := tris[i].Bounds()
		lo = core.MinVec3(lo, tlo)
		hi = core.MaxVec3(hi, thi)
	}
	return lo, hi
}

func (a *App) cameraConfig() camera.Config {
	return camera.Config{
		Position: a.Camera.Eye(),
		Target:   a.Camera.Target,
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     a.Camera.FovY,
		Viewport: core.Viewport{Width: a.Options.Width, Height: a.Options.Height},
	}
}

// Resize changes the output size from the next frame on.
func (a *App) Resize(w, h uint32) error {
	a.Options.Width, a.Options.Height = w, h
	return a.Engine.UpdateCamera(a.camera, a.cameraConfig())
}

// Update advances the orbit by one frame.
func (a *App) Update() error {
	a.orbit.Update(a.Options.OrbitSpeed)
	a.Camera.Yaw = float32(a.orbit.yaw)
	return a.Engine.UpdateCamera(a.camera, a.cameraConfig())
}

func (a *App) Render(ctx context.Context) error {
	start := time.Now()
	if err := a.Engine.Render(ctx); err != nil {
		return err
	}
	a.frameTime = time.Since(start)
	a.FrameCount++
	if a.frameTime > 0 {
		a.FPS = 1 / a.frameTime.Seconds()
	}

	if a.Logger.DebugEnabled() {
		if p, err := a.Engine.Profiler(a.camera); err == nil {
			a.Logger.Debugf("\n%s", p.Report())
		}
	}
	return nil
}

// Snapshot writes the last frame to path, with frame stats in the corner.
func (a *App) Snapshot(path string) error {
	out, err := a.Engine.Outputs(a.camera)
	if err != nil {
		return err
	}
	img := Compose(out, a.Options.Exposure)
	stats := fmt.Sprintf("frame %d\n%.1f ms (%.1f fps)", a.FrameCount, float64(a.frameTime.Microseconds())/1000, a.FPS)
	DrawText(img, stats, 4, 13, color.RGBA{255, 255, 0, 255})

	if err := WritePNG(path, img); err != nil {
		return err
	}
	a.Logger.Infof("Wrote %s", path)
	return nil
}

func (a *App) Close() {
	if a.Engine != nil {
		a.Engine.Close()
	}
}
