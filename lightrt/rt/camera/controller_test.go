package camera

import (
	"context"
	"testing"

	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/kernels"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Debugf(format string, args ...any) { l.t.Logf("DEBUG: "+format, args...) }
func (l testLogger) Infof(format string, args ...any)  { l.t.Logf("INFO: "+format, args...) }
func (l testLogger) Warnf(format string, args ...any)  { l.t.Logf("WARN: "+format, args...) }

var testAlbedo = mgl32.Vec3{0.8, 0.8, 0.8}

// litTriangleScene is one large triangle in the z=0 plane lit by a point
// light between it and the camera.
func litTriangleScene(t *testing.T) (*SceneBuffers, core.GpuLight) {
	scene := NewSceneBuffers(restir.DefaultConfig())

	tri := core.NewFlatTriangle(mgl32.Vec3{-10, -10, 0}, mgl32.Vec3{10, -10, 0}, mgl32.Vec3{0, 10, 0}, 0)
	tree := bvh.NewBuilder().Build([]core.Triangle{tri})
	scene.Triangles.Write(tree.Triangles)
	scene.Nodes.Write(tree.Nodes)
	scene.Materials.Write([]core.Material{core.NewMaterial(testAlbedo, mgl32.Vec3{})})

	light := core.NewPointLight(mgl32.Vec3{0, 0, 2}, 0, mgl32.Vec3{5, 5, 5}, 100).Serialize()
	scene.Lights.Write([]core.GpuLight{light})
	return scene, light
}

func testCamera(w, h uint32) Config {
	return Config{
		Position: mgl32.Vec3{0, 0, 3},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     mgl32.DegToRad(50),
		Viewport: core.Viewport{Width: w, Height: h},
	}
}

func newTestController(t *testing.T, scene *SceneBuffers, cfg Config) *Controller {
	registry, err := kernels.NewRegistry()
	require.NoError(t, err)
	c, err := NewController(testLogger{t}, gpu.NewDevice(4), registry, scene, cfg)
	require.NoError(t, err)
	return c
}

func TestFirstFrameMatchesAnalyticDirectLight(t *testing.T) {
	scene, light := litTriangleScene(t)
	c := newTestController(t, scene, testCamera(16, 16))

	require.NoError(t, c.Run(context.Background(), 0, 1234))

	out := c.Outputs()
	lit := 0
	for y := uint32(0); y < 16; y++ {
		for x := uint32(0); x < 16; x++ {
			s := out.GBuffer.Ptr(x, y)
			if s.IsNone() {
				continue
			}
			lit++

			_, want, _ := restir.DiTarget(&light, mgl32.Vec2{}, s)
			got := out.Direct.At(x, y)

			require.Greater(t, got.X(), float32(0), "pixel (%d, %d)", x, y)
			assert.InEpsilon(t, want.X(), got.X(), 1e-3, "pixel (%d, %d)", x, y)
			assert.InEpsilon(t, want.Z(), got.Z(), 1e-3, "pixel (%d, %d)", x, y)
		}
	}
	assert.Greater(t, lit, 128, "the triangle should cover most of the view")
}

func TestHistoryStaysCapped(t *testing.T) {
	scene, _ := litTriangleScene(t)
	c := newTestController(t, scene, testCamera(16, 16))
	cfg := restir.DefaultConfig()

	for frame := uint32(0); frame < 30; frame++ {
		require.NoError(t, c.Run(context.Background(), frame, 77+frame))

		out := c.Outputs()
		for i, r := range out.DiReservoirs.Data() {
			require.LessOrEqual(t, r.M, cfg.DiMaxM, "frame %d pixel %d", frame, i)
		}
		for i, r := range out.GiReservoirs.Data() {
			require.LessOrEqual(t, r.M, cfg.GiMaxM, "frame %d pixel %d", frame, i)
		}
	}

	// a static camera keeps reprojecting onto itself, so history must build up
	assert.Equal(t, cfg.DiMaxM, c.Outputs().DiReservoirs.At(8, 8).M)
	assert.Equal(t, uint64(30), c.Frames())
}

func TestFramesAlternateBuffers(t *testing.T) {
	scene, _ := litTriangleScene(t)
	c := newTestController(t, scene, testCamera(8, 8))
	b := c.Buffers()

	before := b.DiReservoirs.Current()
	require.NoError(t, c.Run(context.Background(), 0, 1))
	assert.Same(t, before, b.DiReservoirs.Past())
	assert.Same(t, before, c.Outputs().DiReservoirs)
}

func TestResizeRequiresRebuild(t *testing.T) {
	scene, _ := litTriangleScene(t)
	c := newTestController(t, scene, testCamera(8, 8))
	require.NoError(t, c.Run(context.Background(), 0, 1))

	same := testCamera(8, 8)
	same.Position = mgl32.Vec3{0, 0, 2.5}
	assert.False(t, c.SetCamera(same.Camera()).Reallocated)
	require.NoError(t, c.Run(context.Background(), 1, 1))

	out := c.SetCamera(testCamera(24, 8).Camera())
	require.True(t, out.Reallocated)
	assert.ErrorIs(t, c.Run(context.Background(), 2, 1), ErrStaleBindings)

	require.NoError(t, c.Rebuild())
	require.NoError(t, c.Run(context.Background(), 2, 1))
	assert.Equal(t, uint32(24), c.Outputs().Direct.Width())
	assert.Equal(t, uint32(12), c.Buffers().GiHits.Width())
}

func TestCancelledFrameIsDropped(t *testing.T) {
	scene, _ := litTriangleScene(t)
	c := newTestController(t, scene, testCamera(8, 8))
	alt := c.Buffers().Alternation().Get()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, alt, c.Buffers().Alternation().Get(), "a dropped frame must not flip")
	assert.Equal(t, uint64(0), c.Frames())
}

func TestLayoutMismatchIsFatal(t *testing.T) {
	scene, _ := litTriangleScene(t)
	registry, err := kernels.NewRegistry()
	require.NoError(t, err)
	b := NewBuffers(core.Viewport{Width: 8, Height: 8})

	// swapped scene bindings
	_, err = NewPass(shaders.PrimTracing).
		Bind(gpu.BindReadable(scene.Nodes), gpu.BindReadable(scene.Triangles)).
		Bind(b.Camera.BindCurrReadable(), b.Hits.BindCurrWritable()).
		Build(registry)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	// writable slot bound read-only
	_, err = NewPass(shaders.PrimTracing).
		Bind(gpu.BindReadable(scene.Triangles), gpu.BindReadable(scene.Nodes)).
		Bind(b.Camera.BindCurrReadable(), b.Hits.BindCurrReadable()).
		Build(registry)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	// missing group
	_, err = NewPass(shaders.PrimTracing).
		Bind(gpu.BindReadable(scene.Triangles), gpu.BindReadable(scene.Nodes)).
		Build(registry)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	_, err = NewPass("denoise").Build(registry)
	assert.ErrorIs(t, err, shaders.ErrUnknownKernel)
}

func TestPassWorkgroups(t *testing.T) {
	vp := core.Viewport{Width: 100, Height: 50}
	full := &Pass{downsample: 1}
	half := &Pass{downsample: 2}

	assert.Equal(t, [2]uint32{13, 7}, full.Workgroups(vp))
	assert.Equal(t, [2]uint32{7, 4}, half.Workgroups(vp))
}
