package kernels

import (
	"context"
	"testing"

	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const giFixtureFrame = 3

// giSample reconnects the origin to a point 2 units above it; seen from the
// origin its Jacobian is 1.
func giSample() restir.GiSample {
	return restir.GiSample{
		SamplePoint:  mgl32.Vec3{0, 2, 0},
		SampleNormal: mgl32.Vec3{0, -1, 0},
		Radiance:     mgl32.Vec3{1, 1, 1},
	}
}

// farSample was produced 22 units from its sample point, so reusing it at
// the origin needs a Jacobian of 121.
func farSample() restir.GiSample {
	s := giSample()
	s.VisiblePoint = mgl32.Vec3{0, -20, 0}
	return s
}

func originGBuffer() *GBuffer {
	gbuffer := gpu.NewTexture[core.Surface]("gbuffer", 8, 8)
	surface := core.Surface{Normal: mgl32.Vec3{0, 1, 0}, Depth: 2, Albedo: mgl32.Vec3{1, 1, 1}}
	for i := range gbuffer.Data() {
		gbuffer.Data()[i] = surface
	}
	return gbuffer
}

func dispatchOne(t *testing.T, prog shaders.Program) {
	err := gpu.NewDevice(1).Dispatch(context.Background(), [2]uint32{1, 1}, func(inv *gpu.Invocation) {
		prog(inv, shaders.PassParams{Seed: 1, Frame: giFixtureFrame})
	})
	require.NoError(t, err)
}

type giTemporalFixture struct {
	reprojection *Reprojections
	candidates   *GiCandidates
	history      *GiReservoirs
	out          *GiReservoirs
	program      shaders.Program
}

func newGiTemporalFixture(t *testing.T) *giTemporalFixture {
	f := &giTemporalFixture{
		reprojection: gpu.NewTexture[core.Reprojection]("reprojection", 8, 8),
		candidates:   gpu.NewTexture[restir.GiCandidate]("candidates", 8, 8),
		history:      gpu.NewTexture[restir.GiReservoir]("history", 8, 8),
		out:          gpu.NewTexture[restir.GiReservoir]("out", 8, 8),
	}

	fresh := restir.GiCandidate{
		Frame:     giFixtureFrame,
		Valid:     true,
		Reservoir: restir.GiReservoir{Sample: giSample(), M: 1, W: 1, WSum: 1, TargetPdf: 1},
	}
	old := restir.GiReservoir{Sample: giSample(), M: 25, W: 1, WSum: 25, TargetPdf: 1}
	for i := range f.candidates.Data() {
		f.candidates.Data()[i] = fresh
		f.history.Data()[i] = old
	}

	k, err := NewCompiler().Compile(shaders.GiTemporalResampling)
	require.NoError(t, err)
	f.program, err = k.Bind([][]gpu.BindEntry{
		{{Resource: gpu.NewUniform("config", restir.DefaultConfig()), Access: gpu.Read}},
		{
			{Resource: originGBuffer(), Access: gpu.Read},
			{Resource: f.reprojection, Access: gpu.Read},
			{Resource: f.candidates, Access: gpu.Read},
			{Resource: f.history, Access: gpu.Read},
			{Resource: f.out, Access: gpu.Write},
		},
	})
	require.NoError(t, err)
	return f
}

func (f *giTemporalFixture) valid(x, y uint32) {
	f.reprojection.Set(x, y, core.Reprojection{Prev: [2]uint32{x, y}, Valid: true})
}

func TestGiTemporalDisocclusionKeepsFreshM(t *testing.T) {
	f := newGiTemporalFixture(t)
	dispatchOne(t, f.program)

	for i, r := range f.out.Data() {
		require.Equal(t, float32(1), r.M, "pixel %d inherited history", i)
	}
}

func TestGiTemporalMergesValidHistory(t *testing.T) {
	f := newGiTemporalFixture(t)
	f.valid(2, 3)
	f.valid(4, 4)
	f.history.Ptr(4, 4).M = 400
	dispatchOne(t, f.program)

	assert.Equal(t, float32(26), f.out.At(2, 3).M)
	assert.Equal(t, restir.DefaultConfig().GiMaxM, f.out.At(4, 4).M, "history is capped")
	assert.InDelta(t, 1, f.out.At(2, 3).W, 1e-5)
}

func TestGiTemporalIgnoresStaleCandidates(t *testing.T) {
	f := newGiTemporalFixture(t)
	f.candidates.Ptr(1, 1).Frame = giFixtureFrame - 1
	f.candidates.Ptr(6, 6).Frame = giFixtureFrame - 1
	f.valid(6, 6)
	dispatchOne(t, f.program)

	assert.True(t, f.out.Ptr(1, 1).IsEmpty(), "a stale candidate must not become this frame's sample")
	assert.Equal(t, float32(0), f.out.At(1, 1).M)
	// only history is left to merge
	assert.Equal(t, float32(25), f.out.At(6, 6).M)
}

func TestGiTemporalRejectsExtremeJacobian(t *testing.T) {
	f := newGiTemporalFixture(t)
	f.valid(5, 5)
	f.history.Ptr(5, 5).Sample = farSample()
	dispatchOne(t, f.program)

	assert.Equal(t, float32(1), f.out.At(5, 5).M)
}

func TestGiSpatialDropsExtremeJacobian(t *testing.T) {
	gbuffer := originGBuffer()
	picks := gpu.NewTexture[restir.Neighbors]("picks", 8, 8)
	temporal := gpu.NewTexture[restir.GiReservoir]("temporal", 8, 8)
	samples := gpu.NewTexture[restir.SpatialSamples]("samples", 8, 8)
	out := gpu.NewTexture[restir.GiReservoir]("out", 8, 8)

	near := restir.GiReservoir{Sample: giSample(), M: 4, W: 1, WSum: 4, TargetPdf: 1}
	far := restir.GiReservoir{Sample: farSample(), M: 7, W: 1, WSum: 7, TargetPdf: 1}
	temporal.Set(0, 0, restir.GiReservoir{Sample: giSample(), M: 1, W: 1, WSum: 1, TargetPdf: 1})
	temporal.Set(1, 0, near)
	temporal.Set(2, 0, far)

	var n restir.Neighbors
	n.Add([2]uint32{1, 0})
	n.Add([2]uint32{2, 0})
	picks.Set(0, 0, n)

	sampleK, err := NewCompiler().Compile(shaders.GiSpatialResamplingSample)
	require.NoError(t, err)
	sampleProg, err := sampleK.Bind([][]gpu.BindEntry{
		{},
		{
			{Resource: gbuffer, Access: gpu.Read},
			{Resource: picks, Access: gpu.Read},
			{Resource: temporal, Access: gpu.Read},
			{Resource: samples, Access: gpu.Write},
		},
	})
	require.NoError(t, err)
	dispatchOne(t, sampleProg)

	got := samples.At(0, 0)
	assert.InDelta(t, 1, got.TargetPdf[0], 1e-5)
	assert.InDelta(t, 1, got.Jacobian[0], 1e-5)
	assert.Equal(t, float32(0), got.TargetPdf[1], "a neighbor with J = 121 must be rejected")

	tris := gpu.NewStorage[core.Triangle]("triangles")
	nodes := gpu.NewStorage[bvh.BVHNode]("nodes")
	nodes.Write(bvh.NewBuilder().Build(nil).Nodes)

	traceK, err := NewCompiler().Compile(shaders.GiSpatialResamplingTrace)
	require.NoError(t, err)
	traceProg, err := traceK.Bind([][]gpu.BindEntry{
		{
			{Resource: tris, Access: gpu.Read},
			{Resource: nodes, Access: gpu.Read},
			{Resource: gpu.NewUniform("config", restir.DefaultConfig()), Access: gpu.Read},
		},
		{
			{Resource: gbuffer, Access: gpu.Read},
			{Resource: temporal, Access: gpu.Read},
			{Resource: samples, Access: gpu.Read},
			{Resource: out, Access: gpu.Write},
		},
	})
	require.NoError(t, err)
	dispatchOne(t, traceProg)

	// own M plus the near neighbor only
	assert.Equal(t, float32(5), out.At(0, 0).M)
	assert.InDelta(t, 1, out.At(0, 0).W, 1e-5)
}
