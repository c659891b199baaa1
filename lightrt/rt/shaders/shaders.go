// Package shaders names the passes of a frame and keeps the table of
// compiled kernels the pipeline binds them to.
package shaders

const (
	PrimTracing       = "prim_tracing"
	PrimShading       = "prim_shading"
	FrameReprojection = "frame_reprojection"

	DiSampling                = "di_sampling"
	DiTemporalResampling      = "di_temporal_resampling"
	DiSpatialResamplingPick   = "di_spatial_resampling_pick"
	DiSpatialResamplingSample = "di_spatial_resampling_sample"
	DiSpatialResamplingTrace  = "di_spatial_resampling_trace"
	DiResolving               = "di_resolving"

	GiSamplingA               = "gi_sampling_a"
	GiSamplingB               = "gi_sampling_b"
	GiTemporalResampling      = "gi_temporal_resampling"
	GiSpatialResamplingPick   = "gi_spatial_resampling_pick"
	GiSpatialResamplingSample = "gi_spatial_resampling_sample"
	GiSpatialResamplingTrace  = "gi_spatial_resampling_trace"
	GiResolving               = "gi_resolving"
)

// Passes lists every pass in frame order.
var Passes = []string{
	PrimTracing,
	PrimShading,
	FrameReprojection,
	DiSampling,
	DiTemporalResampling,
	DiSpatialResamplingPick,
	DiSpatialResamplingSample,
	DiSpatialResamplingTrace,
	DiResolving,
	GiSamplingA,
	GiSamplingB,
	GiTemporalResampling,
	GiSpatialResamplingPick,
	GiSpatialResamplingSample,
	GiSpatialResamplingTrace,
	GiResolving,
}
