// Package kernels holds the per-invocation programs of every pass and the
// compiler that hands them to the kernel registry.
package kernels

import (
	"errors"
	"fmt"

	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
)

var ErrBadBinding = errors.New("bad binding")

// Bind groups of every kernel.
const (
	groupScene  = 0
	groupCamera = 1
)

type kernel struct {
	name   string
	layout [][]shaders.BindingLayout
	bind   func(b *binder) shaders.Program
}

func (k *kernel) Name() string                      { return k.name }
func (k *kernel) Layout() [][]shaders.BindingLayout { return k.layout }

func (k *kernel) Bind(groups [][]gpu.BindEntry) (shaders.Program, error) {
	b := &binder{groups: groups}
	prog := k.bind(b)
	if b.err != nil {
		return nil, fmt.Errorf("%s: %w", k.name, b.err)
	}
	return prog, nil
}

type binder struct {
	groups [][]gpu.BindEntry
	err    error
}

func get[T gpu.Resource](b *binder, group, binding int) T {
	var zero T
	if b.err != nil {
		return zero
	}
	if group >= len(b.groups) || binding >= len(b.groups[group]) {
		b.err = fmt.Errorf("%w: missing @group(%d) @binding(%d)", ErrBadBinding, group, binding)
		return zero
	}
	r, ok := b.groups[group][binding].Resource.(T)
	if !ok {
		b.err = fmt.Errorf("%w: @group(%d) @binding(%d) is %T, want %T",
			ErrBadBinding, group, binding, b.groups[group][binding].Resource, zero)
		return zero
	}
	return r
}

// Compiler builds the CPU kernels by pass name.
type Compiler struct {
	table map[string]func() *kernel
}

func NewCompiler() *Compiler {
	return &Compiler{
		table: map[string]func() *kernel{
			shaders.PrimTracing:               primTracing,
			shaders.PrimShading:               primShading,
			shaders.FrameReprojection:         frameReprojection,
			shaders.DiSampling:                diSampling,
			shaders.DiTemporalResampling:      diTemporalResampling,
			shaders.DiSpatialResamplingPick:   diSpatialPick,
			shaders.DiSpatialResamplingSample: diSpatialSample,
			shaders.DiSpatialResamplingTrace:  diSpatialTrace,
			shaders.DiResolving:               diResolving,
			shaders.GiSamplingA:               giSamplingA,
			shaders.GiSamplingB:               giSamplingB,
			shaders.GiTemporalResampling:      giTemporalResampling,
			shaders.GiSpatialResamplingPick:   giSpatialPick,
			shaders.GiSpatialResamplingSample: giSpatialSample,
			shaders.GiSpatialResamplingTrace:  giSpatialTrace,
			shaders.GiResolving:               giResolving,
		},
	}
}

func (c *Compiler) Compile(name string) (shaders.Kernel, error) {
	build, ok := c.table[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shaders.ErrUnknownKernel, name)
	}
	return build(), nil
}

// NewRegistry returns a registry holding every pass kernel.
func NewRegistry() (*shaders.Registry, error) {
	r := shaders.NewRegistry()
	if err := shaders.Populate(r, NewCompiler(), shaders.Passes); err != nil {
		return nil, err
	}
	return r, nil
}
