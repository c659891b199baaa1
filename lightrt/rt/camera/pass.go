package camera

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
)

var ErrLayoutMismatch = errors.New("binding does not match kernel layout")

// Pass is a kernel bound to this camera's resources for both alternations.
type Pass struct {
	name       string
	seedKey    string
	downsample uint32
	programs   [2]shaders.Program
}

func (p *Pass) Name() string { return p.name }

func (p *Pass) Workgroups(vp core.Viewport) [2]uint32 {
	ds := max(p.downsample, 1)
	return gpu.Workgroups((vp.Width+ds-1)/ds, (vp.Height+ds-1)/ds)
}

func (p *Pass) Run(ctx context.Context, dev *gpu.Device, alternate bool, vp core.Viewport, params shaders.PassParams) error {
	prog := p.programs[0]
	if alternate {
		prog = p.programs[1]
	}
	return dev.Dispatch(ctx, p.Workgroups(vp), func(inv *gpu.Invocation) {
		prog(inv, params)
	})
}

type PassBuilder struct {
	name       string
	seedKey    string
	downsample uint32
	groups     [][]gpu.Binding
}

func NewPass(name string) *PassBuilder {
	return &PassBuilder{name: name, seedKey: name, downsample: 1}
}

// Bind appends the next bind group.
func (b *PassBuilder) Bind(bindings ...gpu.Binding) *PassBuilder {
	b.groups = append(b.groups, bindings)
	return b
}

func (b *PassBuilder) Downsample(factor uint32) *PassBuilder {
	b.downsample = factor
	return b
}

// SeedFrom makes the pass draw the same random sequence as another pass.
func (b *PassBuilder) SeedFrom(name string) *PassBuilder {
	b.seedKey = name
	return b
}

// Build resolves the bindings for both alternations and checks them
// against the kernel's declared layout.
func (b *PassBuilder) Build(registry *shaders.Registry) (*Pass, error) {
	kernel, err := registry.Get(b.name)
	if err != nil {
		return nil, err
	}

	p := &Pass{name: b.name, seedKey: b.seedKey, downsample: b.downsample}
	for i, alternate := range []bool{false, true} {
		entries := make([][]gpu.BindEntry, len(b.groups))
		for g, group := range b.groups {
			entries[g] = make([]gpu.BindEntry, len(group))
			for n, binding := range group {
				entries[g][n] = binding.Resolve(alternate)
			}
		}
		if err := validate(b.name, kernel.Layout(), entries); err != nil {
			return nil, err
		}

		prog, err := kernel.Bind(entries)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLayoutMismatch, err)
		}
		p.programs[i] = prog
	}
	return p, nil
}

func validate(name string, layout [][]shaders.BindingLayout, entries [][]gpu.BindEntry) error {
	if len(layout) != len(entries) {
		return fmt.Errorf("%w: %s: expected %d bind groups, got %d", ErrLayoutMismatch, name, len(layout), len(entries))
	}
	for g := range layout {
		if len(layout[g]) != len(entries[g]) {
			return fmt.Errorf("%w: %s: @group(%d) expects %d bindings, got %d",
				ErrLayoutMismatch, name, g, len(layout[g]), len(entries[g]))
		}
		for n, want := range layout[g] {
			if !want.Matches(entries[g][n]) {
				return fmt.Errorf("%w: %s: @group(%d) @binding(%d): expected %s, got %s",
					ErrLayoutMismatch, name, g, n, want, describe(entries[g][n]))
			}
		}
	}
	return nil
}

func describe(e gpu.BindEntry) string {
	if e.Resource == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T(%s)", e.Resource, e.Access)
}
