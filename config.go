package lumen

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
)

type Config struct {
	Logger Logger
	// Workers is the number of goroutines the compute device runs
	// workgroups on; 0 means one per CPU.
	Workers int
	// Seed drives the per-frame seeds; equal seeds render equal frames.
	Seed uint64
	// GPU, when set, receives a copy of the scene in storage buffers.
	GPU      *wgpu.Device
	Compiler shaders.Compiler
	Restir   restir.Config
}

func DefaultConfig() Config {
	return Config{
		Logger: NewNopLogger(),
		Seed:   1,
		Restir: restir.DefaultConfig(),
	}
}

type Option func(*Config)

func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

func WithDevice(device *wgpu.Device) Option {
	return func(c *Config) { c.GPU = device }
}

// WithCompiler replaces the kernel compiler, e.g. to register instrumented
// kernels in tests.
func WithCompiler(compiler shaders.Compiler) Option {
	return func(c *Config) { c.Compiler = compiler }
}

func WithRestir(cfg restir.Config) Option {
	return func(c *Config) { c.Restir = cfg }
}
