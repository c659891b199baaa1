package shaders

import (
	"fmt"
	"reflect"

	"github.com/gekko3d/lumen/lightrt/rt/gpu"
)

// PassParams are the push constants of every pass.
type PassParams struct {
	Seed  uint32
	Frame uint32
}

// BindingLayout is what a kernel expects at one binding slot.
type BindingLayout struct {
	Type   reflect.Type
	Access gpu.Access
}

func (l BindingLayout) String() string {
	return fmt.Sprintf("%s(%s)", l.Type, l.Access)
}

// Matches reports whether entry can be bound at this slot.
func (l BindingLayout) Matches(entry gpu.BindEntry) bool {
	return entry.Resource != nil &&
		reflect.TypeOf(entry.Resource) == l.Type &&
		entry.Access == l.Access
}

func Read[T gpu.Resource]() BindingLayout {
	return BindingLayout{Type: reflect.TypeFor[T](), Access: gpu.Read}
}

func Write[T gpu.Resource]() BindingLayout {
	return BindingLayout{Type: reflect.TypeFor[T](), Access: gpu.Write}
}

// Program is a kernel bound to concrete resources.
type Program func(inv *gpu.Invocation, params PassParams)

// Kernel is a compiled pass entry point.
type Kernel interface {
	Name() string
	// Layout lists the bind groups and, per group, the binding slots.
	Layout() [][]BindingLayout
	// Bind resolves a program against entries that already match Layout.
	Bind(groups [][]gpu.BindEntry) (Program, error)
}

// Compiler produces the kernel of a named pass.
type Compiler interface {
	Compile(name string) (Kernel, error)
}
