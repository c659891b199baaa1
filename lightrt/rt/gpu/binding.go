package gpu

import "fmt"

type Access uint8

const (
	Read Access = iota
	Write
)

func (a Access) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// BindEntry is a resolved binding: the physical resource a kernel sees.
type BindEntry struct {
	Resource Resource
	Access   Access
}

func (e BindEntry) String() string {
	return fmt.Sprintf("%s(%s)", e.Resource.Label(), e.Access)
}

// Binding resolves to a concrete entry for a given alternation, so bind
// groups can be built once for both frames of the double buffer.
type Binding interface {
	Resolve(alternate bool) BindEntry
}

type staticBinding BindEntry

func (b staticBinding) Resolve(bool) BindEntry { return BindEntry(b) }

func BindReadable(r Resource) Binding {
	return staticBinding{Resource: r, Access: Read}
}

func BindWritable(r Resource) Binding {
	return staticBinding{Resource: r, Access: Write}
}
