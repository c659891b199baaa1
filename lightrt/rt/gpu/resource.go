package gpu

// Resource is anything a pass can bind.
type Resource interface {
	Label() string
}

// Resizable resources follow the viewport.
type Resizable interface {
	Resize(width, height uint32) bool
}

// Texture is a 2D grid of texels stored row-major.
type Texture[T any] struct {
	label  string
	width  uint32
	height uint32
	data   []T
}

func NewTexture[T any](label string, width, height uint32) *Texture[T] {
	return &Texture[T]{
		label:  label,
		width:  width,
		height: height,
		data:   make([]T, int(width)*int(height)),
	}
}

func (t *Texture[T]) Label() string  { return t.label }
func (t *Texture[T]) Width() uint32  { return t.width }
func (t *Texture[T]) Height() uint32 { return t.height }

func (t *Texture[T]) index(x, y uint32) int {
	return int(y)*int(t.width) + int(x)
}

func (t *Texture[T]) InBounds(x, y uint32) bool {
	return x < t.width && y < t.height
}

func (t *Texture[T]) At(x, y uint32) T {
	return t.data[t.index(x, y)]
}

func (t *Texture[T]) Ptr(x, y uint32) *T {
	return &t.data[t.index(x, y)]
}

func (t *Texture[T]) Set(x, y uint32, v T) {
	t.data[t.index(x, y)] = v
}

// Data exposes the texels; callers must treat it as read-only.
func (t *Texture[T]) Data() []T {
	return t.data
}

// Resize reallocates the texture, dropping its contents. It reports
// whether anything changed.
func (t *Texture[T]) Resize(width, height uint32) bool {
	if width == t.width && height == t.height {
		return false
	}
	t.width, t.height = width, height
	t.data = make([]T, int(width)*int(height))
	return true
}

func (t *Texture[T]) Clear() {
	clear(t.data)
}

// Storage is a linear buffer with a capacity that only grows.
type Storage[T any] struct {
	label string
	items []T
}

func NewStorage[T any](label string) *Storage[T] {
	return &Storage[T]{label: label}
}

func (s *Storage[T]) Label() string { return s.label }
func (s *Storage[T]) Len() int      { return len(s.items) }
func (s *Storage[T]) Items() []T    { return s.items }

func (s *Storage[T]) At(i uint32) *T {
	return &s.items[i]
}

// Write replaces the contents; true means the backing store was
// reallocated and bindings made against the old one are stale.
func (s *Storage[T]) Write(items []T) bool {
	reallocated := cap(s.items) < len(items)
	if reallocated {
		s.items = make([]T, len(items), len(items)+len(items)/4)
	} else {
		s.items = s.items[:len(items)]
	}
	copy(s.items, items)
	return reallocated
}

type Uniform[T any] struct {
	label string
	value T
}

func NewUniform[T any](label string, value T) *Uniform[T] {
	return &Uniform[T]{label: label, value: value}
}

func (u *Uniform[T]) Label() string { return u.label }
func (u *Uniform[T]) Get() *T       { return &u.value }
func (u *Uniform[T]) Set(v T)       { u.value = v }
