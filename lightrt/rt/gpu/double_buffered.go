package gpu

// Alternation is the frame parity shared by every double-buffered resource
// of one camera. Flipping it swaps current and past everywhere at once.
type Alternation struct {
	alternate bool
}

func (a *Alternation) Get() bool { return a.alternate }
func (a *Alternation) Flip()     { a.alternate = !a.alternate }

type FlushOutcome struct {
	Reallocated bool
}

// DoubleBuffered holds two physical instances of a resource; which one is
// current depends on the shared alternation. Nothing is copied on a flip.
type DoubleBuffered[T Resource] struct {
	a, b T
	alt  *Alternation
}

func NewDoubleBuffered[T Resource](alt *Alternation, a, b T) *DoubleBuffered[T] {
	return &DoubleBuffered[T]{a: a, b: b, alt: alt}
}

func (d *DoubleBuffered[T]) Get(alternate bool) T {
	if alternate {
		return d.b
	}
	return d.a
}

func (d *DoubleBuffered[T]) Current() T { return d.Get(d.alt.Get()) }
func (d *DoubleBuffered[T]) Past() T    { return d.Get(!d.alt.Get()) }

// Resize reallocates both instances. Reallocated tells the owner that
// every binding built against this resource must be rebuilt.
func (d *DoubleBuffered[T]) Resize(width, height uint32) FlushOutcome {
	var out FlushOutcome
	for _, r := range []T{d.a, d.b} {
		if rz, ok := any(r).(Resizable); ok && rz.Resize(width, height) {
			out.Reallocated = true
		}
	}
	return out
}

type doubleBinding[T Resource] struct {
	buf    *DoubleBuffered[T]
	past   bool
	access Access
}

func (b doubleBinding[T]) Resolve(alternate bool) BindEntry {
	if b.past {
		alternate = !alternate
	}
	return BindEntry{Resource: b.buf.Get(alternate), Access: b.access}
}

func (d *DoubleBuffered[T]) BindCurrReadable() Binding {
	return doubleBinding[T]{buf: d, access: Read}
}

func (d *DoubleBuffered[T]) BindCurrWritable() Binding {
	return doubleBinding[T]{buf: d, access: Write}
}

// BindPastReadable is the only way to bind the past instance; past state
// is never written.
func (d *DoubleBuffered[T]) BindPastReadable() Binding {
	return doubleBinding[T]{buf: d, past: true, access: Read}
}
