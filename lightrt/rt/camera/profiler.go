package camera

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PassTiming is the CPU time spent in one pass.
type PassTiming struct {
	Name string
	Last time.Duration // set by the most recent Begin/End pair
	Mean time.Duration // over every committed frame
	Max  time.Duration

	frames int
}

// Profiler times the passes of a camera. Timings of a frame only enter the
// running statistics once CommitFrame is called, so a dropped frame leaves
// Mean and Max untouched.
type Profiler struct {
	Counts map[string]int

	passes []PassTiming
	index  map[string]int
	starts map[string]time.Time
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Counts: make(map[string]int),
		index:  make(map[string]int),
		starts: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Begin starts timing a pass. Passes are reported in first-seen order.
func (p *Profiler) Begin(pass string) {
	if _, ok := p.index[pass]; !ok {
		p.index[pass] = len(p.passes)
		p.passes = append(p.passes, PassTiming{Name: pass})
	}
	p.starts[pass] = p.now()
}

func (p *Profiler) End(pass string) {
	start, ok := p.starts[pass]
	if !ok {
		return
	}
	delete(p.starts, pass)
	p.passes[p.index[pass]].Last = p.now().Sub(start)
}

// StartFrame clears the last frame's timings.
func (p *Profiler) StartFrame() {
	for i := range p.passes {
		p.passes[i].Last = 0
	}
	clear(p.starts)
}

// CommitFrame folds the last timings into the per-pass statistics.
func (p *Profiler) CommitFrame() {
	for i := range p.passes {
		t := &p.passes[i]
		t.frames++
		t.Mean += (t.Last - t.Mean) / time.Duration(t.frames)
		t.Max = max(t.Max, t.Last)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Pass returns the timing of one pass.
func (p *Profiler) Pass(name string) (PassTiming, bool) {
	i, ok := p.index[name]
	if !ok {
		return PassTiming{}, false
	}
	return p.passes[i], true
}

func (p *Profiler) Passes() []PassTiming {
	return append([]PassTiming(nil), p.passes...)
}

// Total is the time of the last frame.
func (p *Profiler) Total() time.Duration {
	var total time.Duration
	for _, t := range p.passes {
		total += t.Last
	}
	return total
}

// Slowest returns the pass with the highest mean, or false before the first
// committed frame.
func (p *Profiler) Slowest() (PassTiming, bool) {
	var best PassTiming
	found := false
	for _, t := range p.passes {
		if t.frames > 0 && (!found || t.Mean > best.Mean) {
			best, found = t, true
		}
	}
	return best, found
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// Report renders the per-pass table followed by the counters.
func (p *Profiler) Report() string {
	var sb strings.Builder

	total := p.Total()
	fmt.Fprintf(&sb, "%-28s %9s %9s %9s %6s\n", "pass (CPU)", "last ms", "mean ms", "max ms", "share")
	for _, t := range p.passes {
		share := 0.0
		if total > 0 {
			share = 100 * float64(t.Last) / float64(total)
		}
		fmt.Fprintf(&sb, "%-28s %9.2f %9.2f %9.2f %5.1f%%\n", t.Name, ms(t.Last), ms(t.Mean), ms(t.Max), share)
	}
	fmt.Fprintf(&sb, "%-28s %9.2f\n", "total", ms(total))

	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-28s %9d\n", k, p.Counts[k])
	}
	return sb.String()
}
