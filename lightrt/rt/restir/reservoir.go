// Package restir holds the reservoir model shared by direct and indirect
// resampling: weighted reservoir sampling, temporal/spatial merges, the
// target functions and the reconnection Jacobian.
package restir

import "github.com/gekko3d/lumen/lightrt/rt/core"

type Reservoir[S any] struct {
	Sample S
	WSum   float32
	M      float32
	W      float32

	// TargetPdf is p̂(Sample) in the domain the sample was last chosen in.
	TargetPdf float32
}

// Update streams a single candidate; u is a uniform random number in [0, 1).
func (r *Reservoir[S]) Update(sample S, weight, targetPdf, u float32) bool {
	r.M++
	if !(weight > 0) || !core.IsFinite(weight) {
		return false
	}
	r.WSum += weight
	if u*r.WSum < weight {
		r.Sample = sample
		r.TargetPdf = targetPdf
		return true
	}
	return false
}

// Merge streams another reservoir as one candidate. targetPdf is p̂ of the
// other reservoir's sample evaluated in this reservoir's domain.
func (r *Reservoir[S]) Merge(other Reservoir[S], targetPdf, jacobian, u float32) bool {
	r.M += other.M
	weight := targetPdf * jacobian * other.W * other.M
	if !(weight > 0) || !core.IsFinite(weight) {
		return false
	}
	r.WSum += weight
	if u*r.WSum < weight {
		r.Sample = other.Sample
		r.TargetPdf = targetPdf
		return true
	}
	return false
}

// Normalize resolves the contribution weight W = WSum / (p̂ · M).
func (r *Reservoir[S]) Normalize() {
	denom := r.TargetPdf * r.M
	if denom > 0 && r.WSum > 0 {
		r.W = r.WSum / denom
		if !core.IsFinite(r.W) {
			r.W = 0
		}
	} else {
		r.W = 0
	}
}

func (r *Reservoir[S]) ClampM(max float32) {
	if r.M > max {
		r.M = max
	}
}

func (r *Reservoir[S]) IsEmpty() bool {
	return r.W <= 0 || r.M <= 0
}

// Reset drops everything the reservoir accumulated.
func (r *Reservoir[S]) Reset() {
	*r = Reservoir[S]{}
}

// HistoryCap is how much M a history reservoir may bring into a merge
// with fresh so that the merged M stays within max.
func HistoryCap(fresh float32, max float32) float32 {
	if fresh >= max {
		return 0
	}
	return max - fresh
}
