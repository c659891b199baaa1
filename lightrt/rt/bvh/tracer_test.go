package bvh

import (
	"math/rand"
	"testing"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// quads builds n axis-aligned unit squares facing +Z at z = -1, -2, ..., -n,
// shifted on x so only some overlap.
func quads(n int) []core.Triangle {
	var tris []core.Triangle
	for i := 0; i < n; i++ {
		z := float32(-(i + 1))
		x := float32(i%3) * 0.5
		a := mgl32.Vec3{x - 1, -1, z}
		b := mgl32.Vec3{x + 1, -1, z}
		c := mgl32.Vec3{x + 1, 1, z}
		d := mgl32.Vec3{x - 1, 1, z}
		tris = append(tris,
			core.NewFlatTriangle(a, b, c, uint32(i)),
			core.NewFlatTriangle(a, c, d, uint32(i)),
		)
	}
	return tris
}

// nearestZ is the closed form answer for a ray parallel to -Z starting at z=0.
func nearestZ(n int, x, y float32) (float32, bool) {
	if y < -1 || y > 1 {
		return 0, false
	}
	for i := 0; i < n; i++ {
		cx := float32(i%3) * 0.5
		if x >= cx-1 && x <= cx+1 {
			return float32(i + 1), true
		}
	}
	return 0, false
}

func nearEdge(x, y float32) bool {
	const eps = 1e-3
	if mgl32.Abs(mgl32.Abs(y)-1) < eps {
		return true
	}
	for _, cx := range []float32{0, 0.5, 1} {
		if mgl32.Abs(x-(cx-1)) < eps || mgl32.Abs(x-(cx+1)) < eps || mgl32.Abs(y-(x-cx)) < eps {
			return true
		}
	}
	return false
}

func TestTraceNearestMatchesClosedForm(t *testing.T) {
	const n = 40
	view := NewBuilder().Build(quads(n)).View()
	var stack Stack

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		x := rng.Float32()*5 - 2
		y := rng.Float32()*2.4 - 1.2

		// stay clear of the edges where float noise decides the answer
		if nearEdge(x, y) {
			continue
		}
		ray := core.NewRay(mgl32.Vec3{x, y, 0}, mgl32.Vec3{0, 0, -1})
		hit := view.TraceNearest(ray, &stack)

		want, ok := nearestZ(n, x, y)
		if !ok {
			if !hit.IsNone() {
				t.Fatalf("ray at (%f, %f): expected miss, got %+v", x, y, hit)
			}
			continue
		}
		if hit.IsNone() {
			t.Fatalf("ray at (%f, %f): expected hit at %f, got none", x, y, want)
		}
		if mgl32.Abs(hit.Distance-want) > 1e-4 {
			t.Fatalf("ray at (%f, %f): expected distance %f, got %f", x, y, want, hit.Distance)
		}
		if hit.Normal.Dot(ray.Direction) > 0 {
			t.Fatalf("normal %v faces away from the ray", hit.Normal)
		}
	}
}

func TestTraceMisses(t *testing.T) {
	view := NewBuilder().Build(quads(10)).View()
	var stack Stack

	rays := []core.Ray{
		core.NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}),
		core.NewRay(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 0, -1}),
		core.NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
	}
	for _, r := range rays {
		if hit := view.TraceNearest(r, &stack); !hit.IsNone() {
			t.Errorf("ray %+v: expected miss, got %+v", r, hit)
		}
		if view.TraceAny(r, 100, &stack) {
			t.Errorf("ray %+v: expected no occluder", r)
		}
	}
}

func TestTraceAnyRespectsDistance(t *testing.T) {
	view := NewBuilder().Build(quads(1)).View()
	var stack Stack
	ray := core.NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})

	if !view.TraceAny(ray, 2, &stack) {
		t.Error("quad at distance 1 should occlude up to 2")
	}
	if view.TraceAny(ray, 0.5, &stack) {
		t.Error("quad at distance 1 should not occlude up to 0.5")
	}
}

func TestEmptyScene(t *testing.T) {
	b := NewBuilder().Build(nil)
	if len(b.Nodes) != 1 || !b.Nodes[0].IsLeaf() || b.Nodes[0].LeafCount != 0 {
		t.Fatalf("unexpected empty tree %+v", b.Nodes)
	}
	var stack Stack
	hit := b.View().TraceNearest(core.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}), &stack)
	if !hit.IsNone() {
		t.Errorf("empty scene returned a hit: %+v", hit)
	}
}

func TestStackBounded(t *testing.T) {
	var s Stack
	for i := 0; i < MaxDepth+1; i++ {
		if !s.Push(int32(i)) {
			t.Fatalf("push %d failed", i)
		}
	}
	if s.Push(99) {
		t.Error("push beyond capacity should fail")
	}
	if v, _ := s.Pop(); v != MaxDepth {
		t.Errorf("expected %d on top, got %d", MaxDepth, v)
	}
}
