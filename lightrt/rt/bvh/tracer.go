package bvh

import (
	"math"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const tMin = 1e-4

// View is a read-only handle over packed nodes and their triangles.
type View struct {
	Nodes     []BVHNode
	Triangles []core.Triangle
}

type rayBox struct {
	origin mgl32.Vec3
	inv    mgl32.Vec3
}

func newRayBox(ray core.Ray) rayBox {
	var inv mgl32.Vec3
	for i := 0; i < 3; i++ {
		d := ray.Direction[i]
		if mgl32.Abs(d) < 1e-12 {
			d = float32(math.Copysign(1e-12, float64(d)))
		}
		inv[i] = 1 / d
	}
	return rayBox{origin: ray.Origin, inv: inv}
}

// enter returns the distance at which the ray enters the node's box, if it
// does so before far.
func (r *rayBox) enter(n *BVHNode, far float32) (float32, bool) {
	tNear := float32(0)
	tFar := far
	for i := 0; i < 3; i++ {
		t0 := (n.Min[i] - r.origin[i]) * r.inv[i]
		t1 := (n.Max[i] - r.origin[i]) * r.inv[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tNear = max(tNear, t0)
		tFar = min(tFar, t1)
		if tNear > tFar {
			return 0, false
		}
	}
	return tNear, true
}

// TraceNearest returns the closest hit along the ray, or core.NoHit().
func (v View) TraceNearest(ray core.Ray, stack *Stack) core.Hit {
	nearest, tri, u, w := v.traverse(ray, math.MaxFloat32, false, stack)
	if tri < 0 {
		return core.NoHit()
	}

	t := &v.Triangles[tri]
	normal := t.Normal(u, w)
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Mul(-1)
	}
	return core.Hit{
		Point:    ray.At(nearest),
		Normal:   normal,
		UV:       t.UV(u, w),
		Material: t.Material,
		Distance: nearest,
	}
}

// TraceAny reports whether anything blocks the ray before maxDistance.
func (v View) TraceAny(ray core.Ray, maxDistance float32, stack *Stack) bool {
	_, tri, _, _ := v.traverse(ray, maxDistance, true, stack)
	return tri >= 0
}

func (v View) traverse(ray core.Ray, far float32, anyHit bool, stack *Stack) (float32, int32, float32, float32) {
	best := int32(-1)
	var bestU, bestV float32
	nearest := far

	if len(v.Nodes) == 0 {
		return nearest, best, 0, 0
	}

	rb := newRayBox(ray)
	stack.Reset()
	stack.Push(0)

	for {
		idx, ok := stack.Pop()
		if !ok {
			break
		}
		node := &v.Nodes[idx]
		if _, hit := rb.enter(node, nearest); !hit {
			continue
		}

		if node.IsLeaf() {
			end := node.LeafFirst + node.LeafCount
			for i := node.LeafFirst; i < end; i++ {
				t, u, w, hit := v.Triangles[i].Hit(ray, tMin, nearest)
				if !hit {
					continue
				}
				nearest, best, bestU, bestV = t, i, u, w
				if anyHit {
					return nearest, best, bestU, bestV
				}
			}
			continue
		}

		left, right := &v.Nodes[node.Left], &v.Nodes[node.Right]
		tl, hitL := rb.enter(left, nearest)
		tr, hitR := rb.enter(right, nearest)

		switch {
		case hitL && hitR:
			// far child first so the near one pops next
			if tl <= tr {
				stack.Push(node.Right)
				stack.Push(node.Left)
			} else {
				stack.Push(node.Left)
				stack.Push(node.Right)
			}
		case hitL:
			stack.Push(node.Left)
		case hitR:
			stack.Push(node.Right)
		}
	}

	return nearest, best, bestU, bestV
}
