package bvh

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

func TestTwoClustersSplit(t *testing.T) {
	var tris []core.Triangle
	for i := 0; i < 4; i++ {
		o := float32(i) * 0.1
		tris = append(tris, core.NewFlatTriangle(
			mgl32.Vec3{-100 + o, -1, -1}, mgl32.Vec3{-98 + o, -1, -1}, mgl32.Vec3{-100 + o, 1, 1}, 0))
		tris = append(tris, core.NewFlatTriangle(
			mgl32.Vec3{100 + o, -1, -1}, mgl32.Vec3{102 + o, -1, -1}, mgl32.Vec3{100 + o, 1, 1}, 1))
	}

	b := NewBuilder().Build(tris)
	data := b.Bytes()

	// Root, left, right
	if len(data) != NodeSize*3 {
		t.Fatalf("expected %d bytes (3 nodes), got %d", NodeSize*3, len(data))
	}

	rootMinX := math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))
	rootMaxX := math.Float32frombits(binary.LittleEndian.Uint32(data[16:20]))
	if rootMinX > -100 || rootMaxX < 102 {
		t.Errorf("root does not enclose both clusters: %f..%f", rootMinX, rootMaxX)
	}

	left := int32(binary.LittleEndian.Uint32(data[32:36]))
	right := int32(binary.LittleEndian.Uint32(data[36:40]))
	if left != 1 || right != 2 {
		t.Errorf("expected children 1 and 2, got %d and %d", left, right)
	}

	leftNode := data[NodeSize*1:]
	if c := int32(binary.LittleEndian.Uint32(leftNode[44:48])); c != 4 {
		t.Errorf("expected 4 triangles in the left leaf, got %d", c)
	}
	if mx := math.Float32frombits(binary.LittleEndian.Uint32(leftNode[16:20])); mx > 0 {
		t.Errorf("left leaf should hold the -100 cluster, max x = %f", mx)
	}

	s := b.Stats()
	if s.Nodes != 3 || s.Leaves != 2 || s.MaxDepth != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestLeavesCoverEveryTriangleOnce(t *testing.T) {
	tris := quads(37)
	b := NewBuilder().Build(tris)

	if len(b.Triangles) != len(tris) {
		t.Fatalf("expected %d triangles, got %d", len(tris), len(b.Triangles))
	}
	covered := make([]int, len(tris))
	for _, n := range b.Nodes {
		if !n.IsLeaf() {
			continue
		}
		for i := n.LeafFirst; i < n.LeafFirst+n.LeafCount; i++ {
			covered[i]++
		}
	}
	for i, c := range covered {
		if c != 1 {
			t.Errorf("triangle %d covered %d times", i, c)
		}
	}
	if b.Stats().MaxDepth > MaxDepth {
		t.Errorf("depth %d exceeds %d", b.Stats().MaxDepth, MaxDepth)
	}
}
