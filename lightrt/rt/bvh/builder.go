package bvh

import (
	"math"
	"sort"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxDepth bounds the tree so a traversal Stack never overflows.
const MaxDepth = 31

const DefaultLeafSize = 4

type BVH struct {
	Nodes     []BVHNode
	Triangles []core.Triangle // reordered so every leaf covers a contiguous range

	depth int
}

type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
}

func (b *BVH) Stats() Stats {
	s := Stats{Nodes: len(b.Nodes), MaxDepth: b.depth}
	for i := range b.Nodes {
		if b.Nodes[i].IsLeaf() {
			s.Leaves++
		}
	}
	return s
}

func (b *BVH) Bytes() []byte {
	return NodesToBytes(b.Nodes)
}

func (b *BVH) View() View {
	return View{Nodes: b.Nodes, Triangles: b.Triangles}
}

type item struct {
	Min      mgl32.Vec3
	Max      mgl32.Vec3
	Centroid mgl32.Vec3
	Index    int
}

type Builder struct {
	LeafSize int
}

func NewBuilder() *Builder {
	return &Builder{LeafSize: DefaultLeafSize}
}

func (b *Builder) Build(tris []core.Triangle) *BVH {
	out := &BVH{}
	if len(tris) == 0 {
		out.Nodes = []BVHNode{{Left: -1, Right: -1}}
		return out
	}

	items := make([]item, len(tris))
	for i := range tris {
		minB, maxB := tris[i].Bounds()
		items[i] = item{
			Min:      minB,
			Max:      maxB,
			Centroid: tris[i].Center(),
			Index:    i,
		}
	}

	out.Nodes = make([]BVHNode, 0, 2*len(tris)/max(b.leafSize(), 1)+1)
	out.Triangles = make([]core.Triangle, 0, len(tris))
	b.recursiveBuild(items, tris, out, 0)
	return out
}

func (b *Builder) leafSize() int {
	if b.LeafSize <= 0 {
		return DefaultLeafSize
	}
	return b.LeafSize
}

func (b *Builder) recursiveBuild(items []item, tris []core.Triangle, out *BVH, depth int) int32 {
	idx := int32(len(out.Nodes))
	out.Nodes = append(out.Nodes, BVHNode{Left: -1, Right: -1, LeafFirst: -1})
	out.depth = max(out.depth, depth)

	inf := float32(math.Inf(1))
	minB := mgl32.Vec3{inf, inf, inf}
	maxB := mgl32.Vec3{-inf, -inf, -inf}
	cMin, cMax := minB, maxB
	for _, it := range items {
		minB = core.MinVec3(minB, it.Min)
		maxB = core.MaxVec3(maxB, it.Max)
		cMin = core.MinVec3(cMin, it.Centroid)
		cMax = core.MaxVec3(cMax, it.Centroid)
	}
	out.Nodes[idx].Min = minB
	out.Nodes[idx].Max = maxB

	extent := cMax.Sub(cMin)
	if len(items) <= b.leafSize() || depth >= MaxDepth || extent.LenSqr() == 0 {
		out.Nodes[idx].LeafFirst = int32(len(out.Triangles))
		out.Nodes[idx].LeafCount = int32(len(items))
		for _, it := range items {
			out.Triangles = append(out.Triangles, tris[it.Index])
		}
		return idx
	}

	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Centroid[axis] < items[j].Centroid[axis]
	})

	mid := len(items) / 2
	left := b.recursiveBuild(items[:mid], tris, out, depth+1)
	right := b.recursiveBuild(items[mid:], tris, out, depth+1)
	out.Nodes[idx].Left = left
	out.Nodes[idx].Right = right

	return idx
}
