package bvh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeSize matches the storage layout of a node.
//
//	struct BvhNode {
//	   aabb_min   : vec4<f32>; (16)
//	   aabb_max   : vec4<f32>; (16)
//	   left       : i32;       (4)
//	   right      : i32;       (4)
//	   leaf_first : i32;       (4)
//	   leaf_count : i32;       (4)
//	   padding    : i32[4];    (16)
//	}; -> 64 bytes
const NodeSize = 64

type BVHNode struct {
	Min       mgl32.Vec3
	Max       mgl32.Vec3
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

func (n *BVHNode) IsLeaf() bool {
	return n.Left < 0
}

func (n *BVHNode) ToBytes() []byte {
	buf := make([]byte, NodeSize)

	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(n.Min[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(n.Max[i]))
	}

	binary.LittleEndian.PutUint32(buf[32:36], uint32(n.Left))
	binary.LittleEndian.PutUint32(buf[36:40], uint32(n.Right))
	binary.LittleEndian.PutUint32(buf[40:44], uint32(n.LeafFirst))
	binary.LittleEndian.PutUint32(buf[44:48], uint32(n.LeafCount))
	return buf
}

func NodesToBytes(nodes []BVHNode) []byte {
	out := make([]byte, 0, len(nodes)*NodeSize)
	for i := range nodes {
		out = append(out, nodes[i].ToBytes()...)
	}
	return out
}
