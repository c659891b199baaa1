package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNoiseIsDeterministic(t *testing.T) {
	a := NewNoise(42, [2]uint32{3, 7}, 11)
	b := NewNoise(42, [2]uint32{3, 7}, 11)
	c := NewNoise(42, [2]uint32{3, 7}, 12)

	same := 0
	for i := 0; i < 64; i++ {
		va, vb, vc := a.Sample(), b.Sample(), c.Sample()
		if va != vb {
			t.Fatalf("sample %d differs: %f vs %f", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("sample %d out of range: %f", i, va)
		}
		if va == vc {
			same++
		}
	}
	if same > 4 {
		t.Errorf("frame does not decorrelate the sequence (%d equal samples)", same)
	}
}

func TestSampleHemisphere(t *testing.T) {
	n := NewNoise(1, [2]uint32{0, 0}, 0)
	normal := mgl32.Vec3{0, 0, -1}
	for i := 0; i < 256; i++ {
		d := n.SampleHemisphere(normal)
		if d.Dot(normal) < -1e-5 {
			t.Fatalf("direction %v below hemisphere", d)
		}
		if l := d.Len(); l < 0.999 || l > 1.001 {
			t.Fatalf("direction %v not unit (%f)", d, l)
		}
	}
}

func TestSampleInt(t *testing.T) {
	n := NewNoise(9, [2]uint32{1, 1}, 1)
	for i := 0; i < 256; i++ {
		if v := n.SampleInt(5); v >= 5 {
			t.Fatalf("SampleInt(5) returned %d", v)
		}
	}
	if v := n.SampleInt(0); v != 0 {
		t.Errorf("SampleInt(0) returned %d", v)
	}
}
