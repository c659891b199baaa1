package restir

import (
	"math"

	"github.com/gekko3d/lumen/lightrt/rt/core"
)

const MaxNeighbors = 8

type Neighbors struct {
	Pixels [MaxNeighbors][2]uint32
	Count  uint32
}

func (n *Neighbors) Add(px [2]uint32) bool {
	if n.Count == MaxNeighbors {
		return false
	}
	n.Pixels[n.Count] = px
	n.Count++
	return true
}

// SpatialSamples carries the re-evaluated target pdf and Jacobian of every
// picked neighbor at the center pixel. A zero TargetPdf marks a rejected
// neighbor.
type SpatialSamples struct {
	Neighbors Neighbors
	TargetPdf [MaxNeighbors]float32
	Jacobian  [MaxNeighbors]float32
}

// PickNeighbors draws up to count distinct-from-center pixels uniformly
// inside a disk of radius pixels.
func PickNeighbors(noise *core.Noise, center [2]uint32, radius float32, count int, vp core.Viewport) Neighbors {
	var out Neighbors
	count = min(count, MaxNeighbors)

	for i := 0; i < count; i++ {
		r := radius * float32(math.Sqrt(float64(noise.Sample())))
		phi := 2 * math.Pi * float64(noise.Sample())

		dx := int32(math.Round(float64(r) * math.Cos(phi)))
		dy := int32(math.Round(float64(r) * math.Sin(phi)))
		if dx == 0 && dy == 0 {
			continue
		}

		x, y := int32(center[0])+dx, int32(center[1])+dy
		if !vp.Contains(x, y) {
			continue
		}
		out.Add([2]uint32{uint32(x), uint32(y)})
	}
	return out
}
