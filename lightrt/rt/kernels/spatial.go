package kernels

import (
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/restir"
	"github.com/gekko3d/lumen/lightrt/rt/shaders"
)

// spatialPick keeps the randomly picked neighbors whose surface resembles
// the center pixel's.
func spatialPick(name string, params func(*restir.Config) (float32, int)) *kernel {
	return &kernel{
		name: name,
		layout: [][]shaders.BindingLayout{
			{shaders.Read[*Config]()},
			{shaders.Read[*GBuffer](), shaders.Write[*Picks]()},
		},
		bind: func(b *binder) shaders.Program {
			cfg := get[*Config](b, groupScene, 0)
			gbuffer := get[*GBuffer](b, groupCamera, 0)
			out := get[*Picks](b, groupCamera, 1)

			return func(inv *gpu.Invocation, pp shaders.PassParams) {
				x, y := inv.GlobalID[0], inv.GlobalID[1]
				if !out.InBounds(x, y) {
					return
				}
				s := gbuffer.Ptr(x, y)
				if s.IsNone() {
					out.Set(x, y, restir.Neighbors{})
					return
				}

				c := cfg.Get()
				radius, count := params(c)
				vp := core.Viewport{Width: gbuffer.Width(), Height: gbuffer.Height()}
				noise := core.NewNoise(pp.Seed, inv.GlobalID, pp.Frame)
				picked := restir.PickNeighbors(&noise, inv.GlobalID, radius, count, vp)

				var kept restir.Neighbors
				for k := uint32(0); k < picked.Count; k++ {
					px := picked.Pixels[k]
					if s.IsSimilar(gbuffer.Ptr(px[0], px[1]), c.DepthThreshold, c.NormalThreshold) {
						kept.Add(px)
					}
				}
				out.Set(x, y, kept)
			}
		},
	}
}
