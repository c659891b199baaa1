package app

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/gekko3d/lumen/lightrt/rt/camera"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Tonemap maps linear radiance to 8-bit sRGB-ish with Reinhard and a 2.2
// gamma.
func Tonemap(c mgl32.Vec3, exposure float32) color.RGBA {
	ch := func(v float32) uint8 {
		v *= exposure
		if !(v > 0) {
			return 0
		}
		v = v / (1 + v)
		return uint8(math.Round(math.Pow(float64(v), 1/2.2) * 255))
	}
	return color.RGBA{R: ch(c.X()), G: ch(c.Y()), B: ch(c.Z()), A: 255}
}

// Compose adds the direct and indirect outputs of a frame and tonemaps
// the sum.
func Compose(out camera.Outputs, exposure float32) *image.RGBA {
	w, h := out.Direct.Width(), out.Direct.Height()
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			c := out.Direct.At(x, y)
			if out.Indirect.InBounds(x, y) {
				c = c.Add(out.Indirect.At(x, y))
			}
			img.SetRGBA(int(x), int(y), Tonemap(c, exposure))
		}
	}
	return img
}

// DrawText writes text at (x, y) with the fixed 7x13 face. y is the
// baseline of the first line.
func DrawText(img *image.RGBA, text string, x, y int, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil()
	for i, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		d.Dot = fixed.P(x, y+i*lineHeight)
		d.DrawString(line)
	}
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}
