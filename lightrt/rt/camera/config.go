package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/lightrt/rt/core"
)

// Config describes a camera as the engine sees it.
type Config struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // radians
	Viewport core.Viewport
}

func DefaultConfig() Config {
	return Config{
		Position: mgl32.Vec3{0, 1, 4},
		Target:   mgl32.Vec3{0, 1, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     mgl32.DegToRad(60),
		Viewport: core.Viewport{Width: 320, Height: 240},
	}
}

func (c Config) Camera() core.Camera {
	return core.NewCamera(c.Position, c.Target, c.Up, c.FovY, c.Viewport)
}
