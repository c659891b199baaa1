package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Viewport struct {
	Width  uint32
	Height uint32
}

func (v Viewport) Contains(x, y int32) bool {
	return x >= 0 && y >= 0 && uint32(x) < v.Width && uint32(y) < v.Height
}

func (v Viewport) Pixels() int {
	return int(v.Width) * int(v.Height)
}

// Camera is the per-frame camera record read by the passes.
type Camera struct {
	Position   mgl32.Vec3
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Viewport   Viewport

	invViewProj mgl32.Mat4
}

const (
	cameraNear = 0.05
	cameraFar  = 1000.0
)

func NewCamera(position, target, up mgl32.Vec3, fovY float32, vp Viewport) Camera {
	aspect := float32(1)
	if vp.Height > 0 {
		aspect = float32(vp.Width) / float32(vp.Height)
	}
	c := Camera{
		Position:   position,
		View:       mgl32.LookAtV(position, target, up),
		Projection: mgl32.Perspective(fovY, aspect, cameraNear, cameraFar),
		Viewport:   vp,
	}
	c.invViewProj = c.ViewProjection().Inv()
	return c
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// Ray returns the primary ray through the center of pixel (x, y); y grows downwards.
func (c *Camera) Ray(x, y uint32) Ray {
	ndcX := (float32(x)+0.5)/float32(c.Viewport.Width)*2 - 1
	ndcY := 1 - (float32(y)+0.5)/float32(c.Viewport.Height)*2

	near := c.invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := c.invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	dir := far.Vec3().Mul(1 / far.W()).Sub(near.Vec3().Mul(1 / near.W()))

	return NewRay(c.Position, dir.Normalize())
}

// Project maps a world point to continuous screen coordinates. ok is false
// for points behind the camera or outside the viewport.
func (c *Camera) Project(p mgl32.Vec3) (mgl32.Vec2, bool) {
	clip := c.ViewProjection().Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	screen := mgl32.Vec2{
		(ndc.X() + 1) * 0.5 * float32(c.Viewport.Width),
		(1 - ndc.Y()) * 0.5 * float32(c.Viewport.Height),
	}
	inside := screen.X() >= 0 && screen.Y() >= 0 &&
		screen.X() < float32(c.Viewport.Width) && screen.Y() < float32(c.Viewport.Height)
	return screen, inside
}

// CameraState is an orbit rig around a target point (Y-up).
type CameraState struct {
	Target   mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Distance float32
	FovY     float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Target:   mgl32.Vec3{0, 1, 0},
		Distance: 4,
		Pitch:    0.15,
		FovY:     mgl32.DegToRad(60),
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(-math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(-math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *CameraState) Eye() mgl32.Vec3 {
	return c.Target.Sub(c.GetForward().Mul(c.Distance))
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *CameraState) Camera(vp Viewport) Camera {
	return NewCamera(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0}, c.FovY, vp)
}
