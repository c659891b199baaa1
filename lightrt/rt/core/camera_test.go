package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraRayProjectRoundTrip(t *testing.T) {
	vp := Viewport{Width: 64, Height: 48}
	cam := NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(60), vp)

	for _, px := range [][2]uint32{{0, 0}, {32, 24}, {63, 47}, {10, 40}} {
		ray := cam.Ray(px[0], px[1])
		p := ray.At(4)

		screen, ok := cam.Project(p)
		if !ok {
			t.Fatalf("pixel %v: projected point off screen", px)
		}
		if uint32(screen.X()) != px[0] || uint32(screen.Y()) != px[1] {
			t.Errorf("pixel %v: projected to %v", px, screen)
		}
	}
}

func TestCameraCenterRayLooksAtTarget(t *testing.T) {
	vp := Viewport{Width: 2, Height: 2}
	cam := NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(60), vp)

	if _, ok := cam.Project(mgl32.Vec3{0, 0, 10}); ok {
		t.Error("point behind the camera must not project")
	}

	// top-right pixel of a 2x2 viewport looks up and right
	d := cam.Ray(1, 0).Direction
	if d.X() <= 0 || d.Y() <= 0 || d.Z() >= 0 {
		t.Errorf("unexpected direction %v", d)
	}
}
