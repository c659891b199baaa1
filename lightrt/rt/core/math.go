package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func MulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func Luminance(c mgl32.Vec3) float32 {
	return c.Dot(mgl32.Vec3{0.2126, 0.7152, 0.0722})
}

func IsFinite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func MinVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a.X(), b.X()), min(a.Y(), b.Y()), min(a.Z(), b.Z())}
}

func MaxVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a.X(), b.X()), max(a.Y(), b.Y()), max(a.Z(), b.Z())}
}

func sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// Basis builds an orthonormal frame around n (Duff et al.).
func Basis(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	sign := float32(math.Copysign(1, float64(n.Z())))
	a := -1 / (sign + n.Z())
	b := n.X() * n.Y() * a

	t := mgl32.Vec3{1 + sign*n.X()*n.X()*a, sign * b, -sign * n.X()}
	bt := mgl32.Vec3{b, sign + n.Y()*n.Y()*a, -n.Y()}
	return t, bt
}

// EncodeNormal packs a unit vector into two floats (octahedral mapping).
func EncodeNormal(n mgl32.Vec3) mgl32.Vec2 {
	l1 := mgl32.Abs(n.X()) + mgl32.Abs(n.Y()) + mgl32.Abs(n.Z())
	if l1 == 0 {
		return mgl32.Vec2{}
	}
	x, y := n.X()/l1, n.Y()/l1
	if n.Z() < 0 {
		x, y = (1-mgl32.Abs(y))*signNotZero(x), (1-mgl32.Abs(x))*signNotZero(y)
	}
	return mgl32.Vec2{x, y}
}

func DecodeNormal(e mgl32.Vec2) mgl32.Vec3 {
	n := mgl32.Vec3{e.X(), e.Y(), 1 - mgl32.Abs(e.X()) - mgl32.Abs(e.Y())}
	if n.Z() < 0 {
		n[0], n[1] = (1-mgl32.Abs(e.Y()))*signNotZero(e.X()), (1-mgl32.Abs(e.X()))*signNotZero(e.Y())
	}
	if n.LenSqr() == 0 {
		return n
	}
	return n.Normalize()
}

func signNotZero(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}
