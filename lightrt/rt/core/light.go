package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type LightKind uint32

const (
	LightPoint LightKind = 0
	LightSpot  LightKind = 1
)

func (k LightKind) String() string {
	switch k {
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// Light is a tagged variant; Direction and Angle are only meaningful for
// spot lights.
type Light struct {
	Kind      LightKind
	Position  mgl32.Vec3
	Radius    float32
	Color     mgl32.Vec3
	Range     float32
	Direction mgl32.Vec3
	Angle     float32 // half-angle of the cone, radians
}

func NewPointLight(position mgl32.Vec3, radius float32, color mgl32.Vec3, lightRange float32) Light {
	return Light{
		Kind:     LightPoint,
		Position: position,
		Radius:   radius,
		Color:    color,
		Range:    lightRange,
	}
}

func NewSpotLight(position mgl32.Vec3, radius float32, color mgl32.Vec3, lightRange float32, direction mgl32.Vec3, angle float32) Light {
	return Light{
		Kind:      LightSpot,
		Position:  position,
		Radius:    radius,
		Color:     color,
		Range:     lightRange,
		Direction: direction.Normalize(),
		Angle:     angle,
	}
}

// Serialize packs the light; the previous-frame fields start out equal to
// the current ones.
func (l Light) Serialize() GpuLight {
	var d2 mgl32.Vec4
	switch l.Kind {
	case LightSpot:
		dir := EncodeNormal(l.Direction)
		d2 = mgl32.Vec4{math.Float32frombits(uint32(LightSpot)), dir.X(), dir.Y(), l.Angle}
	default:
		d2 = mgl32.Vec4{math.Float32frombits(uint32(LightPoint)), 0, 0, 0}
	}

	g := GpuLight{
		D0: l.Position.Vec4(l.Radius),
		D1: l.Color.Vec4(l.Range),
		D2: d2,
	}
	g.PrevD0, g.PrevD1, g.PrevD2 = g.D0, g.D1, g.D2
	return g
}

// GpuLightSize: 7 × vec4<f32>.
const GpuLightSize = 112

type GpuLight struct {
	D0, D1, D2, D3         mgl32.Vec4
	PrevD0, PrevD1, PrevD2 mgl32.Vec4
}

func (l *GpuLight) Kind() LightKind      { return LightKind(math.Float32bits(l.D2.X())) }
func (l *GpuLight) Position() mgl32.Vec3 { return l.D0.Vec3() }
func (l *GpuLight) Radius() float32      { return l.D0.W() }
func (l *GpuLight) Color() mgl32.Vec3    { return l.D1.Vec3() }
func (l *GpuLight) Range() float32       { return l.D1.W() }
func (l *GpuLight) Angle() float32       { return l.D2.W() }

func (l *GpuLight) Direction() mgl32.Vec3 {
	return DecodeNormal(mgl32.Vec2{l.D2.Y(), l.D2.Z()})
}

func (l *GpuLight) PrevPosition() mgl32.Vec3 { return l.PrevD0.Vec3() }

// DidChange reports whether the light moved or changed since the previous frame.
func (l *GpuLight) DidChange() bool {
	return l.D0 != l.PrevD0 || l.D1 != l.PrevD1 || l.D2 != l.PrevD2
}

// Commit makes the current fields the previous-frame fields.
func (l *GpuLight) Commit() {
	l.PrevD0, l.PrevD1, l.PrevD2 = l.D0, l.D1, l.D2
}

// SamplePoint maps light-space coordinates in [0,1)² onto the light's sphere.
func (l *GpuLight) SamplePoint(uv mgl32.Vec2) mgl32.Vec3 {
	r := l.Radius()
	if r <= 0 {
		return l.Position()
	}
	return l.Position().Add(UniformSphere(uv.X(), uv.Y()).Mul(r))
}

// Radiance is the light arriving at point from lightPoint, before the
// cosine term.
//
//	window = saturate(1 - (d/range)^4)^2
//	L      = color * window / max(d^2, 1e-4) * spot(cos)
func (l *GpuLight) Radiance(lightPoint, point mgl32.Vec3) mgl32.Vec3 {
	toPoint := point.Sub(lightPoint)
	d2 := toPoint.LenSqr()
	d := sqrt(d2)
	lr := l.Range()
	if lr <= 0 || d >= lr {
		return mgl32.Vec3{}
	}

	ratio := d / lr
	window := mgl32.Clamp(1-ratio*ratio*ratio*ratio, 0, 1)
	atten := window * window / max(d2, 1e-4)

	if l.Kind() == LightSpot {
		if d == 0 {
			return mgl32.Vec3{}
		}
		atten *= l.spotFactor(toPoint.Mul(1 / d))
	}

	return l.Color().Mul(atten)
}

func (l *GpuLight) spotFactor(dir mgl32.Vec3) float32 {
	cosOuter := float32(math.Cos(float64(l.Angle())))
	cosInner := float32(math.Cos(float64(l.Angle()) * 0.8))
	c := l.Direction().Dot(dir)
	if c <= cosOuter {
		return 0
	}
	if c >= cosInner {
		return 1
	}
	t := (c - cosOuter) / (cosInner - cosOuter)
	return t * t * (3 - 2*t)
}

// Contribution is the unshadowed irradiance (radiance × cosθ) at a surface
// point for the light-space sample uv, together with the sampled light point.
func (l *GpuLight) Contribution(uv mgl32.Vec2, point, normal mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	lightPoint := l.SamplePoint(uv)
	toLight := lightPoint.Sub(point)
	if toLight.LenSqr() == 0 {
		return mgl32.Vec3{}, lightPoint
	}
	cos := normal.Dot(toLight.Normalize())
	if cos <= 0 {
		return mgl32.Vec3{}, lightPoint
	}
	return l.Radiance(lightPoint, point).Mul(cos), lightPoint
}

func (l *GpuLight) ToBytes() []byte {
	buf := make([]byte, GpuLightSize)
	for i, v := range []mgl32.Vec4{l.D0, l.D1, l.D2, l.D3, l.PrevD0, l.PrevD1, l.PrevD2} {
		putVec4(buf[i*16:], v)
	}
	return buf
}

func LightsToBytes(lights []GpuLight) []byte {
	out := make([]byte, 0, len(lights)*GpuLightSize)
	for i := range lights {
		out = append(out, lights[i].ToBytes()...)
	}
	return out
}
