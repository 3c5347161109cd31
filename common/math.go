package common

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space position or direction.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Mgl converts to the mathgl vector the arithmetic below runs on.
func (v Vec3) Mgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func FromMgl(m mgl64.Vec3) Vec3 {
	return Vec3{X: m[0], Y: m[1], Z: m[2]}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return FromMgl(v.Mgl().Add(o.Mgl()))
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return FromMgl(v.Mgl().Sub(o.Mgl()))
}

func (v Vec3) Scale(s float64) Vec3 {
	return FromMgl(v.Mgl().Mul(s))
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.Mgl().Dot(o.Mgl())
}

func (v Vec3) LengthSquared() float64 {
	return v.Mgl().LenSqr()
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Mgl().LenSqr())
}

func (v Vec3) DistanceSquared(o Vec3) float64 {
	return v.Sub(o).LengthSquared()
}

// Distance is the Euclidean distance, used both as edge cost and heuristic.
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Normalize returns the unit vector, or the zero vector for zero length.
func (v Vec3) Normalize() Vec3 {
	if v.LengthSquared() == 0 {
		return Vec3{}
	}
	return FromMgl(v.Mgl().Normalize())
}

// Lerp moves from v toward o by t.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return FromMgl(v.Mgl().Add(o.Mgl().Sub(v.Mgl()).Mul(t)))
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f)", v.X, v.Y, v.Z)
}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// WrapAngle maps a to (-Pi, Pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// LerpAngle interpolates along the shortest arc between two headings.
func LerpAngle(from, to, t float64) float64 {
	return WrapAngle(from + WrapAngle(to-from)*t)
}

// Yaw is the heading of dir around the Y axis; zero faces +Z.
func Yaw(dir Vec3) float64 {
	return math.Atan2(dir.X, dir.Z)
}
