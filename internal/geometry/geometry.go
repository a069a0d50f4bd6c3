// Package geometry converts sky targets and device orientation into
// comparable angular positions and decides whether the device is pointing
// at a target. Everything here is pure; no I/O.
package geometry

import "math"

// DefaultRadius is the radius of the sphere targets are embedded on.
// The value only matters to renderers; projection is radius independent.
const DefaultRadius = 400.0

// Angles is an angular sky position.
// Alpha is the horizontal (compass) angle in [0, 360).
// Beta is the vertical (tilt) angle in degrees.
type Angles struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Vec3 is a point in renderer space (y grows downward).
type Vec3 struct {
	X, Y, Z float64
}

// Orientation is one raw sample from a device motion sensor.
type Orientation struct {
	CompassAngle float64 `json:"compassAngle"` // [0, 360)
	TiltForward  float64 `json:"tiltForward"`  // [-180, 180]
	TiltSide     float64 `json:"tiltSide"`     // [-180, 180]
}

// Angles maps the sample onto the same angular frame as targets.
// Side tilt does not take part in alignment.
func (o Orientation) Angles() Angles {
	return Angles{
		Alpha: NormalizeAlpha(o.CompassAngle),
		Beta:  o.TiltForward,
	}
}

// Embed places a geographic coordinate on a sphere of radius r.
func Embed(p LatLon, r float64) Vec3 {
	lat := radians(p.Latitude)
	lon := radians(p.Longitude)
	return Vec3{
		X: r * math.Cos(lat) * math.Sin(lon),
		Y: -r * math.Sin(lat),
		Z: r * math.Cos(lat) * math.Cos(lon),
	}
}

// Project converts a renderer-space point back to angles.
func Project(v Vec3) Angles {
	r := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if r == 0 {
		return Angles{}
	}
	s := clamp(-v.Y/r, -1, 1)
	return Angles{
		Alpha: NormalizeAlpha(degrees(math.Atan2(v.X, v.Z))),
		Beta:  degrees(math.Asin(s)),
	}
}

// FromLatLon projects a geographic coordinate to an angular sky position.
func FromLatLon(p LatLon) Angles {
	return Project(Embed(p, DefaultRadius))
}

// ToLatLon is the inverse of FromLatLon. Longitude comes back in (-180, 180].
func ToLatLon(a Angles) LatLon {
	beta := radians(a.Beta)
	alpha := radians(a.Alpha)
	v := Vec3{
		X: DefaultRadius * math.Cos(beta) * math.Sin(alpha),
		Y: -DefaultRadius * math.Sin(beta),
		Z: DefaultRadius * math.Cos(beta) * math.Cos(alpha),
	}
	return LatLon{
		Latitude:  degrees(math.Asin(clamp(-v.Y/DefaultRadius, -1, 1))),
		Longitude: degrees(math.Atan2(v.X, v.Z)),
	}
}

// NormalizeAlpha folds any angle into [0, 360).
func NormalizeAlpha(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngularDiff returns the shortest distance between two compass angles,
// always in [0, 180].
func AngularDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAlpha(a) - NormalizeAlpha(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
