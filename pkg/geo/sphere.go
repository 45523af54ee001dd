// Package geo holds the spherical geometry used by the geoscape: conversions between
// longitude/latitude and unit vectors, great-circle distances and rotations.
//
// Distances are angles in degrees measured at the centre of the globe.
package geo

import "math"

const (
	toRad = math.Pi / 180.0
	toDeg = 180.0 / math.Pi

	// KilometersPerDegree converts a globe angle into ground distance.
	KilometersPerDegree = 111.2

	// Epsilon below which two unit vectors are treated as the same point.
	Epsilon = 1e-5
)

// Position is a longitude/latitude pair in degrees.
type Position struct {
	Lon float64 `json:"lon" yaml:"lon"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Vec3 is a point or direction in the earth-centred frame.
type Vec3 [3]float64

// PolarToVec converts a position into a unit vector.
func PolarToVec(p Position) Vec3 {
	lon := p.Lon * toRad
	lat := p.Lat * toRad
	return Vec3{math.Cos(lon) * math.Cos(lat), math.Sin(lon) * math.Cos(lat), math.Sin(lat)}
}

// VecToPolar converts a unit vector back into a position.
func VecToPolar(v Vec3) Position {
	z := math.Max(-1, math.Min(1, v[2]))
	return Position{
		Lon: toDeg * math.Atan2(v[1], v[0]),
		Lat: 90 - toDeg*math.Acos(z),
	}
}

// Cross returns a × b.
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Dot returns a · b.
func Dot(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Length returns |v|.
func (v Vec3) Length() float64 {
	return math.Sqrt(Dot(v, v))
}

// Sub returns v − o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func Normalize(v Vec3) Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// NearlyEqual reports whether two vectors differ by less than eps on every axis.
func NearlyEqual(a, b Vec3, eps float64) bool {
	return math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps && math.Abs(a[2]-b[2]) < eps
}

// RotatePointAroundVector rotates point around the unit axis dir by degrees,
// counter-clockwise when looking down the axis.
func RotatePointAroundVector(dir, point Vec3, degrees float64) Vec3 {
	theta := degrees * toRad
	c, s := math.Cos(theta), math.Sin(theta)
	kxv := Cross(dir, point)
	kdv := Dot(dir, point) * (1 - c)
	return Vec3{
		point[0]*c + kxv[0]*s + dir[0]*kdv,
		point[1]*c + kxv[1]*s + dir[1]*kdv,
		point[2]*c + kxv[2]*s + dir[2]*kdv,
	}
}

// DistanceOnGlobe returns the angle in degrees between two positions.
func DistanceOnGlobe(a, b Position) float64 {
	lat1 := a.Lat * toRad
	lat2 := b.Lat * toRad
	dLon := (a.Lon - b.Lon) * toRad

	d := math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon) + math.Sin(lat1)*math.Sin(lat2)
	d = math.Max(-1, math.Min(1, d))
	return math.Acos(d) * toDeg
}

// CheckPositionBoundaries wraps a position back into lon [-180, 180] and lat [-90, 90].
func CheckPositionBoundaries(p Position) Position {
	for p.Lon > 180 {
		p.Lon -= 360
	}
	for p.Lon < -180 {
		p.Lon += 360
	}
	for p.Lat > 90 {
		p.Lat -= 180
	}
	for p.Lat < -90 {
		p.Lat += 180
	}
	return p
}

// InBounds reports whether p already lies inside the canonical ranges.
func (p Position) InBounds() bool {
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// IsNaN reports whether either coordinate is NaN.
func (p Position) IsNaN() bool {
	return math.IsNaN(p.Lon) || math.IsNaN(p.Lat)
}

// Kilometers converts a globe angle to kilometers.
func Kilometers(degrees float64) float64 {
	return degrees * KilometersPerDegree
}

// Bearing returns the initial great-circle heading from one position toward another,
// in degrees clockwise from north within [0, 360).
func Bearing(from, to Position) float64 {
	lat1 := from.Lat * toRad
	lat2 := to.Lat * toRad
	dLon := (to.Lon - from.Lon) * toRad

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	b := math.Atan2(y, x) * toDeg
	if b < 0 {
		b += 360
	}
	return b
}

// StepToward moves from toward to along their great circle by degrees. It also returns
// the rotation axis used, which callers reuse to extrapolate a further step.
func StepToward(from, to Position, degrees float64) (Position, Vec3) {
	start := PolarToVec(from)
	axis := Normalize(Cross(start, PolarToVec(to)))
	if axis.Length() == 0 {
		return from, axis
	}
	return VecToPolar(RotatePointAroundVector(axis, start, degrees)), axis
}

// RandomPosition maps two uniform draws in [0, 1) to a position uniformly distributed
// over the sphere.
func RandomPosition(u, v float64) Position {
	return Position{
		Lon: u*360 - 180,
		Lat: math.Asin(2*v-1) * toDeg,
	}
}

// Offset returns the point displaced from center by lonDeg/latDeg, wrapped into bounds.
func Offset(center Position, lonDeg, latDeg float64) Position {
	return CheckPositionBoundaries(Position{Lon: center.Lon + lonDeg, Lat: center.Lat + latDeg})
}
