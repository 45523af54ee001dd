package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxSegments bounds the segments of a half-turn great circle.
	MaxSegments = 64
	// MaxPoints is the largest number of waypoints a Route can hold.
	MaxPoints = MaxSegments + 2
)

// ErrCorruptRoute is returned when a stored route has an impossible point count.
var ErrCorruptRoute = errors.New("corrupt route")

// Route is a great-circle path sampled at uniformly spaced waypoints.
type Route struct {
	Points []Position `json:"points"`
	// Distance is the angle in degrees between two consecutive points.
	Distance float64 `json:"distance"`
}

// ComputeGreatCircle returns the shortest path on the sphere from start to end.
// Identical endpoints yield a two-point route of zero length.
func ComputeGreatCircle(start, end Position) Route {
	s := PolarToVec(start)
	e := PolarToVec(end)
	if NearlyEqual(s, e, Epsilon) {
		return Route{Points: []Position{end, end}}
	}

	normal := pathNormal(s, e)

	// Rotate both endpoints into the frame whose pole is the path normal.
	trafo := VecToPolar(normal)
	cosT := math.Cos(trafo.Lat * toRad)
	sinT := math.Sin(trafo.Lat * toRad)

	s = PolarToVec(Position{Lon: start.Lon - trafo.Lon, Lat: start.Lat})
	e = PolarToVec(Position{Lon: end.Lon - trafo.Lon, Lat: end.Lat})

	phiStart := math.Atan2(s[1], cosT*s[2]-sinT*s[0])
	phiEnd := math.Atan2(e[1], cosT*e[2]-sinT*e[0])

	if phiEnd < phiStart-math.Pi {
		phiEnd += 2 * math.Pi
	}
	if phiEnd > phiStart+math.Pi {
		phiEnd -= 2 * math.Pi
	}

	n := int((phiEnd - phiStart) / math.Pi * MaxSegments)
	if n > 0 {
		n++
	} else {
		n = -n + 1
	}
	if n+1 > MaxPoints {
		n = MaxPoints - 1
	}

	route := Route{
		Distance: math.Abs(phiEnd-phiStart) / float64(n) * toDeg,
		Points:   make([]Position, n+1),
	}
	dPhi := (phiEnd - phiStart) / float64(n)
	for i := 0; i <= n; i++ {
		phi := phiStart + float64(i)*dPhi
		p := VecToPolar(Vec3{-sinT * math.Cos(phi), math.Sin(phi), cosT * math.Cos(phi)})
		p.Lon += trafo.Lon

		if i == 0 {
			p = wrapLon(p)
		} else {
			last := route.Points[i-1]
			for p.Lon-last.Lon > 180 {
				p.Lon -= 360
			}
			for p.Lon-last.Lon < -180 {
				p.Lon += 360
			}
		}
		route.Points[i] = p
	}

	// Sampling error grows near the antipode; the ends always match the inputs.
	route.Points[0] = wrapLon(start)
	last := end
	for last.Lon-route.Points[n-1].Lon > 180 {
		last.Lon -= 360
	}
	for last.Lon-route.Points[n-1].Lon < -180 {
		last.Lon += 360
	}
	route.Points[n] = last
	return route
}

// pathNormal is the pole of the great circle through s and e. Antipodal endpoints
// do not fix a plane, so the meridian through s is chosen.
func pathNormal(s, e Vec3) Vec3 {
	c := Cross(s, e)
	if c.Length() >= Epsilon {
		return Normalize(c)
	}
	c = Cross(s, Vec3{0, 0, 1})
	if c.Length() < Epsilon {
		c = Cross(s, Vec3{1, 0, 0})
	}
	return Normalize(c)
}

func wrapLon(p Position) Position {
	for p.Lon < -180 {
		p.Lon += 360
	}
	for p.Lon > 180 {
		p.Lon -= 360
	}
	return p
}

// Valid reports whether the route has enough points to be traversed.
func (r Route) Valid() bool {
	return len(r.Points) >= 2
}

// Validate checks a route restored from storage.
func (r Route) Validate() error {
	if len(r.Points) < 2 || len(r.Points) > MaxPoints {
		return fmt.Errorf("%w: %d points", ErrCorruptRoute, len(r.Points))
	}
	if r.Distance < 0 || math.IsNaN(r.Distance) {
		return fmt.Errorf("%w: distance %v", ErrCorruptRoute, r.Distance)
	}
	return nil
}

// TotalDistance is the traversable length of the route in degrees.
func (r Route) TotalDistance() float64 {
	if len(r.Points) < 2 {
		return 0
	}
	return r.Distance * float64(len(r.Points)-1)
}

// End returns the final waypoint.
func (r Route) End() Position {
	if len(r.Points) == 0 {
		return Position{}
	}
	return r.Points[len(r.Points)-1]
}

// Reversed returns the route with its waypoints in opposite order.
func (r Route) Reversed() Route {
	pts := make([]Position, len(r.Points))
	for i, p := range r.Points {
		pts[len(pts)-1-i] = p
	}
	return Route{Points: pts, Distance: r.Distance}
}

// Sample is an interpolated position along a route.
type Sample struct {
	Pos     Position
	Point   int
	Reached bool
}

// SampleAlongRoute returns the position after travelling the given angle from the
// route start. Reached is set once the travelled distance covers the whole route.
func SampleAlongRoute(r Route, travelled float64) Sample {
	if !r.Valid() {
		return Sample{Reached: true}
	}
	if r.Distance <= 0 || travelled >= r.TotalDistance() {
		return Sample{Pos: r.End(), Point: len(r.Points) - 1, Reached: true}
	}
	if travelled < 0 {
		travelled = 0
	}

	frac := travelled / r.Distance
	p := int(frac)
	if p >= len(r.Points)-1 {
		return Sample{Pos: r.End(), Point: len(r.Points) - 1, Reached: true}
	}
	frac -= float64(p)

	a, b := r.Points[p], r.Points[p+1]
	pos := Position{
		Lon: (1-frac)*a.Lon + frac*b.Lon,
		Lat: (1-frac)*a.Lat + frac*b.Lat,
	}
	return Sample{Pos: CheckPositionBoundaries(pos), Point: p}
}

// Direction returns the unit heading vector of the segment starting at point index p.
func (r Route) Direction(p int) Vec3 {
	if p < 0 || p+1 >= len(r.Points) {
		return Vec3{}
	}
	return Normalize(PolarToVec(r.Points[p+1]).Sub(PolarToVec(r.Points[p])))
}
