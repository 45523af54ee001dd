package geo

import (
	"fmt"
	"math"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

const (
	sridWGS84       = 4326
	sridWebMercator = 3857
)

var toMercator = wgs84.EPSG().Transform(sridWGS84, sridWebMercator)

// ToWebMercator projects a position to EPSG:3857 meters.
func ToWebMercator(p Position) (x, y float64) {
	x, y, _ = toMercator(p.Lon, p.Lat, 0)
	return x, y
}

// Point converts a position into a simplefeatures point in lon/lat order.
func Point(p Position) (geom.Point, error) {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.Lon, Y: p.Lat}})
}

// LineString builds a lon/lat line string from waypoints. Fewer than two points
// produce an empty geometry.
func LineString(points []Position) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, nil
	}
	coords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		coords = append(coords, p.Lon, p.Lat)
	}
	ls, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("building line string of %d points: %w", len(points), err)
	}
	return ls, nil
}

// RouteWKT renders waypoints as WKT.
func RouteWKT(points []Position) (string, error) {
	ls, err := LineString(points)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

// Bounds is an axis-aligned box in EPSG:3857 meters.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// MercatorBounds returns the projected extent of the given positions.
func MercatorBounds(points []Position) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range points {
		x, y := ToWebMercator(CheckPositionBoundaries(p))
		b.MinX = math.Min(b.MinX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxX = math.Max(b.MaxX, x)
		b.MaxY = math.Max(b.MaxY, y)
	}
	return b, true
}
