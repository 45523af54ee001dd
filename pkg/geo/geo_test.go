package geo

import (
	"math"
	"strings"
	"testing"
)

const tolerance = 1e-6

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestDistanceOnGlobe(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want float64
	}{
		{"same point", Position{10, 10}, Position{10, 10}, 0},
		{"quarter equator", Position{0, 0}, Position{90, 0}, 90},
		{"pole to pole", Position{0, 90}, Position{0, -90}, 180},
		{"across dateline", Position{179, 0}, Position{-179, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceOnGlobe(tt.a, tt.b)
			if !near(got, tt.want, tolerance) {
				t.Errorf("DistanceOnGlobe(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPolarRoundTrip(t *testing.T) {
	for _, p := range []Position{{45, 30}, {-120, -60}, {179.5, 0.25}, {0, 89}} {
		got := VecToPolar(PolarToVec(p))
		if !near(got.Lon, p.Lon, tolerance) || !near(got.Lat, p.Lat, tolerance) {
			t.Errorf("round trip of %v gave %v", p, got)
		}
	}
}

func TestCheckPositionBoundaries(t *testing.T) {
	got := CheckPositionBoundaries(Position{Lon: 190, Lat: 95})
	if !near(got.Lon, -170, tolerance) || !near(got.Lat, -85, tolerance) {
		t.Errorf("Expected (-170, -85), got %v", got)
	}

	got = CheckPositionBoundaries(Position{Lon: -540, Lat: -95})
	if !near(got.Lon, -180, tolerance) || !near(got.Lat, 85, tolerance) {
		t.Errorf("Expected (-180, 85), got %v", got)
	}
}

func TestRotatePointAroundVector(t *testing.T) {
	got := RotatePointAroundVector(Vec3{0, 0, 1}, Vec3{1, 0, 0}, 90)
	if !NearlyEqual(got, Vec3{0, 1, 0}, tolerance) {
		t.Errorf("Expected (0,1,0), got %v", got)
	}
}

func TestComputeGreatCircleDegenerate(t *testing.T) {
	p := Position{Lon: 12, Lat: -7}
	r := ComputeGreatCircle(p, p)
	if len(r.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(r.Points))
	}
	if r.TotalDistance() != 0 {
		t.Errorf("Expected zero length, got %f", r.TotalDistance())
	}
	if !SampleAlongRoute(r, 0).Reached {
		t.Error("Zero-length route should be reached immediately")
	}
}

func TestComputeGreatCircleEndpoints(t *testing.T) {
	pairs := [][2]Position{
		{{0, 0}, {90, 0}},
		{{10, 20}, {-40, 55}},
		{{170, -10}, {-160, 30}},
		{{-75, 40}, {2, 48}},
		{{0, 0}, {179, 0}},
	}

	for _, pair := range pairs {
		r := ComputeGreatCircle(pair[0], pair[1])
		if !r.Valid() {
			t.Fatalf("Route %v -> %v is not valid", pair[0], pair[1])
		}
		if len(r.Points) > MaxPoints {
			t.Errorf("Route %v -> %v has %d points, max is %d", pair[0], pair[1], len(r.Points), MaxPoints)
		}
		if d := DistanceOnGlobe(r.Points[0], pair[0]); d > tolerance {
			t.Errorf("Route %v -> %v starts %f degrees off", pair[0], pair[1], d)
		}
		if d := DistanceOnGlobe(r.End(), pair[1]); d > tolerance {
			t.Errorf("Route %v -> %v ends %f degrees off", pair[0], pair[1], d)
		}
		want := DistanceOnGlobe(pair[0], pair[1])
		if !near(r.TotalDistance(), want, 1e-4) {
			t.Errorf("Route %v -> %v length %f, want %f", pair[0], pair[1], r.TotalDistance(), want)
		}
		for i := 1; i < len(r.Points); i++ {
			if math.Abs(r.Points[i].Lon-r.Points[i-1].Lon) > 180 {
				t.Errorf("Route %v -> %v jumps in longitude at point %d", pair[0], pair[1], i)
			}
		}
	}
}

func TestComputeGreatCirclePointCap(t *testing.T) {
	tests := []struct {
		name       string
		start, end Position
	}{
		{"short hop", Position{0, 0}, Position{1, 0}},
		{"quarter turn", Position{0, 0}, Position{90, 0}},
		{"nearly half", Position{-80, 10}, Position{95, -12}},
		{"across the pole", Position{0, 80}, Position{179, 80}},
		{"antipodal", Position{0, 0}, Position{180, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeGreatCircle(tt.start, tt.end)
			if len(r.Points) > MaxPoints {
				t.Errorf("Got %d points, max is %d", len(r.Points), MaxPoints)
			}
			if err := r.Validate(); err != nil {
				t.Errorf("Route failed validation: %v", err)
			}
		})
	}
}

func TestComputeGreatCircleAntipodalEnds(t *testing.T) {
	pairs := [][2]Position{
		{{10, 20}, {-170, -20}},
		{{10, 20}, {-169.9, -20}},
		{{0, 90}, {0, -90}},
	}

	for _, pair := range pairs {
		r := ComputeGreatCircle(pair[0], pair[1])
		if d := DistanceOnGlobe(r.Points[0], pair[0]); d > tolerance {
			t.Errorf("Route %v -> %v starts %f degrees off", pair[0], pair[1], d)
		}
		if d := DistanceOnGlobe(r.End(), pair[1]); d > tolerance {
			t.Errorf("Route %v -> %v ends %f degrees off", pair[0], pair[1], d)
		}
		for i := 1; i < len(r.Points); i++ {
			if d := DistanceOnGlobe(r.Points[i-1], r.Points[i]); !near(d, r.Distance, 1e-3) {
				t.Errorf("Route %v -> %v segment %d is %f degrees, want %f", pair[0], pair[1], i, d, r.Distance)
			}
		}
	}
}

func TestComputeGreatCircleSymmetry(t *testing.T) {
	a := Position{Lon: 10, Lat: 20}
	b := Position{Lon: -40, Lat: 55}

	ab := ComputeGreatCircle(a, b)
	ba := ComputeGreatCircle(b, a)

	if !near(ab.TotalDistance(), ba.TotalDistance(), tolerance) {
		t.Fatalf("Lengths differ: %f vs %f", ab.TotalDistance(), ba.TotalDistance())
	}
	if len(ab.Points) != len(ba.Points) {
		t.Fatalf("Point counts differ: %d vs %d", len(ab.Points), len(ba.Points))
	}
	rev := ba.Reversed()
	for i := range ab.Points {
		if d := DistanceOnGlobe(ab.Points[i], rev.Points[i]); d > 1e-4 {
			t.Errorf("Point %d differs by %f degrees", i, d)
		}
	}
}

func TestSampleAlongRoute(t *testing.T) {
	r := ComputeGreatCircle(Position{0, 0}, Position{90, 0})

	mid := SampleAlongRoute(r, 45)
	if mid.Reached {
		t.Fatal("Halfway sample should not be reached")
	}
	if !near(mid.Pos.Lon, 45, 1e-3) || !near(mid.Pos.Lat, 0, 1e-3) {
		t.Errorf("Expected (45, 0), got %v", mid.Pos)
	}

	if SampleAlongRoute(r, 89.9).Reached {
		t.Error("89.9 of 90 degrees should not be reached")
	}
	end := SampleAlongRoute(r, r.TotalDistance())
	if !end.Reached {
		t.Error("Full distance should be reached")
	}
}

func TestSampleAlongRouteMonotonic(t *testing.T) {
	start := Position{Lon: -75, Lat: 40}
	r := ComputeGreatCircle(start, Position{Lon: 2, Lat: 48})

	prev := -1.0
	reached := false
	for travelled := 0.0; travelled <= r.TotalDistance()+1; travelled += 0.37 {
		s := SampleAlongRoute(r, travelled)
		d := DistanceOnGlobe(start, s.Pos)
		if d+1e-3 < prev {
			t.Fatalf("Progress went backwards at %f: %f < %f", travelled, d, prev)
		}
		prev = d

		want := travelled >= r.TotalDistance()
		if s.Reached != want {
			t.Fatalf("At %f reached=%v, want %v", travelled, s.Reached, want)
		}
		reached = reached || s.Reached
	}
	if !reached {
		t.Error("Route was never reported as reached")
	}
}

func TestStepToward(t *testing.T) {
	got, _ := StepToward(Position{0, 0}, Position{90, 0}, 10)
	if !near(got.Lon, 10, tolerance) || !near(got.Lat, 0, tolerance) {
		t.Errorf("Expected (10, 0), got %v", got)
	}
}

func TestBearing(t *testing.T) {
	if b := Bearing(Position{0, 0}, Position{0, 10}); !near(b, 0, tolerance) {
		t.Errorf("Expected bearing 0 due north, got %f", b)
	}
	if b := Bearing(Position{0, 0}, Position{10, 0}); !near(b, 90, tolerance) {
		t.Errorf("Expected bearing 90 due east, got %f", b)
	}
}

func TestRouteValidate(t *testing.T) {
	if err := (Route{Points: []Position{{0, 0}}}).Validate(); err == nil {
		t.Error("Single point route should fail validation")
	}
	if err := ComputeGreatCircle(Position{0, 0}, Position{20, 20}).Validate(); err != nil {
		t.Errorf("Computed route failed validation: %v", err)
	}
}

func TestExport(t *testing.T) {
	x, y := ToWebMercator(Position{0, 0})
	if !near(x, 0, 1e-3) || !near(y, 0, 1e-3) {
		t.Errorf("Expected origin at (0,0), got (%f, %f)", x, y)
	}

	wkt, err := RouteWKT([]Position{{0, 0}, {1, 1}})
	if err != nil {
		t.Fatalf("RouteWKT failed: %v", err)
	}
	if !strings.HasPrefix(wkt, "LINESTRING") {
		t.Errorf("Unexpected WKT: %s", wkt)
	}

	ls, err := LineString([]Position{{0, 0}})
	if err != nil || !ls.IsEmpty() {
		t.Errorf("Expected an empty line string for one point, got %v (%v)", ls.AsText(), err)
	}

	pt, err := Point(Position{Lon: 12, Lat: -3})
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}
	xy, ok := pt.XY()
	if !ok || xy.X != 12 || xy.Y != -3 {
		t.Errorf("Expected (12, -3), got %v", xy)
	}

	b, ok := MercatorBounds([]Position{{-10, -5}, {10, 5}})
	if !ok {
		t.Fatal("Expected bounds")
	}
	if b.MinX >= 0 || b.MaxX <= 0 || b.MinY >= 0 || b.MaxY <= 0 {
		t.Errorf("Bounds should straddle the origin: %+v", b)
	}
}
