package drill

import (
	"math"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/core"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

const (
	// targetLeg is how far along its heading the target's destination lies.
	targetLeg = 90.0
	// maxFlightHours bounds a trial when the pursuer never closes.
	maxFlightHours = 48.0
)

// Trial is one flown intercept: the solver's aim point and how close the pursuer got.
type Trial struct {
	Heading   float64
	Intercept core.Intercept
	Hours     float64
	MissKm    float64
	Closed    bool
}

// destination is the point reached from start after travelling dist degrees on the
// initial bearing.
func destination(start geo.Position, bearing, dist float64) geo.Position {
	lat1 := start.Lat * math.Pi / 180
	lon1 := start.Lon * math.Pi / 180
	theta := bearing * math.Pi / 180
	d := dist * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return geo.CheckPositionBoundaries(geo.Position{Lon: lon2 * 180 / math.Pi, Lat: lat2 * 180 / math.Pi})
}

// runTrial places the target north of the base heading on the given bearing, solves the
// intercept and flies both units in fixed steps until the pursuer reaches its aim point.
func runTrial(cfg *Config, heading float64) Trial {
	base := geo.Position{Lon: cfg.BaseLon, Lat: cfg.BaseLat}
	target := destination(base, 0, cfg.Separation)
	targetDest := destination(target, heading, targetLeg)

	in := core.ComputeInterceptPoint(base, cfg.PursuerSpeed, target, targetDest, cfg.TargetSpeed)
	trial := Trial{Heading: heading, Intercept: in}

	pursuer := base
	pursuerStep := cfg.PursuerSpeed * cfg.StepSeconds / 3600
	targetStep := cfg.TargetSpeed * cfg.StepSeconds / 3600

	for elapsed := 0.0; elapsed < maxFlightHours*3600; elapsed += cfg.StepSeconds {
		target, _ = geo.StepToward(target, targetDest, targetStep)
		if geo.DistanceOnGlobe(pursuer, in.Point) <= pursuerStep {
			pursuer = in.Point
			trial.Closed = true
			trial.Hours = (elapsed + cfg.StepSeconds) / 3600
			break
		}
		pursuer, _ = geo.StepToward(pursuer, in.Point, pursuerStep)
	}
	trial.MissKm = geo.DistanceOnGlobe(pursuer, target) * geo.KilometersPerDegree
	return trial
}

// headings spreads n bearings evenly around the compass.
func headings(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * 360 / float64(n)
	}
	return out
}
