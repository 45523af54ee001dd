// Package core holds the pure calculators of the geoscape air war: where a pursuer must
// aim to meet a moving target, and how weapon slots are checked, chosen and resolved.
package core

import (
	"math"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// Solver tuning. bigStep must be small enough that one step brackets at most one root.
const (
	bigStep        = 0.05
	rootPrecision  = 1e-6
	maxRootValue   = 2 * math.Pi
	maxRestarts    = 64
	maxCandidates  = 128
	timeTolerance  = 0.1
	degenerateDist = 1e-4
	// tangentSkip moves the next search past a tangent root. The extremum is only
	// located to rootPrecision, so the skip must be wider than that.
	tangentSkip = 10 * rootPrecision
)

// RootResult is the outcome of one root search.
type RootResult struct {
	Angle float64
	Found bool
	// Tangent marks a root where the function touches zero without crossing it.
	Tangent bool
}

// Intercept is where a pursuer should head to meet its target.
type Intercept struct {
	Point geo.Position
	// Found is false when no rendezvous exists and Point is the target's current position.
	Found bool
	// TargetAngle and PursuerAngle are the arcs in radians each unit flies to the rendezvous.
	TargetAngle  float64
	PursuerAngle float64
	SpeedRatio   float64
}

// Residual is the mismatch between the two implied travel times, expressed as an arc
// in radians at pursuer speed.
func (i Intercept) Residual() float64 {
	return math.Abs(i.PursuerAngle - i.SpeedRatio*i.TargetAngle)
}

// interceptFunction vanishes where target arc a and pursuer arc k·a close the spherical
// triangle pursuer/target/rendezvous. c is the pursuer-target separation and b the angle
// at the target between the pursuer and the target's heading.
func interceptFunction(c, b, k, a float64) float64 {
	return math.Pow(math.Cos(a)-math.Cos(k*a)*math.Cos(c), 2) -
		math.Sin(c)*math.Sin(c)*(math.Sin(k*a)*math.Sin(k*a)-math.Sin(a)*math.Sin(a)*math.Sin(b)*math.Sin(b))
}

func interceptDerivative(c, b, k, a float64) float64 {
	return 2*(math.Cos(a)-math.Cos(k*a)*math.Cos(c))*(-math.Sin(a)+k*math.Sin(k*a)*math.Cos(c)) -
		math.Sin(c)*math.Sin(c)*(k*math.Sin(2*k*a)-math.Sin(2*a)*math.Sin(b)*math.Sin(b))
}

// FindRoot returns the smallest root of the intercept function above start, searching up
// to one full turn. A bracket in which only the derivative changes sign is narrowed onto
// the extremum: it is a tangent root when the function vanishes there, otherwise the
// search restarts just past it.
func FindRoot(c, b, k, start float64) RootResult {
	for restart := 0; restart < maxRestarts; restart++ {
		angle, next, outcome := findRootFrom(c, b, k, start)
		switch outcome {
		case rootFound:
			return RootResult{Angle: angle, Found: true}
		case rootTangent:
			return RootResult{Angle: angle, Found: true, Tangent: true}
		case rootRetry:
			start = next
		default:
			return RootResult{}
		}
	}
	return RootResult{}
}

type searchOutcome int

const (
	rootNone searchOutcome = iota
	rootFound
	rootTangent
	rootRetry
)

func findRootFrom(c, b, k, start float64) (float64, float64, searchOutcome) {
	f := func(a float64) float64 { return interceptFunction(c, b, k, a) }
	df := func(a float64) float64 { return interceptDerivative(c, b, k, a) }

	// Never start exactly at 0, where the derivative vanishes.
	end := start + rootPrecision/10
	fEnd, dfEnd := f(end), df(end)
	var begin, fBegin, dfBegin float64

	for {
		begin, fBegin, dfBegin = end, fEnd, dfEnd
		end = begin + bigStep
		if end > maxRootValue {
			end = maxRootValue
			fEnd = f(end)
			break
		}
		fEnd, dfEnd = f(end), df(end)
		if !(fBegin*fEnd > 0 && dfBegin*dfEnd > 0) {
			break
		}
	}
	if math.IsNaN(fBegin) || math.IsNaN(fEnd) {
		return 0, 0, rootNone
	}

	if fBegin*fEnd > 0 {
		if !(dfBegin*dfEnd < 0) {
			return 0, 0, rootNone
		}
		// The derivative changed sign: narrow down until the function does too, or
		// the bracket collapses onto an extremum that is not a root.
		middle := (begin + end) / 2
		fMiddle, dfMiddle := f(middle), df(middle)
		for fBegin*fEnd > 0 {
			switch {
			case dfEnd*dfMiddle < 0:
				begin, fBegin, dfBegin = middle, fMiddle, dfMiddle
			case dfBegin*dfMiddle < 0:
				end, fEnd, dfEnd = middle, fMiddle, dfMiddle
			default:
				return extremum(middle, fMiddle, end)
			}
			middle = (begin + end) / 2
			fMiddle, dfMiddle = f(middle), df(middle)
			if math.IsNaN(fMiddle) {
				return 0, 0, rootNone
			}
			if end-middle < rootPrecision {
				return extremum(middle, fMiddle, end)
			}
		}
	}

	// Bisection on the function itself.
	middle := (begin + end) / 2
	fMiddle := f(middle)
	for end-middle > rootPrecision {
		switch {
		case fEnd*fMiddle < 0:
			begin, fBegin = middle, fMiddle
		case fBegin*fMiddle < 0:
			end, fEnd = middle, fMiddle
		case fMiddle == 0:
			return middle, 0, rootFound
		default:
			return 0, 0, rootNone
		}
		middle = (begin + end) / 2
		fMiddle = f(middle)
	}
	return middle, 0, rootFound
}

// extremum classifies the point a derivative bracket collapsed onto.
func extremum(at, f, end float64) (float64, float64, searchOutcome) {
	if math.Abs(f) < rootPrecision {
		return at, 0, rootTangent
	}
	return 0, end, rootRetry
}

// ComputeInterceptPoint returns where a pursuer flying at pursuerSpeed should aim to
// meet a target at targetPos heading for targetDest at targetSpeed. When no consistent
// rendezvous exists the target's current position is returned with Found unset.
func ComputeInterceptPoint(pursuerPos geo.Position, pursuerSpeed float64, targetPos, targetDest geo.Position, targetSpeed float64) Intercept {
	direct := Intercept{Point: geo.CheckPositionBoundaries(targetPos)}
	if targetSpeed <= 0 || pursuerSpeed <= 0 {
		return direct
	}
	k := pursuerSpeed / targetSpeed
	direct.SpeedRatio = k

	c := geo.DistanceOnGlobe(pursuerPos, targetPos) * math.Pi / 180
	if c < degenerateDist || geo.DistanceOnGlobe(targetPos, targetDest) < degenerateDist {
		return direct
	}

	s := geo.PolarToVec(pursuerPos)
	t := geo.PolarToVec(targetPos)
	d := geo.PolarToVec(targetDest)

	// Tangents at the target pointing toward the pursuer and along the target's heading.
	towardPursuer := geo.RotatePointAroundVector(geo.Normalize(geo.Cross(t, s)), t, 90)
	headingAxis := geo.Normalize(geo.Cross(t, d))
	heading := geo.RotatePointAroundVector(headingAxis, t, 90)
	b := math.Acos(math.Max(-1, math.Min(1, geo.Dot(towardPursuer, heading))))

	a := 0.0
	for i := 0; i < maxCandidates; i++ {
		root := FindRoot(c, b, k, a)
		if !root.Found {
			break
		}
		a = root.Angle

		dest := geo.VecToPolar(geo.RotatePointAroundVector(headingAxis, t, a*180/math.Pi))
		if dest.IsNaN() {
			break
		}
		pursuerArc := geo.DistanceOnGlobe(pursuerPos, dest) * math.Pi / 180
		if math.Abs(pursuerArc-k*a) < timeTolerance {
			return Intercept{
				Point:        geo.CheckPositionBoundaries(dest),
				Found:        true,
				TargetAngle:  a,
				PursuerAngle: pursuerArc,
				SpeedRatio:   k,
			}
		}
		if root.Tangent {
			a += tangentSkip
		}
	}
	return direct
}
