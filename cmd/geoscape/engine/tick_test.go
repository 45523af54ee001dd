package engine

import (
	"testing"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

func TestRunTickResolvesShotWithinTick(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 0.5})
	must(t, f.state.SendToDestination(ufo.ID, geo.Position{Lon: 0.5, Lat: 5}))
	a := f.aircraft(t, "Raven")
	must(t, f.state.PursueUFO(a.ID, ufo.ID))

	res := f.state.RunTick(1, true)

	if res.Tick != 1 || res.Clock != 1 {
		t.Errorf("tick/clock = %d/%v, want 1/1", res.Tick, res.Clock)
	}
	if !res.Moved || !res.OverlayRefresh {
		t.Errorf("moved/overlay = %v/%v, want true/true", res.Moved, res.OverlayRefresh)
	}
	if res.Shots != 1 || res.Hits != 1 || res.Misses != 0 {
		t.Errorf("shots/hits/misses = %d/%d/%d, want 1/1/0", res.Shots, res.Hits, res.Misses)
	}
	if res.ProjectilesInFlight != 0 {
		t.Errorf("projectiles in flight = %d, want 0", res.ProjectilesInFlight)
	}
	if !res.NewDetection || res.Detections != 1 {
		t.Errorf("new detection = %v detections = %d, want true/1", res.NewDetection, res.Detections)
	}
	if ufo.Damage != 20 {
		t.Errorf("ufo health = %v, want 20", ufo.Damage)
	}
	if ufo.Status != StatusPursuit || ufo.Target != a.ID {
		t.Errorf("ufo status = %v target = %d, want pursuit of the attacker", ufo.Status, ufo.Target)
	}
}

func TestRunTickPursuerOfLandedUFOReturns(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 2})
	a := f.aircraft(t, "Raven")
	must(t, f.state.PursueUFO(a.ID, ufo.ID))
	ufo.Landed = true

	res := f.state.RunTick(1, false)

	if a.Status != StatusReturning {
		t.Errorf("status = %v, want returning", a.Status)
	}
	if res.OverlayRefresh {
		t.Error("overlay refresh requested without asking for it")
	}
	if res.Shots != 0 {
		t.Errorf("shots = %d, want 0", res.Shots)
	}
}

func TestRunTickDetectionInterval(t *testing.T) {
	f := newFixture(t)
	f.state.radar.DetectionInterval = 10
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 10})
	must(t, f.state.SendToDestination(ufo.ID, geo.Position{Lon: 10, Lat: 1}))
	for i := 0; i < 9; i++ {
		if res := f.state.RunTick(1, false); res.NewDetection {
			t.Fatalf("detection pass ran early at tick %d", res.Tick)
		}
	}
	if res := f.state.RunTick(1, false); !res.NewDetection {
		t.Error("detection pass should run once the interval elapsed")
	}
}

func TestRunTickReportsDestroyed(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 0.5})
	must(t, f.state.SendToDestination(ufo.ID, geo.Position{Lon: 0.5, Lat: 5}))
	ufo.Damage = 10
	a := f.aircraft(t, "Raven")
	must(t, f.state.PursueUFO(a.ID, ufo.ID))

	res := f.state.RunTick(1, false)

	if len(res.Destroyed) != 1 || res.Destroyed[0] != ufo.ID {
		t.Fatalf("destroyed = %v, want [%d]", res.Destroyed, ufo.ID)
	}
	if a.Status != StatusReturning {
		t.Errorf("victorious pursuer status = %v, want returning", a.Status)
	}

	res = f.state.RunTick(1, false)
	if len(res.Destroyed) != 0 {
		t.Errorf("destroyed carried over into the next tick: %v", res.Destroyed)
	}
}
