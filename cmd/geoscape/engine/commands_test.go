package engine

import (
	"errors"
	"testing"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

func TestPursueUFONeedsPilot(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 1})
	a := f.aircraft(t, "Raven")
	f.crew.SetPilot(a.ID, false)

	if err := f.state.PursueUFO(a.ID, ufo.ID); !errors.Is(err, ErrNoPilot) {
		t.Fatalf("PursueUFO() error = %v, want ErrNoPilot", err)
	}
	if err := f.state.PursueUFO(a.ID, a.ID); !errors.Is(err, ErrNoSuchUnit) {
		t.Errorf("pursuing an aircraft error = %v, want ErrNoSuchUnit", err)
	}
}

func TestPursueUFOOutOfFuel(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 40})
	a := f.aircraft(t, "Raven")
	must(t, f.state.SendToDestination(a.ID, geo.Position{Lon: 0.2}))
	a.Fuel = 10

	err := f.state.PursueUFO(a.ID, ufo.ID)
	if !errors.Is(err, ErrInsufficientFuel) {
		t.Fatalf("PursueUFO() error = %v, want ErrInsufficientFuel", err)
	}
	if a.Status != StatusReturning {
		t.Errorf("status = %v, want returning", a.Status)
	}
}

func TestInterceptorPicksNearestAircraft(t *testing.T) {
	f := newFixture(t)
	farthest := f.aircraft(t, "Far")
	closest := f.aircraft(t, "Close")
	must(t, f.state.SendToDestination(farthest.ID, geo.Position{Lon: -1}))
	must(t, f.state.SendToDestination(closest.ID, geo.Position{Lon: 1}))
	farthest.Pos = geo.Position{Lon: -10}
	closest.Pos = geo.Position{Lon: 8}

	ufo := f.ufo(t, "Hunter", geo.Position{Lon: 10})
	ufo.Interceptor = true
	ufo.Detected = true

	f.state.UFOSearchTarget(ufo)

	if ufo.Status != StatusPursuit || ufo.Target != closest.ID {
		t.Fatalf("status = %v target = %d, want pursuit of %d", ufo.Status, ufo.Target, closest.ID)
	}
	if f.notes.count(NoticeUFOAttacking) != 1 {
		t.Errorf("attack notices = %d, want 1", f.notes.count(NoticeUFOAttacking))
	}
}

func TestUFOWithoutWeaponsStaysInTransit(t *testing.T) {
	f := newFixture(t)
	a := f.aircraft(t, "Raven")
	must(t, f.state.SendToDestination(a.ID, geo.Position{Lon: 1}))
	ufo := f.ufo(t, "Hunter", geo.Position{Lon: 2})
	ufo.Interceptor = true
	ufo.Weapons[0].clear()

	f.state.UFOSearchTarget(ufo)

	if ufo.Status != StatusTransit || ufo.Target != 0 {
		t.Errorf("status = %v target = %d, want transit with no target", ufo.Status, ufo.Target)
	}
}

func TestSendToDestinationClearsMission(t *testing.T) {
	f := newFixture(t)
	f.missions.AddSite("crash-1", geo.Position{Lon: 2})
	a := f.aircraft(t, "Raven")
	must(t, f.state.SendToMission(a.ID, "crash-1"))

	must(t, f.state.SendToDestination(a.ID, geo.Position{Lon: 0, Lat: 1}))
	if a.Status != StatusTransit || a.Mission != "" {
		t.Errorf("status = %v mission = %q, want transit without mission", a.Status, a.Mission)
	}
	if err := f.state.SendToDestination(999, geo.Position{}); !errors.Is(err, ErrNoSuchUnit) {
		t.Errorf("unknown unit error = %v, want ErrNoSuchUnit", err)
	}
}
