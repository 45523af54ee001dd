package engine

import (
	"testing"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

func TestInitializeRadar(t *testing.T) {
	settings := DefaultRadarSettings()

	tests := []struct {
		name         string
		level        float64
		wantRange    float64
		wantTracking float64
	}{
		{"no radar", 0, 0, 0},
		{"level one", 1, 24, 34},
		{"level three", 3, 24 * 1.8, 34 * 1.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := InitializeRadar(24, 34, tt.level, settings)
			if !near(r.Range, tt.wantRange, 1e-9) || !near(r.TrackingRange, tt.wantTracking, 1e-9) {
				t.Errorf("ranges = %v/%v, want %v/%v", r.Range, r.TrackingRange, tt.wantRange, tt.wantTracking)
			}
		})
	}
}

func TestRadarContactsAreBounded(t *testing.T) {
	r := Radar{MaxContacts: 2}
	if !r.AddContact(1) || !r.AddContact(2) {
		t.Fatal("AddContact() failed below the limit")
	}
	if !r.AddContact(2) {
		t.Error("re-adding a tracked contact should succeed")
	}
	if r.AddContact(3) {
		t.Error("AddContact() should fail once full")
	}
	r.RemoveContact(1)
	if got := r.Contacts(); len(got) != 1 || got[0] != 2 {
		t.Errorf("Contacts() = %v, want [2]", got)
	}
}

func TestCheckEventsDetectsAndLoses(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 10})

	f.rnd.uniform = 0.5
	if f.state.CheckEvents() {
		t.Fatal("a roll above the detection probability should not detect")
	}

	f.rnd.uniform = 0
	if !f.state.CheckEvents() {
		t.Fatal("CheckEvents() should report the new detection")
	}
	if !ufo.Detected || ufo.DetectionIndex != 1 {
		t.Errorf("detected = %v index = %d, want true/1", ufo.Detected, ufo.DetectionIndex)
	}
	if !f.base.Radar.IsTracked(ufo.ID) {
		t.Error("base radar should track the UFO")
	}
	if f.notes.count(NoticeUFOSpotted) != 1 {
		t.Errorf("spotted notices = %d, want 1", f.notes.count(NoticeUFOSpotted))
	}

	// Beyond detection range but inside tracking range the contact holds.
	ufo.Pos = geo.Position{Lon: 30}
	f.rnd.uniform = 0.99
	f.state.CheckEvents()
	if !ufo.Detected {
		t.Fatal("UFO inside tracking range should stay detected")
	}

	ufo.Pos = geo.Position{Lon: 50}
	f.state.CheckEvents()
	if ufo.Detected || f.base.Radar.IsTracked(ufo.ID) {
		t.Error("UFO outside tracking range should be lost")
	}
	if f.notes.count(NoticeSignalLost) != 1 {
		t.Errorf("signal lost notices = %d, want 1", f.notes.count(NoticeSignalLost))
	}

	// A UFO seen again keeps its number.
	ufo.Pos = geo.Position{Lon: 10}
	f.rnd.uniform = 0
	f.state.CheckEvents()
	if ufo.DetectionIndex != 1 || f.state.Counters().UFOsDetected != 1 {
		t.Errorf("index = %d detected total = %d, want 1/1", ufo.DetectionIndex, f.state.Counters().UFOsDetected)
	}
}

func TestLostUFOSendsPursuersHome(t *testing.T) {
	f := newFixture(t)
	f.facilities.SetOperational(f.base.ID, false)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 4})
	a := f.aircraft(t, "Raven")
	must(t, f.state.PursueUFO(a.ID, ufo.ID))

	f.state.CheckEvents()
	if !ufo.Detected || !a.Radar.IsTracked(ufo.ID) {
		t.Fatal("aircraft radar should detect a UFO 4° away")
	}

	ufo.Pos = geo.Position{Lon: 20}
	f.state.CheckEvents()
	if ufo.Detected {
		t.Fatal("UFO should be lost once outside the aircraft's tracking range")
	}
	if a.Status != StatusReturning {
		t.Errorf("pursuer status = %v, want returning", a.Status)
	}
}

func TestCheckRadarSensoredIgnoresAircraft(t *testing.T) {
	f := newFixture(t)
	a := f.aircraft(t, "Raven")
	a.Status = StatusIdle
	a.Pos = geo.Position{Lon: 60}

	if f.state.CheckRadarSensored(geo.Position{Lon: 61}) {
		t.Error("aircraft radar should not count as ground coverage")
	}
	if !f.state.CheckRadarSensored(geo.Position{Lon: 20}) {
		t.Error("a point 20° from the base should be covered")
	}
}

func TestRestoreContacts(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 10})
	ufo.Detected = true

	f.state.RestoreContacts()
	if !f.base.Radar.IsTracked(ufo.ID) {
		t.Error("RestoreContacts() should put a detected UFO back on the base radar")
	}
}

func TestDetectedUFOSkipsInactiveRadars(t *testing.T) {
	f := newFixture(t)
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 10})
	outpost := &Installation{ID: "outpost", Name: "Outpost", Pos: geo.Position{Lon: 12}, Radar: f.state.BaseRadar(1)}
	must(t, f.state.AddInstallation(outpost))
	f.facilities.SetOperational(f.base.ID, false)

	f.state.AddDetectedUFOToEveryRadar(ufo)
	if f.base.Radar.IsTracked(ufo.ID) {
		t.Error("a base without power should not track the UFO")
	}
	if outpost.Radar.IsTracked(ufo.ID) {
		t.Error("an installation under construction should not track the UFO")
	}

	f.facilities.SetOperational(f.base.ID, true)
	outpost.Working = true
	f.state.AddDetectedUFOToEveryRadar(ufo)
	if !f.base.Radar.IsTracked(ufo.ID) || !outpost.Radar.IsTracked(ufo.ID) {
		t.Errorf("active radars should track the UFO, base %v outpost %v",
			f.base.Radar.IsTracked(ufo.ID), outpost.Radar.IsTracked(ufo.ID))
	}
}
