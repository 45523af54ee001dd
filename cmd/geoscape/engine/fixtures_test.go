package engine

import (
	"math"
	"testing"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// fixedRandom returns the same draws forever.
type fixedRandom struct {
	uniform float64
	normal  float64
}

func (r *fixedRandom) Float64() float64     { return r.uniform }
func (r *fixedRandom) NormFloat64() float64 { return r.normal }

type notice struct {
	kind    NoticeKind
	message string
}

type recordingNotifier struct {
	notices   []notice
	removed   []UnitID
	destroyed []UnitID
	visible   []UnitID
	missions  []MissionID
}

func (n *recordingNotifier) Notice(kind NoticeKind, message string) {
	n.notices = append(n.notices, notice{kind, message})
}
func (n *recordingNotifier) MissionRemoved(id MissionID)  { n.missions = append(n.missions, id) }
func (n *recordingNotifier) UFORemoved(id UnitID, _ bool) { n.removed = append(n.removed, id) }
func (n *recordingNotifier) UnitDestroyed(id UnitID)      { n.destroyed = append(n.destroyed, id) }
func (n *recordingNotifier) UnitBecameVisible(id UnitID)  { n.visible = append(n.visible, id) }

func (n *recordingNotifier) count(kind NoticeKind) int {
	c := 0
	for _, x := range n.notices {
		if x.kind == kind {
			c++
		}
	}
	return c
}

type fixture struct {
	state      *State
	rnd        *fixedRandom
	notes      *recordingNotifier
	crew       *FixedCrew
	missions   *StaticMissions
	facilities *OpenFacilities
	base       *Base
}

// Speeds are in degrees per hour: the interceptor covers 0.1° and shells 1° per second.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	must(t, c.AddWeapon(WeaponDef{ID: "cannon", Name: "Cannon", Bullets: true}))
	must(t, c.AddAmmo(AmmoDef{ID: "shells", Name: "Shells", Damage: 50, Speed: 3600, Range: 4, Accuracy: 0.6, WeaponDelay: 10, Clip: 5}))
	must(t, c.AddElectronics(ElectronicsDef{ID: "booster", Name: "Booster", Modifiers: map[Stat]float64{StatSpeed: 1.5, StatShield: 5}}))
	must(t, c.AddTemplate(Template{
		ID:                 "interceptor",
		Name:               "Interceptor",
		Kind:               KindAircraft,
		Stats:              Stats{Speed: 360, MaxSpeed: 360, Damage: 100, Accuracy: 100, FuelSize: 36000},
		WeaponSlots:        2,
		ElectronicsSlots:   1,
		Weapons:            []Loadout{{Weapon: "cannon", Ammo: "shells"}},
		RadarRange:         5,
		RadarTrackingRange: 7,
	}))
	must(t, c.AddTemplate(Template{
		ID:          "scout",
		Name:        "Scout",
		Kind:        KindUFO,
		Stats:       Stats{Speed: 180, MaxSpeed: 180, Damage: 60, Shield: 10, Accuracy: 100, FuelSize: 1000},
		WeaponSlots: 1,
		Weapons:     []Loadout{{Weapon: "cannon", Ammo: "shells"}},
	}))
	return c
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rnd:        &fixedRandom{uniform: 0, normal: 0},
		notes:      &recordingNotifier{},
		crew:       NewFixedCrew(4),
		missions:   NewStaticMissions(nil),
		facilities: NewOpenFacilities(),
	}
	radar := DefaultRadarSettings()
	radar.DetectionInterval = 0
	f.state = NewState(Options{
		Catalog:    testCatalog(t),
		Radar:      radar,
		Random:     f.rnd,
		Notifier:   f.notes,
		Crew:       f.crew,
		Missions:   f.missions,
		Facilities: f.facilities,
	})
	f.base = &Base{ID: "alpha", Name: "Alpha", Pos: geo.Position{}, Radar: f.state.BaseRadar(1)}
	must(t, f.state.AddBase(f.base))
	return f
}

func (f *fixture) aircraft(t *testing.T, name string) *Unit {
	t.Helper()
	tmpl, err := f.state.Catalog().Template("interceptor")
	must(t, err)
	u, err := f.state.Catalog().NewUnit(tmpl, name)
	must(t, err)
	u.Home = f.base.ID
	u.Pos = f.base.Pos
	_, err = f.state.AddUnit(u)
	must(t, err)
	return u
}

func (f *fixture) ufo(t *testing.T, name string, pos geo.Position) *Unit {
	t.Helper()
	tmpl, err := f.state.Catalog().Template("scout")
	must(t, err)
	u, err := f.state.Catalog().NewUnit(tmpl, name)
	must(t, err)
	u.Pos = pos
	u.Status = StatusTransit
	_, err = f.state.AddUnit(u)
	must(t, err)
	return u
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
