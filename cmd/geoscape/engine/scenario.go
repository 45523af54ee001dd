package engine

import (
	"sort"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notice(NoticeKind, string) {}
func (NopNotifier) MissionRemoved(MissionID)  {}
func (NopNotifier) UFORemoved(UnitID, bool)   {}
func (NopNotifier) UnitDestroyed(UnitID)      {}
func (NopNotifier) UnitBecameVisible(UnitID)  {}

// FixedCrew gives every aircraft the same team size unless overridden per unit.
type FixedCrew struct {
	defaultSize int
	sizes       map[UnitID]int
	noPilot     map[UnitID]bool
}

// NewFixedCrew creates a crew table where every aircraft has a pilot and size soldiers.
func NewFixedCrew(size int) *FixedCrew {
	return &FixedCrew{
		defaultSize: size,
		sizes:       make(map[UnitID]int),
		noPilot:     make(map[UnitID]bool),
	}
}

// SetTeamSize overrides the team size of one aircraft.
func (c *FixedCrew) SetTeamSize(id UnitID, size int) {
	c.sizes[id] = size
}

// SetPilot assigns or removes the pilot of one aircraft.
func (c *FixedCrew) SetPilot(id UnitID, assigned bool) {
	if assigned {
		delete(c.noPilot, id)
		return
	}
	c.noPilot[id] = true
}

func (c *FixedCrew) TeamSize(id UnitID) int {
	if n, ok := c.sizes[id]; ok {
		return n
	}
	return c.defaultSize
}

func (c *FixedCrew) HasPilot(id UnitID) bool {
	return !c.noPilot[id]
}

// Drop records an aircraft reaching a mission site.
type Drop struct {
	Aircraft UnitID
	Mission  MissionID
}

// Wreck records where a unit was shot down.
type Wreck struct {
	Unit UnitID
	Pos  geo.Position
}

// StaticMissions is a fixed table of mission sites. It records what happens at them
// instead of running ground combat.
type StaticMissions struct {
	sites      map[MissionID]geo.Position
	stages     map[UnitID]int
	drops      []Drop
	crashSites []Wreck
	rescues    []Wreck
	proceeded  map[UnitID]int
}

// NewStaticMissions creates a mission table from site positions.
func NewStaticMissions(sites map[MissionID]geo.Position) *StaticMissions {
	m := &StaticMissions{
		sites:     make(map[MissionID]geo.Position, len(sites)),
		stages:    make(map[UnitID]int),
		proceeded: make(map[UnitID]int),
	}
	for id, pos := range sites {
		m.sites[id] = pos
	}
	return m
}

// AddSite registers or moves a mission site.
func (m *StaticMissions) AddSite(id MissionID, pos geo.Position) {
	m.sites[id] = pos
}

// RemoveSite drops a mission site. Callers should also tell the state with
// NotifyMissionRemoved.
func (m *StaticMissions) RemoveSite(id MissionID) {
	delete(m.sites, id)
}

// Sites lists the mission IDs in name order.
func (m *StaticMissions) Sites() []MissionID {
	ids := make([]MissionID, 0, len(m.sites))
	for id := range m.sites {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetStages makes a UFO leave play after reaching n more waypoints. Zero or less keeps
// it flying forever.
func (m *StaticMissions) SetStages(ufo UnitID, n int) {
	if n <= 0 {
		delete(m.stages, ufo)
		return
	}
	m.stages[ufo] = n
}

func (m *StaticMissions) Position(id MissionID) (geo.Position, bool) {
	pos, ok := m.sites[id]
	return pos, ok
}

func (m *StaticMissions) StartGroundCombat(aircraft UnitID, mission MissionID) {
	m.drops = append(m.drops, Drop{Aircraft: aircraft, Mission: mission})
}

func (m *StaticMissions) NextStage(ufo UnitID) bool {
	n, ok := m.stages[ufo]
	if !ok {
		return false
	}
	n--
	if n > 0 {
		m.stages[ufo] = n
		return false
	}
	delete(m.stages, ufo)
	return true
}

func (m *StaticMissions) ProceedMission(ufo UnitID) {
	m.proceeded[ufo]++
}

func (m *StaticMissions) UFOShotDown(ufo UnitID, pos geo.Position) {
	m.crashSites = append(m.crashSites, Wreck{Unit: ufo, Pos: pos})
	delete(m.stages, ufo)
}

func (m *StaticMissions) AircraftShotDown(aircraft UnitID, pos geo.Position) {
	m.rescues = append(m.rescues, Wreck{Unit: aircraft, Pos: pos})
}

// Drops returns the ground-combat starts and forgets them.
func (m *StaticMissions) Drops() []Drop {
	out := m.drops
	m.drops = nil
	return out
}

func (m *StaticMissions) CrashSites() []Wreck {
	return append([]Wreck(nil), m.crashSites...)
}

func (m *StaticMissions) Rescues() []Wreck {
	return append([]Wreck(nil), m.rescues...)
}

// Proceeded reports how often a UFO was handed back to its mission.
func (m *StaticMissions) Proceeded(ufo UnitID) int {
	return m.proceeded[ufo]
}

// OpenFacilities has every base powered and, unless limited, unlimited antimatter.
type OpenFacilities struct {
	offline    map[BaseID]bool
	antimatter map[BaseID]int
}

// unlimitedAntimatter is reported for bases without a configured stock.
const unlimitedAntimatter = 1 << 30

// NewOpenFacilities creates a facility table with every base operational.
func NewOpenFacilities() *OpenFacilities {
	return &OpenFacilities{
		offline:    make(map[BaseID]bool),
		antimatter: make(map[BaseID]int),
	}
}

// SetOperational powers a base up or down.
func (f *OpenFacilities) SetOperational(id BaseID, up bool) {
	if up {
		delete(f.offline, id)
		return
	}
	f.offline[id] = true
}

// SetAntimatter limits the antimatter stock of a base.
func (f *OpenFacilities) SetAntimatter(id BaseID, amount int) {
	f.antimatter[id] = amount
}

func (f *OpenFacilities) BaseOperational(id BaseID) bool {
	return !f.offline[id]
}

func (f *OpenFacilities) Antimatter(id BaseID) int {
	if n, ok := f.antimatter[id]; ok {
		return n
	}
	return unlimitedAntimatter
}

func (f *OpenFacilities) ConsumeAntimatter(id BaseID, amount int) {
	n, ok := f.antimatter[id]
	if !ok {
		return
	}
	n -= amount
	if n < 0 {
		n = 0
	}
	f.antimatter[id] = n
}
