package engine

import (
	"fmt"
	"math/rand"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/core"
	"github.com/picogrid/geoscape-sim/pkg/geo"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

const secondsPerHour = 3600.0

// Limits caps the per-state collections.
type Limits struct {
	MaxProjectiles int
	// MaxDetectingRange is how far, in degrees, an interceptor UFO looks for aircraft.
	MaxDetectingRange float64
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{
		MaxProjectiles:    32,
		MaxDetectingRange: 25,
	}
}

// Options configures a new State. Nil collaborators get the in-memory defaults.
type Options struct {
	Catalog    *Catalog
	Radar      RadarSettings
	Limits     Limits
	Random     RandomSource
	Notifier   Notifier
	Crew       Crew
	Missions   Missions
	Facilities Facilities
	Logger     logger.Logger
}

// Counters are running campaign totals.
type Counters struct {
	Shots         int `json:"shots"`
	Hits          int `json:"hits"`
	Misses        int `json:"misses"`
	UFOsDetected  int `json:"ufos_detected"`
	Detections    int `json:"detections"`
	UFOsDestroyed int `json:"ufos_destroyed"`
	AircraftLost  int `json:"aircraft_lost"`
}

// State is the whole mutable geoscape.
type State struct {
	catalog    *Catalog
	radar      RadarSettings
	limits     Limits
	rnd        RandomSource
	calc       *core.EngagementCalculator
	notifier   Notifier
	crew       Crew
	missions   Missions
	facilities Facilities
	log        logger.Logger

	units         map[UnitID]*Unit
	order         []UnitID
	retired       []*Unit
	bases         map[BaseID]*Base
	baseOrder     []BaseID
	installations map[InstallationID]*Installation
	instOrder     []InstallationID
	projectiles   []*Projectile

	clock            float64
	tick             int64
	nextUnitID       UnitID
	nextProjectileID ProjectileID
	counters         Counters

	sinceDetection float64
	sinceHour      float64
	overlayDirty   bool
	destroyed      []UnitID
}

// NewState creates an empty geoscape.
func NewState(opts Options) *State {
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Radar == (RadarSettings{}) {
		opts.Radar = DefaultRadarSettings()
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if opts.Random == nil {
		opts.Random = rand.New(rand.NewSource(1))
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Crew == nil {
		opts.Crew = NewFixedCrew(1)
	}
	if opts.Missions == nil {
		opts.Missions = NewStaticMissions(nil)
	}
	if opts.Facilities == nil {
		opts.Facilities = NewOpenFacilities()
	}
	if opts.Logger == nil {
		opts.Logger = logger.WithPrefix("engine")
	}

	return &State{
		catalog:       opts.Catalog,
		radar:         opts.Radar,
		limits:        opts.Limits,
		rnd:           opts.Random,
		calc:          core.NewEngagementCalculator(),
		notifier:      opts.Notifier,
		crew:          opts.Crew,
		missions:      opts.Missions,
		facilities:    opts.Facilities,
		log:           opts.Logger,
		units:         make(map[UnitID]*Unit),
		bases:         make(map[BaseID]*Base),
		installations: make(map[InstallationID]*Installation),
	}
}

func (s *State) Catalog() *Catalog { return s.catalog }

func (s *State) RadarSettings() RadarSettings { return s.radar }

func (s *State) Limits() Limits { return s.limits }

// Clock is the simulated time in seconds since the start of the campaign.
func (s *State) Clock() float64 { return s.clock }

func (s *State) Tick() int64 { return s.tick }

func (s *State) Counters() Counters { return s.counters }

// Restore sets the clock and totals of a state rebuilt from storage.
func (s *State) Restore(tick int64, clock float64, counters Counters) {
	s.tick = tick
	s.clock = clock
	s.counters = counters
}

// AddUnit assigns the next ID to u and places it on the geoscape. Aircraft need an
// existing home base; a UFO added as parked starts in transit. A radar is fitted from
// the template if the unit has none.
func (s *State) AddUnit(u *Unit) (UnitID, error) {
	if !u.Status.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStatus, u.Status)
	}
	if u.IsUFO() {
		// UFOs have no base to sit in.
		if u.Status.InBase() {
			u.Status = StatusTransit
		}
	} else if _, ok := s.bases[u.Home]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoSuchBase, u.Home)
	}
	s.nextUnitID++
	u.ID = s.nextUnitID
	s.place(u)
	return u.ID, nil
}

// RestoreUnit adds a unit that keeps its saved ID.
func (s *State) RestoreUnit(u *Unit) error {
	if u.ID == 0 {
		return fmt.Errorf("%w: zero unit id", ErrNoSuchUnit)
	}
	if _, ok := s.units[u.ID]; ok {
		return fmt.Errorf("%w: unit %d", ErrDuplicateID, u.ID)
	}
	if !u.Status.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, u.Status)
	}
	if u.ID > s.nextUnitID {
		s.nextUnitID = u.ID
	}
	s.place(u)
	return nil
}

func (s *State) place(u *Unit) {
	if u.Radar.Range == 0 && u.Radar.TrackingRange == 0 && u.Template != nil && u.Template.RadarRange > 0 {
		u.Radar = InitializeRadar(u.Template.RadarRange, u.Template.RadarTrackingRange, 1, s.radar)
	}
	s.units[u.ID] = u
	s.order = append(s.order, u.ID)
}

// Unit resolves a handle. Destroyed units stay resolvable; removed ones do not.
func (s *State) Unit(id UnitID) (*Unit, bool) {
	u, ok := s.units[id]
	return u, ok
}

// Units returns every unit in insertion order.
func (s *State) Units() []*Unit {
	out := make([]*Unit, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.units[id])
	}
	return out
}

// Aircraft returns the player aircraft in insertion order.
func (s *State) Aircraft() []*Unit {
	return s.unitsOfKind(KindAircraft)
}

// UFOs returns the hostile craft in insertion order.
func (s *State) UFOs() []*Unit {
	return s.unitsOfKind(KindUFO)
}

func (s *State) unitsOfKind(k Kind) []*Unit {
	var out []*Unit
	for _, id := range s.order {
		if u := s.units[id]; u.Kind == k {
			out = append(out, u)
		}
	}
	return out
}

// Retired returns the units removed from play without being shot down.
func (s *State) Retired() []*Unit {
	return append([]*Unit(nil), s.retired...)
}

// live returns the unit behind id if it is still flying or parked.
func (s *State) live(id UnitID) *Unit {
	if id == 0 {
		return nil
	}
	if u, ok := s.units[id]; ok && u.Alive() {
		return u
	}
	return nil
}

// RemoveUnit takes a unit out of play and retracts every reference to it. Projectiles
// aiming at it turn idle and their attackers head home; projectiles it fired lose their
// attacker. A destroyed unit stays in the state with status Destroyed and its slots
// cleared; any other unit is dropped.
func (s *State) RemoveUnit(id UnitID, destroyed bool) error {
	u, ok := s.units[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUnit, id)
	}

	for _, p := range s.projectiles {
		if p.Target == id {
			s.MissTarget(p, true)
		}
	}
	for _, p := range s.projectiles {
		if p.Attacker == id {
			p.Attacker = 0
		}
	}

	if u.IsUFO() {
		s.NotifyUFORemoved(u, destroyed)
	} else {
		s.notifyAircraftRemoved(u)
	}

	if destroyed {
		u.Status = StatusDestroyed
		u.Target = 0
		u.Mission = ""
		u.Route = geo.Route{}
		u.clearSlots()
		s.destroyed = append(s.destroyed, id)
		s.notifier.UnitDestroyed(id)
		return nil
	}

	delete(s.units, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.retired = append(s.retired, u)
	return nil
}

// notifyAircraftRemoved drops the aircraft from every UFO's target.
func (s *State) notifyAircraftRemoved(aircraft *Unit) {
	for _, ufo := range s.UFOs() {
		if ufo.Target != aircraft.ID {
			continue
		}
		ufo.Target = 0
		if ufo.Status == StatusPursuit {
			ufo.Status = StatusTransit
		}
	}
}

// AddBase registers a base.
func (s *State) AddBase(b *Base) error {
	if _, ok := s.bases[b.ID]; ok {
		return fmt.Errorf("%w: base %q", ErrDuplicateID, b.ID)
	}
	s.bases[b.ID] = b
	s.baseOrder = append(s.baseOrder, b.ID)
	return nil
}

func (s *State) Base(id BaseID) (*Base, bool) {
	b, ok := s.bases[id]
	return b, ok
}

// Bases returns the bases in insertion order.
func (s *State) Bases() []*Base {
	out := make([]*Base, 0, len(s.baseOrder))
	for _, id := range s.baseOrder {
		out = append(out, s.bases[id])
	}
	return out
}

// homeBase returns the base of a player aircraft. A missing base is a bug.
func (s *State) homeBase(u *Unit) *Base {
	b, ok := s.bases[u.Home]
	if !ok {
		panic(fmt.Sprintf("engine: aircraft %d (%s) has no home base %q", u.ID, u.Name, u.Home))
	}
	return b
}

// AddInstallation registers an installation.
func (s *State) AddInstallation(in *Installation) error {
	if _, ok := s.installations[in.ID]; ok {
		return fmt.Errorf("%w: installation %q", ErrDuplicateID, in.ID)
	}
	s.installations[in.ID] = in
	s.instOrder = append(s.instOrder, in.ID)
	return nil
}

func (s *State) Installation(id InstallationID) (*Installation, bool) {
	in, ok := s.installations[id]
	return in, ok
}

// Installations returns the installations in insertion order.
func (s *State) Installations() []*Installation {
	out := make([]*Installation, 0, len(s.instOrder))
	for _, id := range s.instOrder {
		out = append(out, s.installations[id])
	}
	return out
}

// Projectiles returns the projectiles in flight, oldest first.
func (s *State) Projectiles() []*Projectile {
	return append([]*Projectile(nil), s.projectiles...)
}

// RestoreProjectile adds a projectile that keeps its saved ID. Its attacker and live
// target must already be present; a missing attacker is dropped, a missing target
// turns the shot idle.
func (s *State) RestoreProjectile(p *Projectile) error {
	if p.Ammo == nil {
		return fmt.Errorf("%w: projectile %d has no ammo", ErrUnknownItem, p.ID)
	}
	if len(s.projectiles) >= s.limits.MaxProjectiles {
		return ErrProjectileLimit
	}
	for _, other := range s.projectiles {
		if other.ID == p.ID {
			return fmt.Errorf("%w: projectile %d", ErrDuplicateID, p.ID)
		}
	}
	if p.Attacker != 0 && s.live(p.Attacker) == nil {
		p.Attacker = 0
	}
	if p.Target != 0 && s.live(p.Target) == nil {
		p.Target = 0
	}
	if p.ID > s.nextProjectileID {
		s.nextProjectileID = p.ID
	}
	s.projectiles = append(s.projectiles, p)
	return nil
}

// TeamSize reports the crew of an aircraft.
func (s *State) TeamSize(id UnitID) int {
	return s.crew.TeamSize(id)
}
