// Package engine owns the mutable geoscape: aircraft and UFOs, bases and installations,
// their radars, and the projectiles in flight. All mutation happens on the goroutine
// that calls RunTick or one of the commands; State is not safe for concurrent use.
package engine

import (
	"fmt"
	"strings"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/core"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// Handles. Unit and projectile IDs are assigned by State and never reused; base,
// installation and mission IDs come from the scenario.
type (
	UnitID         uint64
	ProjectileID   uint64
	BaseID         string
	InstallationID string
	MissionID      string
)

// Kind separates player craft from hostile craft.
type Kind uint8

const (
	KindAircraft Kind = iota
	KindUFO
)

func (k Kind) String() string {
	if k == KindUFO {
		return "ufo"
	}
	return "aircraft"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "aircraft":
		return KindAircraft, nil
	case "ufo":
		return KindUFO, nil
	}
	return 0, fmt.Errorf("%w: kind %q", ErrUnknownItem, name)
}

// Status is the flight state of a unit.
type Status uint8

const (
	StatusHome             Status = iota // parked in its home base
	StatusRefueling                      // in base, filling up
	StatusIdle                           // hovering on the geoscape without a destination
	StatusTransit                        // flying to a point
	StatusMission                        // flying to a mission site
	StatusPursuit                        // chasing a target unit
	StatusReadyToDrop                    // on a mission site, waiting for ground combat
	StatusIntercepting                   // UFO patrolling its site looking for aircraft
	StatusTransferringBase               // moving to a new home base
	StatusReturning                      // flying back to its home base
	StatusDestroyed                      // shot down, terminal
)

var statusNames = [...]string{
	StatusHome:             "home",
	StatusRefueling:        "refueling",
	StatusIdle:             "idle",
	StatusTransit:          "transit",
	StatusMission:          "mission",
	StatusPursuit:          "pursuit",
	StatusReadyToDrop:      "ready_to_drop",
	StatusIntercepting:     "intercepting",
	StatusTransferringBase: "transferring_base",
	StatusReturning:        "returning",
	StatusDestroyed:        "destroyed",
}

func (s Status) String() string {
	if s.Valid() {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return int(s) < len(statusNames)
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
}

// InBase reports whether the unit is parked in its home base.
func (s Status) InBase() bool {
	return s == StatusHome || s == StatusRefueling
}

// OnGeoscape reports whether the unit is flying and visible on the world map.
// A unit transferring between bases is flying but not available for orders.
func (s Status) OnGeoscape() bool {
	switch s {
	case StatusIdle, StatusTransit, StatusMission, StatusPursuit,
		StatusReadyToDrop, StatusIntercepting, StatusReturning:
		return true
	}
	return false
}

// HomeBound reports whether the unit is already back or on its way back.
func (s Status) HomeBound() bool {
	return s == StatusReturning || s.InBase()
}

// Stat names an entry of the Stats vector.
type Stat string

const (
	StatSpeed       Stat = "speed"
	StatMaxSpeed    Stat = "max_speed"
	StatShield      Stat = "shield"
	StatECM         Stat = "ecm"
	StatDamage      Stat = "damage"
	StatAccuracy    Stat = "accuracy"
	StatFuelSize    Stat = "fuel_size"
	StatWeaponRange Stat = "weapon_range"
	StatAntimatter  Stat = "antimatter"
)

// Valid reports whether the stat names a Stats field.
func (s Stat) Valid() bool {
	var probe Stats
	return probe.field(s) != nil
}

// Stats are the aggregate flight and combat values of a unit. Speed is in degrees per
// hour, FuelSize in seconds of flight, Accuracy and ECM in percent.
type Stats struct {
	Speed       float64 `yaml:"speed" json:"speed"`
	MaxSpeed    float64 `yaml:"max_speed" json:"max_speed"`
	Shield      float64 `yaml:"shield" json:"shield"`
	ECM         float64 `yaml:"ecm" json:"ecm"`
	Damage      float64 `yaml:"damage" json:"damage"`
	Accuracy    float64 `yaml:"accuracy" json:"accuracy"`
	FuelSize    float64 `yaml:"fuel_size" json:"fuel_size"`
	WeaponRange float64 `yaml:"weapon_range" json:"weapon_range"`
	Antimatter  float64 `yaml:"antimatter" json:"antimatter"`
}

func (s *Stats) field(stat Stat) *float64 {
	switch stat {
	case StatSpeed:
		return &s.Speed
	case StatMaxSpeed:
		return &s.MaxSpeed
	case StatShield:
		return &s.Shield
	case StatECM:
		return &s.ECM
	case StatDamage:
		return &s.Damage
	case StatAccuracy:
		return &s.Accuracy
	case StatFuelSize:
		return &s.FuelSize
	case StatWeaponRange:
		return &s.WeaponRange
	case StatAntimatter:
		return &s.Antimatter
	}
	return nil
}

// apply adds a modifier whose magnitude exceeds 2 and multiplies by any other non-zero one.
func (s *Stats) apply(stat Stat, mod float64) {
	f := s.field(stat)
	if f == nil || mod == 0 {
		return
	}
	if mod > 2 || mod < -2 {
		*f += mod
		return
	}
	*f *= mod
}

// WeaponDef is a mountable weapon.
type WeaponDef struct {
	ID               string
	Name             string
	InstallationTime int // hours
	Bullets          bool
	Beam             bool
}

// AmmoDef is the ammunition a weapon fires. Range is in degrees, Speed in degrees per
// hour and WeaponDelay in seconds between shots.
type AmmoDef struct {
	ID          string
	Name        string
	Damage      float64
	Speed       float64
	Range       float64
	Accuracy    float64
	WeaponDelay float64
	Clip        int
	Unlimited   bool
}

// ElectronicsDef is a mountable stat modifier such as a radar or ECM pod.
type ElectronicsDef struct {
	ID               string
	Name             string
	InstallationTime int
	Modifiers        map[Stat]float64
}

// Slot holds one mounted weapon or electronics item.
type Slot struct {
	Weapon        *WeaponDef
	Ammo          *AmmoDef
	AmmoLeft      int
	DelayNextShot float64
	// InstallationTime counts hours: positive while installing, negative while removing.
	InstallationTime int
	Electronics      *ElectronicsDef
}

// Empty reports whether nothing is mounted.
func (s *Slot) Empty() bool {
	return s.Weapon == nil && s.Electronics == nil
}

func (s *Slot) unlimited() bool {
	return s.Ammo != nil && s.Ammo.Unlimited
}

// view is the read-only projection the engagement calculator works on.
func (s *Slot) view() core.SlotState {
	st := core.SlotState{
		Installed:        s.Weapon != nil,
		InstallationTime: s.InstallationTime,
		HasAmmo:          s.Ammo != nil,
		AmmoLeft:         s.AmmoLeft,
		UnlimitedAmmo:    s.unlimited(),
		DelayNextShot:    s.DelayNextShot,
	}
	if s.Ammo != nil {
		st.Range = s.Ammo.Range
	}
	return st
}

// reloadDelayMultiplier scales the weapon delay after a fresh clip is loaded.
const reloadDelayMultiplier = 2

// reload refills the clip. allowed is false when the owner cannot reach ammunition,
// such as an aircraft away from its base.
func (s *Slot) reload(allowed bool) bool {
	if s.Weapon == nil || s.Ammo == nil {
		return false
	}
	if s.AmmoLeft >= s.Ammo.Clip {
		return true
	}
	if !allowed {
		return false
	}
	s.AmmoLeft = s.Ammo.Clip
	s.DelayNextShot = s.Ammo.WeaponDelay * reloadDelayMultiplier
	return true
}

func (s *Slot) clear() {
	*s = Slot{}
}

// Template is the immutable baseline a unit is built from.
type Template struct {
	ID               string
	Name             string
	Kind             Kind
	Stats            Stats
	WeaponSlots      int
	ElectronicsSlots int
	Weapons          []Loadout
	Electronics      []string
	// Radar ranges in degrees for aircraft-borne radar; zero for none.
	RadarRange         float64
	RadarTrackingRange float64
}

// Loadout names the weapon and ammo mounted in one slot.
type Loadout struct {
	Weapon string
	Ammo   string
}

// Unit is an aircraft or UFO.
type Unit struct {
	ID       UnitID
	Name     string
	Kind     Kind
	Template *Template
	Stats    Stats

	Pos          geo.Position
	ProjectedPos geo.Position
	Direction    geo.Vec3
	Fuel         float64
	Damage       float64 // remaining health
	Status       Status

	Route geo.Route
	Time  float64
	Point int

	Target     UnitID
	Mission    MissionID
	Home       BaseID
	TransferTo BaseID

	Weapons     []Slot
	Electronics []Slot
	Radar       Radar

	// UFO only
	Detected       bool
	Landed         bool
	Interceptor    bool
	DetectionIndex int
	LastSpotted    float64

	cannotRefuelNotified bool
}

// IsUFO reports whether the unit is hostile.
func (u *Unit) IsUFO() bool {
	return u.Kind == KindUFO
}

// Alive reports whether the unit has not been shot down.
func (u *Unit) Alive() bool {
	return u.Status != StatusDestroyed
}

// SeenOnGeoscape reports whether a UFO is flying and currently detected.
func (u *Unit) SeenOnGeoscape() bool {
	return u.IsUFO() && u.Alive() && !u.Landed && u.Detected
}

// RemainingRange is speed times fuel, in degree-seconds per hour.
func (u *Unit) RemainingRange() float64 {
	return u.Stats.Speed * u.Fuel
}

// Arrived reports whether the unit has covered its whole route.
func (u *Unit) Arrived() bool {
	return u.Stats.Speed*u.Time/secondsPerHour >= u.Route.TotalDistance()
}

// RecomputeStats rebuilds the stats vector from the template and every installed
// electronics item. Weapon range follows the longest loaded ammo. Fuel and health are
// clamped to their new capacities.
func (u *Unit) RecomputeStats() {
	if u.Template == nil {
		return
	}
	stats := u.Template.Stats
	for _, stat := range []Stat{StatSpeed, StatMaxSpeed, StatShield, StatECM, StatDamage, StatAccuracy, StatFuelSize, StatAntimatter} {
		for i := range u.Electronics {
			slot := &u.Electronics[i]
			if slot.Electronics == nil || slot.InstallationTime > 0 {
				continue
			}
			stats.apply(stat, slot.Electronics.Modifiers[stat])
		}
	}
	stats.WeaponRange = 0
	for i := range u.Weapons {
		if a := u.Weapons[i].Ammo; a != nil && a.Range > stats.WeaponRange {
			stats.WeaponRange = a.Range
		}
	}
	u.Stats = stats
	if u.Fuel > u.Stats.FuelSize {
		u.Fuel = u.Stats.FuelSize
	}
	if u.Damage > u.Stats.Damage {
		u.Damage = u.Stats.Damage
	}
}

func (u *Unit) weaponViews() []core.SlotState {
	views := make([]core.SlotState, len(u.Weapons))
	for i := range u.Weapons {
		views[i] = u.Weapons[i].view()
	}
	return views
}

func (u *Unit) canReload() bool {
	return u.IsUFO() || u.Status.InBase()
}

// ReloadWeapons refills every weapon slot the unit can currently reload.
func (u *Unit) ReloadWeapons() {
	for i := range u.Weapons {
		u.Weapons[i].reload(u.canReload())
	}
}

func (u *Unit) clearSlots() {
	for i := range u.Weapons {
		u.Weapons[i].clear()
	}
	for i := range u.Electronics {
		u.Electronics[i].clear()
	}
}

// Battery is a base or installation weapon with its current target.
type Battery struct {
	Slot   Slot
	Target UnitID
}

// Base is a player base. Whether it is powered is answered by Facilities.
type Base struct {
	ID        BaseID
	Name      string
	Pos       geo.Position
	Radar     Radar
	Batteries []Battery
}

// Installation is a standalone radar tower or SAM site.
type Installation struct {
	ID        InstallationID
	Name      string
	Pos       geo.Position
	Radar     Radar
	Batteries []Battery
	Working   bool
}

// Projectile is a shot in flight. It keeps its own copy of the firing position and
// never follows its attacker.
type Projectile struct {
	ID           ProjectileID
	Ammo         *AmmoDef
	Pos          geo.Position
	ProjectedPos geo.Position
	AttackerPos  geo.Position

	// Attacker is zero for base or installation fire and once the attacker is gone.
	Attacker      UnitID
	AttackerIsUFO bool

	// Target is zero once the shot has missed; it then flies to IdleTarget.
	Target     UnitID
	IdleTarget geo.Position

	Time    float64
	Angle   float64
	Bullets bool
	Beam    bool
}

// Idle reports whether the projectile is flying to a fixed point.
func (p *Projectile) Idle() bool {
	return p.Target == 0
}
