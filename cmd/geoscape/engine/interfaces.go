package engine

import "github.com/picogrid/geoscape-sim/pkg/geo"

// RandomSource supplies the draws for detection rolls, hit rolls, miss offsets and
// UFO wandering. *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
	NormFloat64() float64
}

// NoticeKind classifies a player-facing message.
type NoticeKind string

const (
	NoticeInsufficientFuel NoticeKind = "insufficient_fuel"
	NoticeLowFuel          NoticeKind = "low_fuel"
	NoticeNoAmmo           NoticeKind = "no_ammo"
	NoticeNoCrew           NoticeKind = "no_crew"
	NoticeReturned         NoticeKind = "returned"
	NoticeRefueled         NoticeKind = "refueled"
	NoticeCannotRefuel     NoticeKind = "cannot_refuel"
	NoticeUFOSpotted       NoticeKind = "ufo_spotted"
	NoticeUFOAttacking     NoticeKind = "ufo_attacking"
	NoticeSignalLost       NoticeKind = "signal_lost"
	NoticeInterception     NoticeKind = "interception"
	NoticeInstallation     NoticeKind = "installation"
)

// Notifier receives one-way events from the engine.
type Notifier interface {
	Notice(kind NoticeKind, message string)
	MissionRemoved(id MissionID)
	UFORemoved(id UnitID, destroyed bool)
	UnitDestroyed(id UnitID)
	UnitBecameVisible(id UnitID)
}

// Crew answers team questions about aircraft.
type Crew interface {
	TeamSize(id UnitID) int
	HasPilot(id UnitID) bool
}

// Facilities answers questions about base buildings and stores.
type Facilities interface {
	BaseOperational(id BaseID) bool
	Antimatter(id BaseID) int
	ConsumeAntimatter(id BaseID, amount int)
}

// Missions is the mission layer: where sites are and what happens at the end of a flight
// or a fight.
type Missions interface {
	Position(id MissionID) (geo.Position, bool)
	StartGroundCombat(aircraft UnitID, mission MissionID)
	// NextStage is called when a UFO reaches a waypoint. A true result removes the UFO.
	NextStage(ufo UnitID) (removed bool)
	ProceedMission(ufo UnitID)
	UFOShotDown(ufo UnitID, pos geo.Position)
	AircraftShotDown(aircraft UnitID, pos geo.Position)
}
