package engine

import (
	"fmt"
	"math"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

const (
	// RefuelFactor is the seconds of fuel loaded per second in base.
	RefuelFactor = 16.0
	// ufoCircleSpread is the standard deviation, in degrees, of an interceptor's
	// waypoints around its mission site.
	ufoCircleSpread = 2.0
)

// AdvanceUnit moves a unit dt seconds along its route and burns dt seconds of fuel. It
// reports whether the route end has been reached, in which case the position is left
// for the caller to snap. Otherwise the position, heading and the projected position
// one more step ahead are updated; the projection is zero past the route end.
func AdvanceUnit(u *Unit, dt float64) bool {
	u.Time += dt
	u.Fuel -= dt

	total := u.Route.TotalDistance()
	dist := u.Stats.Speed * u.Time / secondsPerHour
	if dist >= total {
		return true
	}

	sample := geo.SampleAlongRoute(u.Route, dist)
	u.Point = sample.Point
	u.Pos = sample.Pos
	u.Direction = u.Route.Direction(sample.Point)

	next := u.Stats.Speed * (u.Time + dt) / secondsPerHour
	if next >= total {
		u.ProjectedPos = geo.Position{}
	} else {
		u.ProjectedPos = geo.SampleAlongRoute(u.Route, next).Pos
	}
	return false
}

// Move advances an aircraft and applies the arrival transitions.
func (s *State) Move(u *Unit, dt float64) {
	if !AdvanceUnit(u, dt) {
		return
	}
	if u.Route.Valid() {
		u.Pos = geo.CheckPositionBoundaries(u.Route.End())
	}

	switch u.Status {
	case StatusMission:
		u.Status = StatusReadyToDrop
		s.missions.StartGroundCombat(u.ID, u.Mission)
	case StatusReturning:
		home := s.homeBase(u)
		u.Status = StatusRefueling
		u.Pos = home.Pos
		u.ReloadWeapons()
		s.notifier.Notice(NoticeReturned, fmt.Sprintf("Craft %s has returned to %s.", u.Name, home.Name))
	case StatusPursuit, StatusTransferringBase, StatusReadyToDrop:
		// Pursuit is steered by combat each tick; transfers wait for CompleteTransfer.
	default:
		u.Status = StatusIdle
	}
}

// Refuel loads fuel into a parked aircraft. Antimatter-powered craft draw from their
// base stores and stop short when the stores run dry.
func (s *State) Refuel(u *Unit, dt float64) {
	if u.Fuel < 0 {
		u.Fuel = 0
	}
	fill := math.Min(dt*RefuelFactor, u.Stats.FuelSize-u.Fuel)

	if u.Stats.Antimatter > 0 && fill > 0 && u.Stats.FuelSize > 0 {
		available := s.facilities.Antimatter(u.Home)
		current := int(u.Stats.Antimatter * (u.Fuel / u.Stats.FuelSize))
		next := int(u.Stats.Antimatter * ((u.Fuel + fill) / u.Stats.FuelSize))
		load := next - current

		if load > available {
			fill = u.Stats.FuelSize*(float64(current+available)/u.Stats.Antimatter) - u.Fuel
			load = available
			if !u.cannotRefuelNotified {
				home := s.homeBase(u)
				s.notifier.Notice(NoticeCannotRefuel,
					fmt.Sprintf("Craft %s couldn't be completely refueled at %s. Not enough antimatter.", u.Name, home.Name))
				u.cannotRefuelNotified = true
			}
		}
		if load > 0 {
			s.facilities.ConsumeAntimatter(u.Home, load)
		}
	}

	if fill > 0 {
		u.Fuel += fill
	}
	if u.Fuel >= u.Stats.FuelSize {
		u.Fuel = u.Stats.FuelSize
		u.Status = StatusHome
		home := s.homeBase(u)
		s.notifier.Notice(NoticeRefueled, fmt.Sprintf("Craft %s has refueled at %s.", u.Name, home.Name))
		u.cannotRefuelNotified = false
	}
}

// HasEnoughFuel reports whether an aircraft can fly to dest and then back home.
func (s *State) HasEnoughFuel(u *Unit, dest geo.Position) bool {
	home := s.homeBase(u)
	distance := geo.DistanceOnGlobe(u.Pos, dest) + geo.DistanceOnGlobe(dest, home.Pos)
	return distance <= u.RemainingRange()/secondsPerHour
}

// HasEnoughFuelOneWay reports whether an aircraft can reach dest.
func (s *State) HasEnoughFuelOneWay(u *Unit, dest geo.Position) bool {
	return geo.DistanceOnGlobe(u.Pos, dest) <= u.RemainingRange()/secondsPerHour
}

// OperationalRange is the round-trip radius of a fully fuelled aircraft in kilometers,
// rounded down to a multiple of 100.
func OperationalRange(u *Unit) int {
	r := u.Stats.Speed * u.Stats.FuelSize
	return 100 * int(geo.KilometersPerDegree*r/(2*secondsPerHour*100))
}

// RunAircraft runs one tick for every aircraft: flight, refuelling, the low-fuel
// recall, weapon cooldowns and reloads. It reports whether any aircraft moved, which
// means the radar coverage drawn from aircraft has changed.
func (s *State) RunAircraft(dt float64) bool {
	moved := false
	for _, u := range s.Aircraft() {
		if u.Status == StatusDestroyed {
			continue
		}
		s.homeBase(u)

		switch {
		case u.Status == StatusIdle || u.Status == StatusReadyToDrop:
			u.Fuel -= dt
		case u.Status.OnGeoscape() || u.Status == StatusTransferringBase:
			s.Move(u, dt)
			moved = true
		case u.Status == StatusRefueling:
			s.Refuel(u, dt)
		case u.Status == StatusHome:
		default:
			panic(fmt.Sprintf("engine: aircraft %d has unknown status %s", u.ID, u.Status))
		}

		if u.Status != StatusReturning && u.Status.OnGeoscape() && !s.HasEnoughFuel(u, u.Pos) {
			s.notifier.Notice(NoticeLowFuel, fmt.Sprintf("Craft %s is low on fuel and must return to base.", u.Name))
			s.returnToBase(u)
		}

		onGeoscape := u.Status.OnGeoscape()
		for i := range u.Weapons {
			slot := &u.Weapons[i]
			if onGeoscape && slot.DelayNextShot > 0 {
				slot.DelayNextShot -= dt
			}
			if slot.AmmoLeft <= 0 {
				slot.reload(u.canReload())
			}
		}
	}
	return moved
}

// RunUFOs moves every flying UFO, back to front. A UFO that reaches its waypoint
// without chasing anything is given a new one and may be retired by its mission.
// Empty antimatter tanks refill and weapon cooldowns tick down.
func (s *State) RunUFOs(dt float64) {
	ufos := s.UFOs()
	for i := len(ufos) - 1; i >= 0; i-- {
		ufo := ufos[i]
		if ufo.Landed || s.live(ufo.ID) == nil {
			continue
		}

		if AdvanceUnit(ufo, dt) && ufo.Status != StatusPursuit {
			if ufo.Route.Valid() {
				ufo.Pos = geo.CheckPositionBoundaries(ufo.Route.End())
			}
			s.newUFODestination(ufo)
			if s.missions.NextStage(ufo.ID) {
				_ = s.RemoveUnit(ufo.ID, false)
				continue
			}
		}

		if ufo.Fuel <= 0 {
			ufo.Fuel = ufo.Stats.FuelSize
		}
		for k := range ufo.Weapons {
			if slot := &ufo.Weapons[k]; slot.DelayNextShot > 0 {
				slot.DelayNextShot -= dt
			}
		}
	}
}

// newUFODestination sends an interceptor to circle its mission site and any other UFO
// to a random point on the globe.
func (s *State) newUFODestination(ufo *Unit) {
	if ufo.Interceptor {
		if site, ok := s.missions.Position(ufo.Mission); ok {
			dest := geo.Offset(site, s.rnd.NormFloat64()*ufoCircleSpread, s.rnd.NormFloat64()*ufoCircleSpread)
			s.setRoute(ufo, dest)
			ufo.Status = StatusIntercepting
			return
		}
	}
	s.setRoute(ufo, geo.RandomPosition(s.rnd.Float64(), s.rnd.Float64()))
	ufo.Status = StatusTransit
}

// setRoute replaces a unit's route and restarts its progress along it.
func (s *State) setRoute(u *Unit, dest geo.Position) {
	u.Route = geo.ComputeGreatCircle(u.Pos, dest)
	u.Time = 0
	u.Point = 0
}

// progressInstallations advances install and removal timers by one hour. Aircraft
// slots only progress in base.
func (s *State) progressInstallations() {
	for _, u := range s.Aircraft() {
		if !u.Status.InBase() {
			continue
		}
		changed := false
		for i := range u.Weapons {
			changed = s.progressSlot(&u.Weapons[i], u.Name) || changed
		}
		for i := range u.Electronics {
			changed = s.progressSlot(&u.Electronics[i], u.Name) || changed
		}
		if changed {
			u.RecomputeStats()
		}
	}
	for _, b := range s.Bases() {
		for i := range b.Batteries {
			s.progressSlot(&b.Batteries[i].Slot, b.Name)
		}
	}
	for _, in := range s.Installations() {
		for i := range in.Batteries {
			s.progressSlot(&in.Batteries[i].Slot, in.Name)
		}
	}
}

func (s *State) progressSlot(slot *Slot, owner string) bool {
	name := slotItemName(slot)
	switch {
	case slot.InstallationTime > 0:
		slot.InstallationTime--
		if slot.InstallationTime == 0 {
			s.notifier.Notice(NoticeInstallation, fmt.Sprintf("%s was successfully installed at %s.", name, owner))
			return true
		}
	case slot.InstallationTime < 0:
		slot.InstallationTime++
		if slot.InstallationTime == 0 {
			slot.clear()
			s.notifier.Notice(NoticeInstallation, fmt.Sprintf("%s was successfully removed from %s.", name, owner))
			return true
		}
	}
	return false
}

func slotItemName(slot *Slot) string {
	switch {
	case slot.Weapon != nil:
		return slot.Weapon.Name
	case slot.Electronics != nil:
		return slot.Electronics.Name
	}
	return "item"
}
