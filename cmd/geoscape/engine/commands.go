package engine

import (
	"fmt"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/core"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// aircraft resolves a live player aircraft.
func (s *State) aircraft(id UnitID) (*Unit, error) {
	u := s.live(id)
	if u == nil || u.IsUFO() {
		return nil, fmt.Errorf("%w: aircraft %d", ErrNoSuchUnit, id)
	}
	return u, nil
}

// ufo resolves a live UFO.
func (s *State) ufo(id UnitID) (*Unit, error) {
	u := s.live(id)
	if u == nil || !u.IsUFO() {
		return nil, fmt.Errorf("%w: ufo %d", ErrNoSuchUnit, id)
	}
	return u, nil
}

// canTakeOrders reports whether an aircraft may be sent somewhere: parked at home or
// already flying, but not mid-transfer.
func canTakeOrders(u *Unit) bool {
	return u.Status.InBase() || u.Status.OnGeoscape()
}

// SendToMission flies an aircraft to a mission site for a ground drop.
func (s *State) SendToMission(id UnitID, mission MissionID) error {
	u, err := s.aircraft(id)
	if err != nil {
		return err
	}
	if !canTakeOrders(u) {
		return fmt.Errorf("%w: %s is %s", ErrTransferPending, u.Name, u.Status)
	}
	site, ok := s.missions.Position(mission)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchMission, mission)
	}
	if s.crew.TeamSize(u.ID) == 0 {
		s.notifier.Notice(NoticeNoCrew, "Assign one or more soldiers to this aircraft first.")
		return fmt.Errorf("%w: %s", ErrNoCrew, u.Name)
	}

	if u.Status.InBase() {
		u.ReloadWeapons()
	}
	if !s.HasEnoughFuel(u, site) {
		s.notifier.Notice(NoticeInsufficientFuel, "Insufficient fuel.")
		return fmt.Errorf("%w: %s to mission %q", ErrInsufficientFuel, u.Name, mission)
	}

	s.setRoute(u, site)
	u.Status = StatusMission
	u.Mission = mission
	u.Target = 0
	s.homeBase(u)
	return nil
}

// PursueUFO launches or redirects an aircraft to intercept a UFO. An aircraft in base
// needs a pilot.
func (s *State) PursueUFO(id, target UnitID) error {
	u, err := s.aircraft(id)
	if err != nil {
		return err
	}
	ufo, err := s.ufo(target)
	if err != nil {
		return err
	}
	if !canTakeOrders(u) {
		return fmt.Errorf("%w: %s is %s", ErrTransferPending, u.Name, u.Status)
	}
	if u.Status.InBase() && !s.crew.HasPilot(u.ID) {
		return fmt.Errorf("%w: %s", ErrNoPilot, u.Name)
	}
	return s.pursueUFO(u, ufo)
}

// pursueUFO aims an aircraft at the intercept point, or at the UFO itself when the
// intercept is out of fuel range. With neither reachable the aircraft heads home.
func (s *State) pursueUFO(u, ufo *Unit) error {
	if u.Status.InBase() {
		u.ReloadWeapons()
	}

	dest := s.interceptPoint(u, ufo)
	if !s.HasEnoughFuel(u, dest) {
		if !s.HasEnoughFuel(u, ufo.Pos) {
			home := s.homeBase(u)
			s.notifier.Notice(NoticeInsufficientFuel,
				fmt.Sprintf("Craft %s has not enough fuel to intercept UFO: fly back to %s.", u.Name, home.Name))
			s.returnToBase(u)
			return fmt.Errorf("%w: %s to intercept %s", ErrInsufficientFuel, u.Name, ufo.Name)
		}
		dest = ufo.Pos
	}

	s.setRoute(u, dest)
	u.Status = StatusPursuit
	u.Target = ufo.ID
	u.Mission = ""
	return nil
}

// interceptPoint solves where a pursuer meets a target on its current route.
func (s *State) interceptPoint(pursuer, target *Unit) geo.Position {
	targetDest := target.Pos
	if target.Route.Valid() && !target.Arrived() {
		targetDest = target.Route.End()
	}
	return core.ComputeInterceptPoint(pursuer.Pos, pursuer.Stats.Speed, target.Pos, targetDest, target.Stats.Speed).Point
}

// SendToDestination sends a unit on a patrol flight to a point. A UFO drops its
// target; an aircraft drops its mission and target.
func (s *State) SendToDestination(id UnitID, dest geo.Position) error {
	u := s.live(id)
	if u == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchUnit, id)
	}
	dest = geo.CheckPositionBoundaries(dest)

	if !u.IsUFO() {
		if !canTakeOrders(u) {
			return fmt.Errorf("%w: %s is %s", ErrTransferPending, u.Name, u.Status)
		}
		if u.Status.InBase() {
			u.ReloadWeapons()
		}
		if !s.HasEnoughFuel(u, dest) {
			s.notifier.Notice(NoticeInsufficientFuel, "Insufficient fuel.")
			return fmt.Errorf("%w: %s to %.2f,%.2f", ErrInsufficientFuel, u.Name, dest.Lon, dest.Lat)
		}
		u.Mission = ""
	}

	s.setRoute(u, dest)
	u.Status = StatusTransit
	u.Target = 0
	return nil
}

// ReturnToBase routes a flying aircraft home. It is safe to call in the middle of a
// tick.
func (s *State) ReturnToBase(id UnitID) error {
	u, err := s.aircraft(id)
	if err != nil {
		return err
	}
	if !s.returnToBase(u) {
		return fmt.Errorf("%w: %s is %s", ErrNotOnGeoscape, u.Name, u.Status)
	}
	return nil
}

// CancelPursuit breaks off an interception and flies home.
func (s *State) CancelPursuit(id UnitID) error {
	return s.ReturnToBase(id)
}

func (s *State) returnToBase(u *Unit) bool {
	if !u.Status.OnGeoscape() {
		return false
	}
	home := s.homeBase(u)
	s.setRoute(u, home.Pos)
	u.Status = StatusReturning
	u.Mission = ""
	u.Target = 0
	return true
}

// TransferToBase starts moving a parked aircraft to another base. It keeps its
// status until CompleteTransfer rehomes it.
func (s *State) TransferToBase(id UnitID, base BaseID) error {
	u, err := s.aircraft(id)
	if err != nil {
		return err
	}
	if !u.Status.InBase() {
		return fmt.Errorf("%w: %s is %s", ErrNotInBase, u.Name, u.Status)
	}
	dest, ok := s.bases[base]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchBase, base)
	}
	if base == u.Home {
		return nil
	}
	if !s.HasEnoughFuelOneWay(u, dest.Pos) {
		s.notifier.Notice(NoticeInsufficientFuel, "Insufficient fuel.")
		return fmt.Errorf("%w: %s to %s", ErrInsufficientFuel, u.Name, dest.Name)
	}

	s.setRoute(u, dest.Pos)
	u.Status = StatusTransferringBase
	u.TransferTo = base
	u.Target = 0
	u.Mission = ""
	return nil
}

// CompleteTransfer rehomes an aircraft that reached its transfer base.
func (s *State) CompleteTransfer(id UnitID) error {
	u, err := s.aircraft(id)
	if err != nil {
		return err
	}
	if u.Status != StatusTransferringBase {
		return fmt.Errorf("%w: %s is %s", ErrTransferPending, u.Name, u.Status)
	}
	if !u.Arrived() {
		return fmt.Errorf("%w: %s is still en route", ErrTransferPending, u.Name)
	}
	dest, ok := s.bases[u.TransferTo]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchBase, u.TransferTo)
	}

	u.Home = dest.ID
	u.TransferTo = ""
	u.Pos = dest.Pos
	u.Route = geo.Route{}
	u.Time = 0
	u.Point = 0
	u.Status = StatusRefueling
	u.ReloadWeapons()
	return nil
}

// NotifyMissionRemoved sends aircraft bound for or waiting at a mission back home.
func (s *State) NotifyMissionRemoved(mission MissionID) {
	for _, u := range s.Aircraft() {
		if u.Mission != mission || !u.Alive() {
			continue
		}
		s.returnToBase(u)
		u.Mission = ""
	}
	s.notifier.MissionRemoved(mission)
}

// NotifyUFORemoved retracts a UFO that leaves play: pursuers head home, batteries drop
// it as a target and every radar forgets it.
func (s *State) NotifyUFORemoved(ufo *Unit, destroyed bool) {
	for _, u := range s.Aircraft() {
		if u.Target == ufo.ID {
			s.returnToBase(u)
			u.Target = 0
		}
	}
	for _, b := range s.Bases() {
		clearBatteryTargets(b.Batteries, ufo.ID)
	}
	for _, in := range s.Installations() {
		clearBatteryTargets(in.Batteries, ufo.ID)
	}
	s.dropFromRadars(ufo.ID)
	s.notifier.UFORemoved(ufo.ID, destroyed)
}

func clearBatteryTargets(batteries []Battery, id UnitID) {
	for i := range batteries {
		if batteries[i].Target == id {
			batteries[i].Target = 0
		}
	}
}

// UFODisappeared handles a UFO lost by every radar: aircraft chasing it go home.
func (s *State) UFODisappeared(ufo *Unit) {
	for _, u := range s.Aircraft() {
		if u.Status == StatusPursuit && u.Target == ufo.ID {
			s.returnToBase(u)
		}
	}
	for _, b := range s.Bases() {
		clearBatteryTargets(b.Batteries, ufo.ID)
	}
	for _, in := range s.Installations() {
		clearBatteryTargets(in.Batteries, ufo.ID)
	}
	s.dropFromRadars(ufo.ID)
}

// UFOPursueAircraft turns a UFO onto an aircraft. It fails, leaving the UFO in transit,
// when none of its weapons could ever fire.
func (s *State) UFOPursueAircraft(ufo, aircraft *Unit) bool {
	choice := s.calc.ChooseWeapon(ufo.weaponViews(), ufo.Pos, aircraft.Pos)
	if choice.Outcome == core.NoWeaponAvailable {
		ufo.Status = StatusTransit
		return false
	}
	s.setRoute(ufo, s.interceptPoint(ufo, aircraft))
	ufo.Status = StatusPursuit
	ufo.Target = aircraft.ID
	return true
}

// UFOSearchTarget is a UFO's combat step. An interceptor keeps fighting its current
// target or picks the nearest aircraft in detecting range; any other UFO only returns
// fire on an aircraft that engaged it.
func (s *State) UFOSearchTarget(ufo *Unit) {
	if !ufo.Interceptor {
		if ufo.Target != 0 {
			s.UFOCheckShootBack(ufo, s.live(ufo.Target))
		}
		return
	}

	if ufo.Target != 0 {
		if target := s.live(ufo.Target); target != nil && target.Status.OnGeoscape() {
			s.ExecuteCombatTick(ufo, target)
		} else {
			ufo.Target = 0
			s.proceedMission(ufo)
		}
		return
	}

	var nearest *Unit
	best := s.limits.MaxDetectingRange
	for _, a := range s.Aircraft() {
		if !a.Status.OnGeoscape() {
			continue
		}
		if d := geo.DistanceOnGlobe(ufo.Pos, a.Pos); d <= best {
			best = d
			nearest = a
		}
	}
	if nearest == nil {
		return
	}
	if s.UFOPursueAircraft(ufo, nearest) && ufo.SeenOnGeoscape() {
		s.notifier.Notice(NoticeUFOAttacking, fmt.Sprintf("A UFO is flying toward %s", nearest.Name))
	}
}

// UFOCheckShootBack lets a UFO answer an attack. A UFO already fighting keeps fighting
// while its target is flying; a free UFO turns on the attacker.
func (s *State) UFOCheckShootBack(ufo, attacker *Unit) {
	if ufo.Target != 0 {
		if target := s.live(ufo.Target); target != nil && target.Status.OnGeoscape() {
			s.ExecuteCombatTick(ufo, target)
			return
		}
		ufo.Target = 0
		s.proceedMission(ufo)
		return
	}
	if attacker != nil && attacker.Status.OnGeoscape() {
		s.UFOPursueAircraft(ufo, attacker)
	}
}

// proceedMission hands a UFO without a target back to its mission and sends it on.
func (s *State) proceedMission(ufo *Unit) {
	if ufo.Status == StatusPursuit {
		ufo.Status = StatusTransit
	}
	s.missions.ProceedMission(ufo.ID)
	if s.live(ufo.ID) != nil && !ufo.Landed {
		s.newUFODestination(ufo)
	}
}
