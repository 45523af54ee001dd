package engine

import (
	"fmt"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/core"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// ExecuteCombatTick decides what a shooter does against its target this tick: fire the
// best ready weapon, keep closing in while every weapon is cooling down or out of range,
// or give up when none could ever fire.
func (s *State) ExecuteCombatTick(shooter, target *Unit) {
	choice := s.calc.ChooseWeapon(shooter.weaponViews(), shooter.Pos, target.Pos)

	switch choice.Outcome {
	case core.WeaponChosen:
		slot := &shooter.Weapons[choice.Slot]
		ammo := slot.Ammo
		p, err := s.FireProjectile(shooter, target, choice.Slot)
		if err != nil {
			s.log.Debugf("%s cannot fire at %s: %v", shooter.Name, target.Name, err)
			return
		}

		probability := s.calc.ProbabilityToHit(ammo.Accuracy, shooter.Stats.Accuracy, target.Stats.ECM)
		if !s.calc.IsHit(s.rnd.Float64(), probability) {
			s.counters.Misses++
			s.MissTarget(p, false)
		}

		if !shooter.IsUFO() {
			s.UFOCheckShootBack(target, shooter)
		} else if !shooter.Detected && s.CheckRadarSensored(shooter.Pos) {
			s.notifier.Notice(NoticeUFOAttacking, fmt.Sprintf("A UFO is shooting at %s", target.Name))
			s.AddDetectedUFOToEveryRadar(shooter)
			s.DetectNewUFO(shooter)
		}

	case core.WeaponsOnCooldown:
		if shooter.IsUFO() {
			s.UFOPursueAircraft(shooter, target)
		} else if err := s.pursueUFO(shooter, target); err != nil {
			s.log.Debugf("%s breaks off pursuit: %v", shooter.Name, err)
		}

	default:
		if shooter.IsUFO() {
			shooter.Target = 0
			s.proceedMission(shooter)
			return
		}
		s.notifier.Notice(NoticeNoAmmo,
			fmt.Sprintf("Craft %s has no more ammo left - returning to home base now.", shooter.Name))
		s.returnToBase(shooter)
	}
}

// FireProjectile launches a shot from a unit's weapon slot at a target.
func (s *State) FireProjectile(attacker, target *Unit, slot int) (*Projectile, error) {
	if slot < 0 || slot >= len(attacker.Weapons) {
		return nil, fmt.Errorf("%w: %s has no slot %d", ErrNoWeapon, attacker.Name, slot)
	}
	return s.fireFrom(attacker.Pos, attacker, target, &attacker.Weapons[slot], attacker.canReload())
}

// fireFrom spawns a projectile at pos. attacker is nil for base and installation
// batteries. The firing position is copied so the shot never follows its shooter.
func (s *State) fireFrom(pos geo.Position, attacker, target *Unit, slot *Slot, canReload bool) (*Projectile, error) {
	if len(s.projectiles) >= s.limits.MaxProjectiles {
		return nil, ErrProjectileLimit
	}
	if slot.Weapon == nil || slot.Ammo == nil {
		return nil, ErrNoWeapon
	}
	if slot.AmmoLeft <= 0 && !slot.unlimited() {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoWeapon, slot.Weapon.Name)
	}

	s.nextProjectileID++
	p := &Projectile{
		ID:          s.nextProjectileID,
		Ammo:        slot.Ammo,
		Pos:         pos,
		AttackerPos: pos,
		Target:      target.ID,
		Angle:       geo.Bearing(pos, target.Pos),
		Bullets:     slot.Weapon.Bullets,
		Beam:        slot.Weapon.Beam,
	}
	if attacker != nil {
		p.Attacker = attacker.ID
		p.AttackerIsUFO = attacker.IsUFO()
	}

	// An emptied clip reloads at once, replacing the normal delay with the longer one.
	slot.DelayNextShot = slot.Ammo.WeaponDelay
	if !slot.unlimited() {
		slot.AmmoLeft--
		if slot.AmmoLeft <= 0 {
			slot.reload(canReload)
		}
	}
	s.projectiles = append(s.projectiles, p)
	s.counters.Shots++
	return p, nil
}

// MissTarget turns a projectile idle. It is redirected to a point near where its target
// is now, displaced by the same offset on both axes. With returnToBase the aircraft that
// fired it heads home.
func (s *State) MissTarget(p *Projectile, returnToBase bool) {
	aim := p.IdleTarget
	if target, ok := s.units[p.Target]; ok && p.Target != 0 {
		aim = target.Pos
	}
	p.Target = 0

	offset := s.calc.MissOffset(geo.DistanceOnGlobe(p.Pos, aim), s.rnd.Float64())
	p.IdleTarget = geo.Offset(aim, offset, offset)

	if !returnToBase || p.Attacker == 0 || p.AttackerIsUFO {
		return
	}
	if attacker := s.live(p.Attacker); attacker != nil {
		s.returnToBase(attacker)
	}
}

// RunProjectiles moves every projectile, newest first. A projectile that covers the
// remaining distance this tick lands, hitting a live target; one that outflies its ammo
// range is spent. Either way it is removed.
func (s *State) RunProjectiles(dt float64) {
	for i := len(s.projectiles) - 1; i >= 0; i-- {
		p := s.projectiles[i]
		movement := dt * p.Ammo.Speed / secondsPerHour
		p.Time += dt

		var target *Unit
		if p.Target != 0 {
			if target = s.live(p.Target); target == nil {
				s.MissTarget(p, false)
			}
		}
		dest := p.IdleTarget
		if target != nil {
			dest = target.Pos
		}

		if geo.DistanceOnGlobe(p.Pos, dest) <= movement {
			if target != nil {
				s.ProjectileHits(p)
			}
			s.removeProjectile(i)
			continue
		}
		if p.Time*p.Ammo.Speed/secondsPerHour > p.Ammo.Range {
			s.removeProjectile(i)
			continue
		}

		next, _ := geo.StepToward(p.Pos, dest, movement)
		projected, _ := geo.StepToward(next, dest, movement)
		p.Angle = geo.Bearing(p.Pos, dest)
		p.Pos = next
		p.ProjectedPos = projected
	}
}

func (s *State) removeProjectile(i int) {
	s.projectiles = append(s.projectiles[:i], s.projectiles[i+1:]...)
}

// ProjectileHits applies one landed shot. A target back in base is safe. Damage below
// the shield does nothing; a target already at zero health is not destroyed twice.
func (s *State) ProjectileHits(p *Projectile) {
	target := s.live(p.Target)
	if target == nil || (!target.IsUFO() && target.Status.InBase()) {
		return
	}
	s.counters.Hits++

	damage := s.calc.Damage(p.Ammo.Damage, target.Stats.Shield, target.Damage)
	if damage <= 0 {
		return
	}
	target.Damage -= damage
	if target.Damage <= 0 {
		s.ActionsAfterAirfight(s.live(p.Attacker), target)
	}
}

// ActionsAfterAirfight resolves a shoot-down. attacker is nil for battery fire or when
// the shooter is already gone.
func (s *State) ActionsAfterAirfight(attacker, target *Unit) {
	pos := target.Pos

	if target.IsUFO() {
		s.counters.UFOsDestroyed++
		_ = s.RemoveUnit(target.ID, true)
		s.missions.UFOShotDown(target.ID, pos)
		s.notifier.Notice(NoticeInterception, fmt.Sprintf("UFO interception successful: %s shot down.", target.Name))
		return
	}

	s.counters.AircraftLost++
	_ = s.RemoveUnit(target.ID, true)
	s.missions.AircraftShotDown(target.ID, pos)
	if attacker != nil && attacker.IsUFO() {
		s.proceedMission(attacker)
	}
	s.notifier.Notice(NoticeInterception, "You've lost the battle")
}

// RunBaseDefence ticks every battery's cooldown and reload, then lets powered bases and
// working installations fire.
func (s *State) RunBaseDefence(dt float64) {
	for _, b := range s.Bases() {
		tickBatteries(b.Batteries, dt)
		if s.facilities.BaseOperational(b.ID) {
			s.batteryShoot(b.Pos, b.Batteries)
		}
	}
	for _, in := range s.Installations() {
		tickBatteries(in.Batteries, dt)
		if in.Working {
			s.batteryShoot(in.Pos, in.Batteries)
		}
	}
}

func tickBatteries(batteries []Battery, dt float64) {
	for i := range batteries {
		slot := &batteries[i].Slot
		if slot.DelayNextShot > 0 {
			slot.DelayNextShot -= dt
		}
		if slot.AmmoLeft <= 0 {
			slot.reload(true)
		}
	}
}

// batteryShoot fires each ready battery at its target. A battery without one picks the
// nearest visible UFO in range of its ammo.
func (s *State) batteryShoot(pos geo.Position, batteries []Battery) {
	for i := range batteries {
		battery := &batteries[i]
		slot := &battery.Slot

		if battery.Target == 0 {
			battery.Target = s.nearestVisibleUFO(pos, slot)
		}
		if battery.Target == 0 || slot.InstallationTime > 0 || slot.DelayNextShot > 0 {
			continue
		}

		target := s.live(battery.Target)
		if target == nil || !target.SeenOnGeoscape() {
			battery.Target = 0
			continue
		}

		distance := geo.DistanceOnGlobe(pos, target.Pos)
		switch s.calc.CheckWeapon(slot.view(), distance) {
		case core.CanNeverShoot:
			battery.Target = 0
			continue
		case core.CannotShootNow:
			continue
		}
		if distance > slot.Ammo.Range {
			continue
		}

		p, err := s.fireFrom(pos, nil, target, slot, true)
		if err != nil {
			s.log.Debugf("battery cannot fire at %s: %v", target.Name, err)
			continue
		}
		probability := s.calc.ProbabilityToHit(slot.Ammo.Accuracy, core.DefaultAccuracy, target.Stats.ECM)
		if !s.calc.IsHit(s.rnd.Float64(), probability) {
			s.counters.Misses++
			s.MissTarget(p, false)
		}
	}
}

func (s *State) nearestVisibleUFO(pos geo.Position, slot *Slot) UnitID {
	if slot.Ammo == nil {
		return 0
	}
	var best UnitID
	bestDist := slot.Ammo.Range
	for _, ufo := range s.UFOs() {
		if !ufo.SeenOnGeoscape() {
			continue
		}
		if d := geo.DistanceOnGlobe(pos, ufo.Pos); d <= bestDist {
			bestDist = d
			best = ufo.ID
		}
	}
	return best
}
