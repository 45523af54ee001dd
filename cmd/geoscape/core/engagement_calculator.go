package core

import (
	"math"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// WeaponCheck is the readiness of one weapon slot against a target distance.
type WeaponCheck int

const (
	CanShoot WeaponCheck = iota
	CannotShootNow
	CanNeverShoot
)

func (c WeaponCheck) String() string {
	switch c {
	case CanShoot:
		return "can_shoot"
	case CannotShootNow:
		return "cannot_shoot_now"
	default:
		return "can_never_shoot"
	}
}

// ChoiceOutcome is the result class of ChooseWeapon.
type ChoiceOutcome int

const (
	WeaponChosen ChoiceOutcome = iota
	WeaponsOnCooldown
	NoWeaponAvailable
)

func (o ChoiceOutcome) String() string {
	switch o {
	case WeaponChosen:
		return "weapon_chosen"
	case WeaponsOnCooldown:
		return "on_cooldown"
	default:
		return "no_weapon"
	}
}

// Choice is the slot picked to fire. Slot is only meaningful when Outcome is WeaponChosen.
type Choice struct {
	Slot    int
	Outcome ChoiceOutcome
}

// SlotState is the read-only view of a weapon slot the calculator needs.
type SlotState struct {
	Installed        bool
	InstallationTime int
	HasAmmo          bool
	AmmoLeft         int
	UnlimitedAmmo    bool
	Range            float64
	DelayNextShot    float64
}

// DefaultAccuracy is the aggregate accuracy, in percent, of shooters without their own
// stat such as base batteries.
const DefaultAccuracy = 100.0

// EngagementCalculator resolves weapon checks, hit chances and miss offsets.
type EngagementCalculator struct {
	missFraction float64 // share of the firing distance a miss may stray by
	missFloor    float64 // smallest miss offset in degrees
}

// NewEngagementCalculator creates a calculator with the standard miss spread.
func NewEngagementCalculator() *EngagementCalculator {
	return &EngagementCalculator{
		missFraction: 1.0 / 3.0,
		missFloor:    0.1,
	}
}

// CheckWeapon reports whether a slot can fire at a target distance now, later, or never.
func (ec *EngagementCalculator) CheckWeapon(slot SlotState, distance float64) WeaponCheck {
	if !slot.Installed || slot.InstallationTime != 0 {
		return CanNeverShoot
	}
	if !slot.HasAmmo || (slot.AmmoLeft <= 0 && !slot.UnlimitedAmmo) {
		return CanNeverShoot
	}
	if distance > slot.Range {
		return CannotShootNow
	}
	if slot.DelayNextShot > 0 {
		return CannotShootNow
	}
	return CanShoot
}

// ChooseWeapon picks the ready slot whose ammo has the shortest range still covering
// the target. If no slot is ready but one could fire later, the result is on cooldown.
func (ec *EngagementCalculator) ChooseWeapon(slots []SlotState, shooterPos, targetPos geo.Position) Choice {
	distance := geo.DistanceOnGlobe(shooterPos, targetPos)

	choice := Choice{Slot: -1, Outcome: NoWeaponAvailable}
	bestRange := math.Inf(1)
	for i, slot := range slots {
		switch ec.CheckWeapon(slot, distance) {
		case CanShoot:
			if slot.Range < bestRange {
				bestRange = slot.Range
				choice = Choice{Slot: i, Outcome: WeaponChosen}
			}
		case CannotShootNow:
			if choice.Outcome == NoWeaponAvailable {
				choice.Outcome = WeaponsOnCooldown
			}
		}
	}
	return choice
}

// ProbabilityToHit scales the ammo accuracy by the shooter's accuracy and divides it by
// the target's countermeasures, both in percent. The result is not clamped: values above
// one always hit.
func (ec *EngagementCalculator) ProbabilityToHit(ammoAccuracy, shooterAccuracy, targetECM float64) float64 {
	p := ammoAccuracy * shooterAccuracy / 100
	if targetECM > 0 {
		p /= targetECM / 100
	}
	return p
}

// IsHit decides a shot against a uniform draw in [0, 1).
func (ec *EngagementCalculator) IsHit(draw, probability float64) bool {
	return draw <= probability
}

// Damage is the damage dealt by one hit after shields. It is never negative and is zero
// against a target that is already destroyed.
func (ec *EngagementCalculator) Damage(weaponDamage, shield, targetHealth float64) float64 {
	if targetHealth <= 0 {
		return 0
	}
	return math.Max(0, weaponDamage-shield)
}

// MissOffset returns how far, in degrees along each axis, a missed shot lands from its
// target given the firing distance and a uniform draw.
func (ec *EngagementCalculator) MissOffset(distance, draw float64) float64 {
	offset := distance * ec.missFraction * (draw - 0.5)
	if math.Abs(offset) < ec.missFloor {
		offset = ec.missFloor
	}
	return offset
}
