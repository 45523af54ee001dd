package engine

import (
	"testing"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// engaged returns an aircraft pursuing a UFO half a degree east of the base.
func engaged(t *testing.T, f *fixture) (*Unit, *Unit) {
	t.Helper()
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 0.5})
	a := f.aircraft(t, "Raven")
	must(t, f.state.PursueUFO(a.ID, ufo.ID))
	return a, ufo
}

func TestCooldownSlotNeverChosen(t *testing.T) {
	f := newFixture(t)
	a, ufo := engaged(t, f)

	f.state.ExecuteCombatTick(a, ufo)
	if got := len(f.state.Projectiles()); got != 1 {
		t.Fatalf("projectiles after first shot = %d, want 1", got)
	}
	if a.Weapons[0].DelayNextShot != 10 {
		t.Errorf("delay = %v, want the weapon delay 10", a.Weapons[0].DelayNextShot)
	}
	if a.Weapons[0].AmmoLeft != 4 {
		t.Errorf("ammo left = %d, want 4", a.Weapons[0].AmmoLeft)
	}

	f.state.ExecuteCombatTick(a, ufo)
	if got := len(f.state.Projectiles()); got != 1 {
		t.Errorf("projectiles while cooling down = %d, want 1", got)
	}
	if a.Status != StatusPursuit || a.Target != ufo.ID {
		t.Errorf("status = %v target = %d, want pursuit of %d", a.Status, a.Target, ufo.ID)
	}
	if ufo.Status != StatusPursuit || ufo.Target != a.ID {
		t.Errorf("ufo should turn on its attacker, got status %v target %d", ufo.Status, ufo.Target)
	}
}

func TestMissThenIdle(t *testing.T) {
	f := newFixture(t)
	f.rnd.uniform = 0.99
	a, ufo := engaged(t, f)

	f.state.ExecuteCombatTick(a, ufo)
	ps := f.state.Projectiles()
	if len(ps) != 1 {
		t.Fatalf("projectiles = %d, want 1", len(ps))
	}
	p := ps[0]
	if !p.Idle() {
		t.Fatal("a missed shot should be idle immediately")
	}
	// (0.5 / 3) * (0.99 - 0.5) is under the 0.1° floor, applied to both axes.
	offset := 0.1
	if !near(p.IdleTarget.Lon, 0.5+offset, 1e-6) || !near(p.IdleTarget.Lat, offset, 1e-6) {
		t.Errorf("idle target = %+v, want offset %v from the UFO", p.IdleTarget, offset)
	}
	if got := f.state.Counters().Misses; got != 1 {
		t.Errorf("misses = %d, want 1", got)
	}

	f.state.RunProjectiles(1)
	if got := len(f.state.Projectiles()); got != 0 {
		t.Errorf("projectiles after landing = %d, want 0", got)
	}
	if ufo.Damage != 60 {
		t.Errorf("ufo health = %v, want untouched 60", ufo.Damage)
	}
}

func TestHitDamageRespectsShield(t *testing.T) {
	f := newFixture(t)
	a, ufo := engaged(t, f)

	f.state.ExecuteCombatTick(a, ufo)
	f.state.RunProjectiles(1)

	// 50 damage against a 10 shield.
	if ufo.Damage != 20 {
		t.Errorf("ufo health = %v, want 20", ufo.Damage)
	}
	if got := f.state.Counters().Hits; got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
}

func TestShootDownRetractsReferences(t *testing.T) {
	f := newFixture(t)
	a, ufo := engaged(t, f)
	wingman := f.aircraft(t, "Kestrel")
	must(t, f.state.PursueUFO(wingman.ID, ufo.ID))
	ufo.Damage = 30

	// The wingman's shot is still in flight when the UFO goes down.
	f.state.ExecuteCombatTick(a, ufo)
	wingman.Pos = geo.Position{Lon: -3}
	f.state.ExecuteCombatTick(wingman, ufo)
	wingman.Pos = geo.Position{}
	f.state.RunProjectiles(1)

	got, ok := f.state.Unit(ufo.ID)
	if !ok || got.Status != StatusDestroyed {
		t.Fatalf("ufo should be kept with status destroyed")
	}
	if ufo.Weapons[0].Weapon != nil {
		t.Error("destroyed ufo should have its slots cleared")
	}
	if a.Status != StatusReturning || wingman.Status != StatusReturning {
		t.Errorf("pursuers = %v/%v, want both returning", a.Status, wingman.Status)
	}
	for _, p := range f.state.Projectiles() {
		if !p.Idle() {
			t.Errorf("projectile %d still aims at a destroyed unit", p.ID)
		}
	}
	if len(f.missions.CrashSites()) != 1 {
		t.Errorf("crash sites = %d, want 1", len(f.missions.CrashSites()))
	}
	if c := f.state.Counters(); c.UFOsDestroyed != 1 {
		t.Errorf("ufos destroyed = %d, want 1", c.UFOsDestroyed)
	}
	if len(f.notes.destroyed) != 1 || f.notes.destroyed[0] != ufo.ID {
		t.Errorf("UnitDestroyed = %v, want [%d]", f.notes.destroyed, ufo.ID)
	}
}

func TestRangeExpiryDiscardsProjectile(t *testing.T) {
	f := newFixture(t)
	ammo, err := f.state.Catalog().Ammo("shells")
	must(t, err)
	must(t, f.state.RestoreProjectile(&Projectile{ID: 1, Ammo: ammo, IdleTarget: geo.Position{Lon: 50}}))

	f.state.RunProjectiles(1)
	ps := f.state.Projectiles()
	if len(ps) != 1 {
		t.Fatalf("projectiles after 1° of flight = %d, want 1", len(ps))
	}
	if !near(ps[0].Pos.Lon, 1, 1e-6) {
		t.Errorf("pos = %+v, want lon 1", ps[0].Pos)
	}

	for i := 0; i < 4; i++ {
		f.state.RunProjectiles(1)
	}
	if got := len(f.state.Projectiles()); got != 0 {
		t.Errorf("projectiles past the 4° range = %d, want 0", got)
	}
}

func TestNoAmmoSendsAircraftHome(t *testing.T) {
	f := newFixture(t)
	a, ufo := engaged(t, f)
	a.Weapons[0].AmmoLeft = 0

	f.state.ExecuteCombatTick(a, ufo)

	if a.Status != StatusReturning {
		t.Errorf("status = %v, want returning", a.Status)
	}
	if f.notes.count(NoticeNoAmmo) != 1 {
		t.Errorf("no ammo notices = %d, want 1", f.notes.count(NoticeNoAmmo))
	}
}

func TestProjectileLimit(t *testing.T) {
	f := newFixture(t)
	a, ufo := engaged(t, f)
	ammo := a.Weapons[0].Ammo
	for i := 1; i <= f.state.Limits().MaxProjectiles; i++ {
		must(t, f.state.RestoreProjectile(&Projectile{ID: ProjectileID(i), Ammo: ammo, IdleTarget: geo.Position{Lon: 9}}))
	}

	if _, err := f.state.FireProjectile(a, ufo, 0); err != ErrProjectileLimit {
		t.Errorf("FireProjectile() error = %v, want ErrProjectileLimit", err)
	}
	if a.Weapons[0].AmmoLeft != 5 {
		t.Errorf("ammo left = %d, want the full clip", a.Weapons[0].AmmoLeft)
	}
}

func TestBaseDefence(t *testing.T) {
	f := newFixture(t)
	cannon, err := f.state.Catalog().Weapon("cannon")
	must(t, err)
	shells, err := f.state.Catalog().Ammo("shells")
	must(t, err)
	f.base.Batteries = []Battery{{Slot: Slot{Weapon: cannon, Ammo: shells, AmmoLeft: 5}}}

	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 2})
	f.facilities.SetOperational(f.base.ID, false)
	ufo.Detected = true

	f.state.RunBaseDefence(1)
	if got := len(f.state.Projectiles()); got != 0 {
		t.Fatalf("unpowered base fired %d shots", got)
	}

	f.facilities.SetOperational(f.base.ID, true)
	f.state.RunBaseDefence(1)
	ps := f.state.Projectiles()
	if len(ps) != 1 {
		t.Fatalf("projectiles = %d, want 1", len(ps))
	}
	if ps[0].Attacker != 0 || ps[0].Target != ufo.ID {
		t.Errorf("projectile attacker = %d target = %d, want battery fire at %d", ps[0].Attacker, ps[0].Target, ufo.ID)
	}
	if f.base.Batteries[0].Target != ufo.ID {
		t.Errorf("battery target = %d, want %d", f.base.Batteries[0].Target, ufo.ID)
	}

	f.state.RunBaseDefence(1)
	if got := len(f.state.Projectiles()); got != 1 {
		t.Errorf("battery fired again while reloading, projectiles = %d", got)
	}

	ufo.Detected = false
	f.base.Batteries[0].Slot.DelayNextShot = 0
	f.state.RunBaseDefence(1)
	if f.base.Batteries[0].Target != 0 {
		t.Errorf("battery should drop a target it can no longer see")
	}
}

func TestEmptiedClipKeepsReloadDelay(t *testing.T) {
	f := newFixture(t)
	cannon, err := f.state.Catalog().Weapon("cannon")
	must(t, err)
	shells, err := f.state.Catalog().Ammo("shells")
	must(t, err)
	f.base.Batteries = []Battery{{Slot: Slot{Weapon: cannon, Ammo: shells, AmmoLeft: 1}}}
	ufo := f.ufo(t, "Scout-1", geo.Position{Lon: 2})
	ufo.Detected = true

	f.state.RunBaseDefence(1)
	slot := f.base.Batteries[0].Slot
	if got := len(f.state.Projectiles()); got != 1 {
		t.Fatalf("projectiles = %d, want 1", got)
	}
	if slot.AmmoLeft != shells.Clip {
		t.Errorf("ammo left = %d, want a fresh clip of %d", slot.AmmoLeft, shells.Clip)
	}
	if slot.DelayNextShot != shells.WeaponDelay*reloadDelayMultiplier {
		t.Errorf("delay = %v, want the reload delay %v", slot.DelayNextShot, shells.WeaponDelay*reloadDelayMultiplier)
	}
}

func TestTargetRemovedWhileShotInFlight(t *testing.T) {
	f := newFixture(t)
	a, ufo := engaged(t, f)

	f.state.ExecuteCombatTick(a, ufo)
	if ps := f.state.Projectiles(); len(ps) != 1 || ps[0].Idle() {
		t.Fatalf("expected one shot homing on the UFO, got %+v", ps)
	}

	// The UFO leaves the geoscape before the shell lands.
	must(t, f.state.RemoveUnit(ufo.ID, false))
	if _, ok := f.state.Unit(ufo.ID); ok {
		t.Error("a removed UFO should no longer resolve")
	}
	if ps := f.state.Projectiles(); len(ps) != 1 || !ps[0].Idle() {
		t.Fatalf("the shot should turn idle, got %+v", ps)
	}
	if a.Status != StatusReturning || a.Target != 0 {
		t.Errorf("attacker status = %v target = %d, want returning with no target", a.Status, a.Target)
	}

	for i := 0; i < 5; i++ {
		f.state.RunProjectiles(1)
	}
	f.state.runCombat()
	if got := f.state.Counters().Hits; got != 0 {
		t.Errorf("hits = %d, want none on a removed unit", got)
	}
	if got := len(f.state.Projectiles()); got != 0 {
		t.Errorf("projectiles = %d, want the idle shot spent", got)
	}
	if ufo.Damage != 60 {
		t.Errorf("removed ufo health = %v, want untouched 60", ufo.Damage)
	}
}

func TestStaleTargetHandleSendsPursuerHome(t *testing.T) {
	f := newFixture(t)
	a := f.aircraft(t, "Raven")
	a.Status = StatusPursuit
	a.Target = 999

	f.state.runCombat()
	if a.Status != StatusReturning {
		t.Errorf("status = %v, want returning", a.Status)
	}
	if got := len(f.state.Projectiles()); got != 0 {
		t.Errorf("projectiles = %d, want none fired at a missing unit", got)
	}
}
