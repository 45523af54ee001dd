package simulation

import (
	"fmt"
	"math/rand"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/config"
	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// world is the engine state with the collaborators the runner drives directly.
type world struct {
	state      *engine.State
	crew       *engine.FixedCrew
	missions   *engine.StaticMissions
	facilities *engine.OpenFacilities
	names      map[string]engine.UnitID
}

func position(l config.Location) geo.Position {
	return geo.Position{Lon: l.Longitude, Lat: l.Latitude}
}

// buildCatalog registers the configured items and templates.
func buildCatalog(cfg *config.SimulationConfig) (*engine.Catalog, error) {
	c := engine.NewCatalog()

	for _, w := range cfg.Catalog.Weapons {
		if err := c.AddWeapon(engine.WeaponDef{
			ID:               w.ID,
			Name:             w.Name,
			InstallationTime: w.InstallationTime,
			Bullets:          w.Bullets,
			Beam:             w.Beam,
		}); err != nil {
			return nil, err
		}
	}

	for _, a := range cfg.Catalog.Ammo {
		if err := c.AddAmmo(engine.AmmoDef{
			ID:          a.ID,
			Name:        a.Name,
			Damage:      a.Damage,
			Speed:       a.Speed,
			Range:       a.Range,
			Accuracy:    a.Accuracy,
			WeaponDelay: a.WeaponDelay,
			Clip:        a.Clip,
			Unlimited:   a.Unlimited,
		}); err != nil {
			return nil, err
		}
	}

	for _, e := range cfg.Catalog.Electronics {
		mods := make(map[engine.Stat]float64, len(e.Modifiers))
		for stat, v := range e.Modifiers {
			mods[engine.Stat(stat)] = v
		}
		if err := c.AddElectronics(engine.ElectronicsDef{
			ID:               e.ID,
			Name:             e.Name,
			InstallationTime: e.InstallationTime,
			Modifiers:        mods,
		}); err != nil {
			return nil, err
		}
	}

	add := func(templates []config.TemplateConfig, kind engine.Kind) error {
		for _, t := range templates {
			loadout := make([]engine.Loadout, 0, len(t.Weapons))
			for _, l := range t.Weapons {
				loadout = append(loadout, engine.Loadout{Weapon: l.Weapon, Ammo: l.Ammo})
			}
			if err := c.AddTemplate(engine.Template{
				ID:                 t.ID,
				Name:               t.Name,
				Kind:               kind,
				Stats:              t.Stats,
				WeaponSlots:        t.WeaponSlots,
				ElectronicsSlots:   t.ElectronicsSlots,
				Weapons:            loadout,
				Electronics:        t.Electronics,
				RadarRange:         t.RadarRange,
				RadarTrackingRange: t.RadarTrackingRange,
			}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(cfg.AircraftTemplates, engine.KindAircraft); err != nil {
		return nil, err
	}
	if err := add(cfg.UFOTemplates, engine.KindUFO); err != nil {
		return nil, err
	}
	return c, nil
}

func radarSettings(cfg *config.SimulationConfig) engine.RadarSettings {
	return engine.RadarSettings{
		BaseRange:            cfg.Radar.BaseRange,
		BaseTrackingRange:    cfg.Radar.BaseTrackingRange,
		UpgradeMultiplier:    cfg.Radar.UpgradeMultiplier,
		DetectionProbability: cfg.Radar.DetectionProbability,
		DetectionInterval:    cfg.Radar.DetectionInterval,
		MaxContacts:          cfg.Limits.MaxContacts,
	}
}

// engineOptions wires a fresh set of collaborators around the catalog.
func engineOptions(cfg *config.SimulationConfig, catalog *engine.Catalog, notifier engine.Notifier) (engine.Options, *world) {
	w := &world{
		crew:       engine.NewFixedCrew(cfg.Crew.TeamSize),
		missions:   engine.NewStaticMissions(nil),
		facilities: engine.NewOpenFacilities(),
		names:      make(map[string]engine.UnitID),
	}
	for _, m := range cfg.Missions {
		w.missions.AddSite(engine.MissionID(m.ID), position(m.Location))
	}
	for _, b := range cfg.Bases {
		if b.Offline {
			w.facilities.SetOperational(engine.BaseID(b.ID), false)
		}
		if b.Antimatter != nil {
			w.facilities.SetAntimatter(engine.BaseID(b.ID), *b.Antimatter)
		}
	}

	opts := engine.Options{
		Catalog: catalog,
		Radar:   radarSettings(cfg),
		Limits: engine.Limits{
			MaxProjectiles:    cfg.Limits.MaxProjectiles,
			MaxDetectingRange: cfg.Limits.MaxDetectingRange,
		},
		Random:     rand.New(rand.NewSource(cfg.Simulation.Seed)),
		Notifier:   notifier,
		Crew:       w.crew,
		Missions:   w.missions,
		Facilities: w.facilities,
	}
	return opts, w
}

func mountBatteries(c *engine.Catalog, loadouts []config.LoadoutConfig) ([]engine.Battery, error) {
	batteries := make([]engine.Battery, 0, len(loadouts))
	for _, l := range loadouts {
		weapon, err := c.Weapon(l.Weapon)
		if err != nil {
			return nil, err
		}
		ammo, err := c.Ammo(l.Ammo)
		if err != nil {
			return nil, err
		}
		batteries = append(batteries, engine.Battery{
			Slot: engine.Slot{Weapon: weapon, Ammo: ammo, AmmoLeft: ammo.Clip},
		})
	}
	return batteries, nil
}

// buildWorld creates the starting geoscape of the scenario.
func buildWorld(cfg *config.SimulationConfig, notifier engine.Notifier) (*world, error) {
	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	opts, w := engineOptions(cfg, catalog, notifier)
	st := engine.NewState(opts)
	w.state = st

	for _, bc := range cfg.Bases {
		batteries, err := mountBatteries(catalog, bc.Batteries)
		if err != nil {
			return nil, fmt.Errorf("base %s: %w", bc.ID, err)
		}
		if err := st.AddBase(&engine.Base{
			ID:        engine.BaseID(bc.ID),
			Name:      bc.Name,
			Pos:       position(bc.Location),
			Radar:     st.BaseRadar(bc.RadarLevel),
			Batteries: batteries,
		}); err != nil {
			return nil, err
		}
	}

	for _, ic := range cfg.Installations {
		batteries, err := mountBatteries(catalog, ic.Batteries)
		if err != nil {
			return nil, fmt.Errorf("installation %s: %w", ic.ID, err)
		}
		if err := st.AddInstallation(&engine.Installation{
			ID:        engine.InstallationID(ic.ID),
			Name:      ic.Name,
			Pos:       position(ic.Location),
			Radar:     st.BaseRadar(ic.RadarLevel),
			Batteries: batteries,
			Working:   !ic.Offline,
		}); err != nil {
			return nil, err
		}
	}

	for _, bc := range cfg.Bases {
		base, _ := st.Base(engine.BaseID(bc.ID))
		for _, ac := range bc.Aircraft {
			u, err := newUnit(catalog, ac.Template, ac.Name)
			if err != nil {
				return nil, err
			}
			u.Home = base.ID
			u.Pos = base.Pos
			id, err := st.AddUnit(u)
			if err != nil {
				return nil, fmt.Errorf("aircraft %s: %w", ac.Name, err)
			}
			w.names[ac.Name] = id
		}
	}

	for _, sc := range cfg.UFOs {
		u, err := newUnit(catalog, sc.Template, sc.Name)
		if err != nil {
			return nil, err
		}
		u.Pos = position(sc.Location)
		u.Status = engine.StatusTransit
		u.Mission = engine.MissionID(sc.Mission)
		u.Interceptor = sc.Interceptor
		u.Detected = sc.Detected
		id, err := st.AddUnit(u)
		if err != nil {
			return nil, fmt.Errorf("ufo %s: %w", sc.Name, err)
		}
		w.names[sc.Name] = id

		dest, ok := w.missions.Position(u.Mission)
		if sc.Destination != nil {
			dest, ok = position(*sc.Destination), true
		}
		if ok {
			if err := st.SendToDestination(id, dest); err != nil {
				return nil, fmt.Errorf("ufo %s: %w", sc.Name, err)
			}
		}
	}
	// UFOs spawned as already detected go straight onto the radars.
	st.RestoreContacts()

	w.applyCrew(cfg)
	return w, nil
}

func newUnit(c *engine.Catalog, template, name string) (*engine.Unit, error) {
	t, err := c.Template(template)
	if err != nil {
		return nil, err
	}
	return c.NewUnit(t, name)
}

// applyCrew sets team sizes, pilots and UFO stages by unit name. It runs after units
// exist, for fresh and restored geoscapes alike.
func (w *world) applyCrew(cfg *config.SimulationConfig) {
	for _, bc := range cfg.Bases {
		for _, ac := range bc.Aircraft {
			id, ok := w.names[ac.Name]
			if !ok {
				continue
			}
			if ac.TeamSize != nil {
				w.crew.SetTeamSize(id, *ac.TeamSize)
			}
			if ac.NoPilot {
				w.crew.SetPilot(id, false)
			}
		}
	}
	for _, sc := range cfg.UFOs {
		if id, ok := w.names[sc.Name]; ok {
			w.missions.SetStages(id, sc.Stages)
		}
	}
}

// indexNames rebuilds the name table from a restored state.
func (w *world) indexNames() {
	for _, u := range w.state.Units() {
		w.names[u.Name] = u.ID
	}
}
