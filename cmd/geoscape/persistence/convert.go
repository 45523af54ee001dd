package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// ErrUnsupportedVersion is returned for records written by a newer layout.
var ErrUnsupportedVersion = errors.New("unsupported record version")

func toJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

func fromJSON(data datatypes.JSON, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func slotToRecord(s engine.Slot) slotRecord {
	r := slotRecord{
		AmmoLeft:         s.AmmoLeft,
		DelayNextShot:    s.DelayNextShot,
		InstallationTime: s.InstallationTime,
	}
	if s.Weapon != nil {
		r.Weapon = s.Weapon.ID
	}
	if s.Ammo != nil {
		r.Ammo = s.Ammo.ID
	}
	if s.Electronics != nil {
		r.Electronics = s.Electronics.ID
	}
	return r
}

func slotsToJSON(slots []engine.Slot) datatypes.JSON {
	records := make([]slotRecord, len(slots))
	for i, s := range slots {
		records[i] = slotToRecord(s)
	}
	return toJSON(records)
}

func recordToSlot(c *engine.Catalog, r slotRecord) (engine.Slot, error) {
	s := engine.Slot{
		AmmoLeft:         r.AmmoLeft,
		DelayNextShot:    r.DelayNextShot,
		InstallationTime: r.InstallationTime,
	}
	var err error
	if r.Weapon != "" {
		if s.Weapon, err = c.Weapon(r.Weapon); err != nil {
			return s, err
		}
	}
	if r.Ammo != "" {
		if s.Ammo, err = c.Ammo(r.Ammo); err != nil {
			return s, err
		}
	}
	if r.Electronics != "" {
		if s.Electronics, err = c.Electronic(r.Electronics); err != nil {
			return s, err
		}
	}
	return s, nil
}

func slotsFromJSON(c *engine.Catalog, data datatypes.JSON) ([]engine.Slot, error) {
	var records []slotRecord
	if err := fromJSON(data, &records); err != nil {
		return nil, fmt.Errorf("slots: %w", err)
	}
	slots := make([]engine.Slot, len(records))
	for i, r := range records {
		s, err := recordToSlot(c, r)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		slots[i] = s
	}
	return slots, nil
}

func batteriesToJSON(batteries []engine.Battery) datatypes.JSON {
	records := make([]batteryRecord, len(batteries))
	for i, b := range batteries {
		records[i] = batteryRecord{Slot: slotToRecord(b.Slot), Target: uint64(b.Target)}
	}
	return toJSON(records)
}

func batteriesFromJSON(c *engine.Catalog, data datatypes.JSON) ([]engine.Battery, error) {
	var records []batteryRecord
	if err := fromJSON(data, &records); err != nil {
		return nil, fmt.Errorf("batteries: %w", err)
	}
	batteries := make([]engine.Battery, len(records))
	for i, r := range records {
		s, err := recordToSlot(c, r.Slot)
		if err != nil {
			return nil, fmt.Errorf("battery %d: %w", i, err)
		}
		batteries[i] = engine.Battery{Slot: s, Target: engine.UnitID(r.Target)}
	}
	return batteries, nil
}

func radarToJSON(r engine.Radar) datatypes.JSON {
	return toJSON(radarRecord{
		Range:                r.Range,
		TrackingRange:        r.TrackingRange,
		DetectionProbability: r.DetectionProbability,
		MaxContacts:          r.MaxContacts,
	})
}

// radarFromJSON restores the sensor without contacts; they are rebuilt from the
// detection flags once every unit is back.
func radarFromJSON(data datatypes.JSON) (engine.Radar, error) {
	var r radarRecord
	if err := fromJSON(data, &r); err != nil {
		return engine.Radar{}, fmt.Errorf("radar: %w", err)
	}
	return engine.Radar{
		Range:                r.Range,
		TrackingRange:        r.TrackingRange,
		DetectionProbability: r.DetectionProbability,
		MaxContacts:          r.MaxContacts,
	}, nil
}

func baseToRecord(saveID string, b *engine.Base) BaseRecord {
	return BaseRecord{
		SaveID:    saveID,
		BaseID:    string(b.ID),
		Name:      b.Name,
		Lon:       b.Pos.Lon,
		Lat:       b.Pos.Lat,
		Radar:     radarToJSON(b.Radar),
		Batteries: batteriesToJSON(b.Batteries),
	}
}

func recordToBase(c *engine.Catalog, r BaseRecord) (*engine.Base, error) {
	radar, err := radarFromJSON(r.Radar)
	if err != nil {
		return nil, err
	}
	batteries, err := batteriesFromJSON(c, r.Batteries)
	if err != nil {
		return nil, err
	}
	return &engine.Base{
		ID:        engine.BaseID(r.BaseID),
		Name:      r.Name,
		Pos:       geo.Position{Lon: r.Lon, Lat: r.Lat},
		Radar:     radar,
		Batteries: batteries,
	}, nil
}

func installationToRecord(saveID string, in *engine.Installation) InstallationRecord {
	return InstallationRecord{
		SaveID:         saveID,
		InstallationID: string(in.ID),
		Name:           in.Name,
		Lon:            in.Pos.Lon,
		Lat:            in.Pos.Lat,
		Working:        in.Working,
		Radar:          radarToJSON(in.Radar),
		Batteries:      batteriesToJSON(in.Batteries),
	}
}

func recordToInstallation(c *engine.Catalog, r InstallationRecord) (*engine.Installation, error) {
	radar, err := radarFromJSON(r.Radar)
	if err != nil {
		return nil, err
	}
	batteries, err := batteriesFromJSON(c, r.Batteries)
	if err != nil {
		return nil, err
	}
	return &engine.Installation{
		ID:        engine.InstallationID(r.InstallationID),
		Name:      r.Name,
		Pos:       geo.Position{Lon: r.Lon, Lat: r.Lat},
		Working:   r.Working,
		Radar:     radar,
		Batteries: batteries,
	}, nil
}

func unitToRecord(saveID string, u *engine.Unit) UnitRecord {
	r := UnitRecord{
		SaveID:         saveID,
		Version:        RecordVersion,
		UnitID:         uint64(u.ID),
		Kind:           u.Kind.String(),
		Name:           u.Name,
		Status:         u.Status.String(),
		Lon:            u.Pos.Lon,
		Lat:            u.Pos.Lat,
		Fuel:           u.Fuel,
		Health:         u.Damage,
		Route:          toJSON(u.Route.Points),
		RouteDistance:  u.Route.Distance,
		Time:           u.Time,
		Point:          u.Point,
		Target:         uint64(u.Target),
		Mission:        string(u.Mission),
		Home:           string(u.Home),
		TransferTo:     string(u.TransferTo),
		Weapons:        slotsToJSON(u.Weapons),
		Electronics:    slotsToJSON(u.Electronics),
		Stats:          toJSON(u.Stats),
		Radar:          radarToJSON(u.Radar),
		Detected:       u.Detected,
		Landed:         u.Landed,
		Interceptor:    u.Interceptor,
		DetectionIndex: u.DetectionIndex,
		LastSpotted:    u.LastSpotted,
	}
	if u.Template != nil {
		r.TemplateID = u.Template.ID
	}
	return r
}

// recordToUnit rebuilds a unit. An empty route is a parked or idle unit; any other
// point count must form a valid route.
func recordToUnit(c *engine.Catalog, r UnitRecord) (*engine.Unit, error) {
	if r.Version > RecordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	status, err := engine.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	kind, err := engine.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	tmpl, err := c.Template(r.TemplateID)
	if err != nil {
		return nil, err
	}

	var route geo.Route
	if err := fromJSON(r.Route, &route.Points); err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	route.Distance = r.RouteDistance
	if len(route.Points) > 0 {
		if err := route.Validate(); err != nil {
			return nil, err
		}
	}
	if r.Point < 0 || (len(route.Points) > 0 && r.Point >= len(route.Points)) {
		return nil, fmt.Errorf("%w: point %d of %d", geo.ErrCorruptRoute, r.Point, len(route.Points))
	}

	weapons, err := slotsFromJSON(c, r.Weapons)
	if err != nil {
		return nil, fmt.Errorf("weapons: %w", err)
	}
	electronics, err := slotsFromJSON(c, r.Electronics)
	if err != nil {
		return nil, fmt.Errorf("electronics: %w", err)
	}
	var stats engine.Stats
	if err := fromJSON(r.Stats, &stats); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	radar, err := radarFromJSON(r.Radar)
	if err != nil {
		return nil, err
	}

	return &engine.Unit{
		ID:             engine.UnitID(r.UnitID),
		Name:           r.Name,
		Kind:           kind,
		Template:       tmpl,
		Stats:          stats,
		Pos:            geo.Position{Lon: r.Lon, Lat: r.Lat},
		Fuel:           r.Fuel,
		Damage:         r.Health,
		Status:         status,
		Route:          route,
		Time:           r.Time,
		Point:          r.Point,
		Target:         engine.UnitID(r.Target),
		Mission:        engine.MissionID(r.Mission),
		Home:           engine.BaseID(r.Home),
		TransferTo:     engine.BaseID(r.TransferTo),
		Weapons:        weapons,
		Electronics:    electronics,
		Radar:          radar,
		Detected:       r.Detected,
		Landed:         r.Landed,
		Interceptor:    r.Interceptor,
		DetectionIndex: r.DetectionIndex,
		LastSpotted:    r.LastSpotted,
	}, nil
}

func projectileToRecord(saveID string, p *engine.Projectile) ProjectileRecord {
	r := ProjectileRecord{
		SaveID:        saveID,
		Version:       RecordVersion,
		ProjectileID:  uint64(p.ID),
		Lon:           p.Pos.Lon,
		Lat:           p.Pos.Lat,
		IdleLon:       p.IdleTarget.Lon,
		IdleLat:       p.IdleTarget.Lat,
		AttackerLon:   p.AttackerPos.Lon,
		AttackerLat:   p.AttackerPos.Lat,
		Time:          p.Time,
		Angle:         p.Angle,
		Bullets:       p.Bullets,
		Beam:          p.Beam,
		Attacker:      uint64(p.Attacker),
		AttackerIsUFO: p.AttackerIsUFO,
		Target:        uint64(p.Target),
	}
	if p.Ammo != nil {
		r.AmmoID = p.Ammo.ID
	}
	return r
}

func recordToProjectile(c *engine.Catalog, r ProjectileRecord) (*engine.Projectile, error) {
	if r.Version > RecordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	ammo, err := c.Ammo(r.AmmoID)
	if err != nil {
		return nil, err
	}
	return &engine.Projectile{
		ID:            engine.ProjectileID(r.ProjectileID),
		Ammo:          ammo,
		Pos:           geo.Position{Lon: r.Lon, Lat: r.Lat},
		IdleTarget:    geo.Position{Lon: r.IdleLon, Lat: r.IdleLat},
		AttackerPos:   geo.Position{Lon: r.AttackerLon, Lat: r.AttackerLat},
		Time:          r.Time,
		Angle:         r.Angle,
		Bullets:       r.Bullets,
		Beam:          r.Beam,
		Attacker:      engine.UnitID(r.Attacker),
		AttackerIsUFO: r.AttackerIsUFO,
		Target:        engine.UnitID(r.Target),
	}, nil
}
