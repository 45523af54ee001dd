package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
)

// SimulationConfig holds the complete scenario configuration
type SimulationConfig struct {
	// Basic simulation settings
	Simulation SimulationSettings `yaml:"simulation"`

	// Engine caps
	Limits LimitsConfig `yaml:"limits"`

	// Campaign-wide radar constants
	Radar RadarConfig `yaml:"radar"`

	// Item catalog and unit templates
	Catalog           CatalogConfig    `yaml:"catalog"`
	AircraftTemplates []TemplateConfig `yaml:"aircraft_templates"`
	UFOTemplates      []TemplateConfig `yaml:"ufo_templates"`

	// Scenario layout
	Bases         []BaseConfig         `yaml:"bases"`
	Installations []InstallationConfig `yaml:"installations,omitempty"`
	Missions      []MissionConfig      `yaml:"missions,omitempty"`
	UFOs          []UFOSpawn           `yaml:"ufos"`
	Orders        []OrderConfig        `yaml:"orders,omitempty"`

	// Crew defaults for aircraft without their own team size
	Crew CrewConfig `yaml:"crew"`

	// Storage, metrics and output
	Persistence PersistenceConfig `yaml:"persistence"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
	Report      ReportConfig      `yaml:"report"`
}

// SimulationSettings holds basic simulation settings
type SimulationSettings struct {
	Name           string        `yaml:"name"`
	Description    string        `yaml:"description"`
	TickSeconds    float64       `yaml:"tick_seconds"`     // simulated seconds per engine tick
	TicksPerUpdate int           `yaml:"ticks_per_update"` // engine ticks per wall update
	UpdateInterval time.Duration `yaml:"update_interval"`  // wall time between updates
	MaxTicks       int64         `yaml:"max_ticks"`        // 0 runs until stopped
	Seed           int64         `yaml:"seed"`
	OverlayEvery   int           `yaml:"overlay_every"` // ticks between radar overlay refreshes
}

// Location is a point on the geoscape in degrees
type Location struct {
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`
}

// LimitsConfig caps projectiles and radar contacts
type LimitsConfig struct {
	MaxProjectiles    int     `yaml:"max_projectiles"`
	MaxContacts       int     `yaml:"max_contacts"`
	MaxDetectingRange float64 `yaml:"max_detecting_range"` // degrees an interceptor looks for prey
}

// RadarConfig defines the radar constants, ranges are in degrees
type RadarConfig struct {
	BaseRange            float64 `yaml:"base_range"`
	BaseTrackingRange    float64 `yaml:"base_tracking_range"`
	UpgradeMultiplier    float64 `yaml:"upgrade_multiplier"`
	DetectionProbability float64 `yaml:"detection_probability"` // 0.0 to 1.0 per pass
	DetectionInterval    float64 `yaml:"detection_interval"`    // simulated seconds
}

// CatalogConfig lists the craft items
type CatalogConfig struct {
	Weapons     []WeaponConfig      `yaml:"weapons"`
	Ammo        []AmmoConfig        `yaml:"ammo"`
	Electronics []ElectronicsConfig `yaml:"electronics,omitempty"`
}

// WeaponConfig defines a weapon item
type WeaponConfig struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	InstallationTime int    `yaml:"installation_time"` // hours
	Bullets          bool   `yaml:"bullets,omitempty"`
	Beam             bool   `yaml:"beam,omitempty"`
}

// AmmoConfig defines an ammo item
type AmmoConfig struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Damage      float64 `yaml:"damage"`
	Speed       float64 `yaml:"speed"` // degrees per hour
	Range       float64 `yaml:"range"` // degrees
	Accuracy    float64 `yaml:"accuracy"`
	WeaponDelay float64 `yaml:"weapon_delay"` // seconds between shots
	Clip        int     `yaml:"clip"`
	Unlimited   bool    `yaml:"unlimited,omitempty"`
}

// ElectronicsConfig defines an electronics item
type ElectronicsConfig struct {
	ID               string             `yaml:"id"`
	Name             string             `yaml:"name"`
	InstallationTime int                `yaml:"installation_time"`
	Modifiers        map[string]float64 `yaml:"modifiers"` // stat -> factor or bonus
}

// LoadoutConfig mounts a weapon with its ammo
type LoadoutConfig struct {
	Weapon string `yaml:"weapon"`
	Ammo   string `yaml:"ammo"`
}

// TemplateConfig defines an aircraft or UFO model
type TemplateConfig struct {
	ID                 string          `yaml:"id"`
	Name               string          `yaml:"name"`
	Stats              engine.Stats    `yaml:"stats"`
	WeaponSlots        int             `yaml:"weapon_slots"`
	ElectronicsSlots   int             `yaml:"electronics_slots"`
	Weapons            []LoadoutConfig `yaml:"weapons,omitempty"`
	Electronics        []string        `yaml:"electronics,omitempty"`
	RadarRange         float64         `yaml:"radar_range,omitempty"`
	RadarTrackingRange float64         `yaml:"radar_tracking_range,omitempty"`
}

// BaseConfig defines a player base and its hangar
type BaseConfig struct {
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	Location   Location         `yaml:"location"`
	RadarLevel float64          `yaml:"radar_level"`
	Offline    bool             `yaml:"offline,omitempty"`
	Antimatter *int             `yaml:"antimatter,omitempty"` // nil is unlimited
	Batteries  []LoadoutConfig  `yaml:"batteries,omitempty"`
	Aircraft   []AircraftConfig `yaml:"aircraft"`
}

// AircraftConfig defines an aircraft parked in a base
type AircraftConfig struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	TeamSize *int   `yaml:"team_size,omitempty"`
	NoPilot  bool   `yaml:"no_pilot,omitempty"`
}

// InstallationConfig defines a radar or defence installation
type InstallationConfig struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Location   Location        `yaml:"location"`
	RadarLevel float64         `yaml:"radar_level"`
	Offline    bool            `yaml:"offline,omitempty"`
	Batteries  []LoadoutConfig `yaml:"batteries,omitempty"`
}

// MissionConfig defines a static mission site
type MissionConfig struct {
	ID       string   `yaml:"id"`
	Location Location `yaml:"location"`
}

// UFOSpawn defines a UFO present at the start of the run
type UFOSpawn struct {
	Name        string    `yaml:"name"`
	Template    string    `yaml:"template"`
	Location    Location  `yaml:"location"`
	Destination *Location `yaml:"destination,omitempty"` // nil picks a random one
	Mission     string    `yaml:"mission,omitempty"`
	Interceptor bool      `yaml:"interceptor,omitempty"`
	Stages      int       `yaml:"stages,omitempty"` // arrivals before it leaves, 0 is never
	Detected    bool      `yaml:"detected,omitempty"`
}

// Order actions
const (
	ActionSendToMission  = "send_to_mission"
	ActionPursue         = "pursue"
	ActionPatrol         = "patrol"
	ActionReturn         = "return"
	ActionCancelPursuit  = "cancel_pursuit"
	ActionTransfer       = "transfer"
	ActionRemoveMission  = "remove_mission"
	ActionUFODestination = "ufo_destination"
)

var validActions = []string{
	ActionSendToMission,
	ActionPursue,
	ActionPatrol,
	ActionReturn,
	ActionCancelPursuit,
	ActionTransfer,
	ActionRemoveMission,
	ActionUFODestination,
}

// OrderConfig is a scripted command applied at a tick
type OrderConfig struct {
	Tick     int64     `yaml:"tick"`
	Action   string    `yaml:"action"`
	Unit     string    `yaml:"unit,omitempty"`   // aircraft or UFO name
	Target   string    `yaml:"target,omitempty"` // UFO name, mission or base id
	Location *Location `yaml:"location,omitempty"`
}

// CrewConfig defines default crew assignments
type CrewConfig struct {
	TeamSize int `yaml:"team_size"`
}

// PersistenceConfig defines the save-game store
type PersistenceConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Driver             string        `yaml:"driver"` // "sqlite", "postgres"
	DSN                string        `yaml:"dsn"`
	SaveName           string        `yaml:"save_name"`
	SaveOnExit         bool          `yaml:"save_on_exit"`
	ResumeFrom         string        `yaml:"resume_from,omitempty"` // save uuid
	RecordTracks       bool          `yaml:"record_tracks"`
	TrackBatchSize     int           `yaml:"track_batch_size"`
	TrackFlushInterval time.Duration `yaml:"track_flush_interval"`
}

// TelemetryConfig defines metrics and the time-series sink
type TelemetryConfig struct {
	EnableMetrics bool         `yaml:"enable_metrics"`
	Influx        InfluxConfig `yaml:"influx"`
}

// InfluxConfig defines the InfluxDB connection
type InfluxConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	Org        string `yaml:"org"`
	Bucket     string `yaml:"bucket"`
	BackupPath string `yaml:"backup_path"` // gzip line protocol when unreachable
}

// LoggingConfig defines console logging
type LoggingConfig struct {
	ConsoleLevel    string `yaml:"console_level"` // "debug", "info", "warn", "error"
	GELFAddress     string `yaml:"gelf_address,omitempty"`
	EventBufferSize int    `yaml:"event_buffer_size"`
	LogTicks        bool   `yaml:"log_ticks"`
}

// ReportConfig defines the after-action report
type ReportConfig struct {
	EnableAAR  bool   `yaml:"enable_aar"`
	Format     string `yaml:"format"` // "json", "markdown"
	OutputPath string `yaml:"output_path"`
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validDrivers = []string{"sqlite", "postgres"}
	validFormats = []string{"json", "markdown"}
)

func oneOf(value string, valid []string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *SimulationConfig) Validate() error {
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation name is required")
	}

	if c.Simulation.TickSeconds <= 0 {
		return fmt.Errorf("tick seconds must be positive")
	}

	if c.Simulation.TicksPerUpdate <= 0 {
		return fmt.Errorf("ticks per update must be positive")
	}

	if c.Simulation.UpdateInterval <= 0 {
		return fmt.Errorf("update interval must be positive")
	}

	if c.Simulation.MaxTicks < 0 {
		return fmt.Errorf("max ticks cannot be negative")
	}

	if c.Limits.MaxProjectiles <= 0 || c.Limits.MaxContacts <= 0 {
		return fmt.Errorf("projectile and contact limits must be positive")
	}

	// Validate radar constants
	if c.Radar.BaseRange < 0 || c.Radar.BaseTrackingRange < 0 {
		return fmt.Errorf("radar ranges cannot be negative")
	}

	if c.Radar.BaseRange > c.Radar.BaseTrackingRange {
		return fmt.Errorf("radar detection range %.1f exceeds tracking range %.1f", c.Radar.BaseRange, c.Radar.BaseTrackingRange)
	}

	if c.Radar.DetectionProbability < 0 || c.Radar.DetectionProbability > 1 {
		return fmt.Errorf("detection probability must be between 0.0 and 1.0")
	}

	if err := c.validateCatalog(); err != nil {
		return err
	}

	if err := c.validateScenario(); err != nil {
		return err
	}

	if c.Persistence.Enabled && !oneOf(c.Persistence.Driver, validDrivers) {
		return fmt.Errorf("storage driver %q must be one of %s", c.Persistence.Driver, strings.Join(validDrivers, ", "))
	}

	if c.Telemetry.Influx.Enabled && c.Telemetry.Influx.URL == "" {
		return fmt.Errorf("influx url is required when influx is enabled")
	}

	if c.Logging.ConsoleLevel != "" && !oneOf(c.Logging.ConsoleLevel, validLevels) {
		return fmt.Errorf("invalid console level %q", c.Logging.ConsoleLevel)
	}

	if c.Report.EnableAAR && !oneOf(c.Report.Format, validFormats) {
		return fmt.Errorf("report format %q must be json or markdown", c.Report.Format)
	}

	return nil
}

func (c *SimulationConfig) validateCatalog() error {
	weapons := make(map[string]bool)
	for _, w := range c.Catalog.Weapons {
		if w.ID == "" || weapons[w.ID] {
			return fmt.Errorf("weapon id %q is empty or duplicated", w.ID)
		}
		weapons[w.ID] = true
	}

	ammo := make(map[string]bool)
	for _, a := range c.Catalog.Ammo {
		if a.ID == "" || ammo[a.ID] {
			return fmt.Errorf("ammo id %q is empty or duplicated", a.ID)
		}
		if a.Speed <= 0 || a.Range <= 0 {
			return fmt.Errorf("ammo %q needs a positive speed and range", a.ID)
		}
		if !a.Unlimited && a.Clip <= 0 {
			return fmt.Errorf("ammo %q needs a positive clip", a.ID)
		}
		ammo[a.ID] = true
	}

	for _, e := range c.Catalog.Electronics {
		for stat := range e.Modifiers {
			if !engine.Stat(stat).Valid() {
				return fmt.Errorf("electronics %q modifies unknown stat %q", e.ID, stat)
			}
		}
	}

	checkLoadouts := func(owner string, loadouts []LoadoutConfig) error {
		for _, l := range loadouts {
			if !weapons[l.Weapon] {
				return fmt.Errorf("%s mounts unknown weapon %q", owner, l.Weapon)
			}
			if !ammo[l.Ammo] {
				return fmt.Errorf("%s loads unknown ammo %q", owner, l.Ammo)
			}
		}
		return nil
	}

	seen := make(map[string]bool)
	for _, t := range append(append([]TemplateConfig{}, c.AircraftTemplates...), c.UFOTemplates...) {
		if t.ID == "" || seen[t.ID] {
			return fmt.Errorf("template id %q is empty or duplicated", t.ID)
		}
		seen[t.ID] = true
		if t.Stats.Speed <= 0 || t.Stats.Damage <= 0 {
			return fmt.Errorf("template %q needs a positive speed and damage", t.ID)
		}
		if len(t.Weapons) > t.WeaponSlots {
			return fmt.Errorf("template %q has %d weapons for %d slots", t.ID, len(t.Weapons), t.WeaponSlots)
		}
		if t.RadarRange > t.RadarTrackingRange {
			return fmt.Errorf("template %q radar range exceeds its tracking range", t.ID)
		}
		if err := checkLoadouts("template "+t.ID, t.Weapons); err != nil {
			return err
		}
	}

	for _, b := range c.Bases {
		if err := checkLoadouts("base "+b.ID, b.Batteries); err != nil {
			return err
		}
	}
	for _, in := range c.Installations {
		if err := checkLoadouts("installation "+in.ID, in.Batteries); err != nil {
			return err
		}
	}

	return nil
}

func (c *SimulationConfig) validateScenario() error {
	if len(c.Bases) == 0 {
		return fmt.Errorf("at least one base is required")
	}

	aircraftTemplates := make(map[string]bool)
	for _, t := range c.AircraftTemplates {
		aircraftTemplates[t.ID] = true
	}
	ufoTemplates := make(map[string]bool)
	for _, t := range c.UFOTemplates {
		ufoTemplates[t.ID] = true
	}

	bases := make(map[string]bool)
	units := make(map[string]bool)
	for _, b := range c.Bases {
		if b.ID == "" || bases[b.ID] {
			return fmt.Errorf("base id %q is empty or duplicated", b.ID)
		}
		bases[b.ID] = true
		if b.RadarLevel < 0 {
			return fmt.Errorf("base %q radar level cannot be negative", b.ID)
		}
		for _, a := range b.Aircraft {
			if !aircraftTemplates[a.Template] {
				return fmt.Errorf("aircraft %q uses unknown template %q", a.Name, a.Template)
			}
			if a.Name == "" || units[a.Name] {
				return fmt.Errorf("unit name %q is empty or duplicated", a.Name)
			}
			units[a.Name] = true
		}
	}

	missions := make(map[string]bool)
	for _, m := range c.Missions {
		if m.ID == "" || missions[m.ID] {
			return fmt.Errorf("mission id %q is empty or duplicated", m.ID)
		}
		missions[m.ID] = true
	}

	for _, u := range c.UFOs {
		if !ufoTemplates[u.Template] {
			return fmt.Errorf("ufo %q uses unknown template %q", u.Name, u.Template)
		}
		if u.Name == "" || units[u.Name] {
			return fmt.Errorf("unit name %q is empty or duplicated", u.Name)
		}
		units[u.Name] = true
		if u.Mission != "" && !missions[u.Mission] {
			return fmt.Errorf("ufo %q flies unknown mission %q", u.Name, u.Mission)
		}
	}

	for i, o := range c.Orders {
		if !oneOf(o.Action, validActions) {
			return fmt.Errorf("order %d: unknown action %q", i, o.Action)
		}
		if o.Tick < 0 {
			return fmt.Errorf("order %d: negative tick", i)
		}
		if o.Action != ActionRemoveMission && !units[o.Unit] {
			return fmt.Errorf("order %d: unknown unit %q", i, o.Unit)
		}
		switch o.Action {
		case ActionSendToMission, ActionRemoveMission:
			if !missions[o.Target] {
				return fmt.Errorf("order %d: unknown mission %q", i, o.Target)
			}
		case ActionPursue:
			if !units[o.Target] {
				return fmt.Errorf("order %d: unknown target %q", i, o.Target)
			}
		case ActionTransfer:
			if !bases[o.Target] {
				return fmt.Errorf("order %d: unknown base %q", i, o.Target)
			}
		case ActionPatrol, ActionUFODestination:
			if o.Location == nil {
				return fmt.Errorf("order %d: %s needs a location", i, o.Action)
			}
		}
	}

	return nil
}

// AircraftCount returns the number of aircraft across all bases
func (c *SimulationConfig) AircraftCount() int {
	n := 0
	for _, b := range c.Bases {
		n += len(b.Aircraft)
	}
	return n
}

// String returns a human-readable representation of the configuration
func (c *SimulationConfig) String() string {
	return fmt.Sprintf(`Simulation Configuration:
  Name: %s
  Description: %s
  Tick: %.1fs x %d every %v
  Max Ticks: %d
  Seed: %d

Scenario:
  Bases: %d
  Aircraft: %d
  Installations: %d
  UFOs: %d
  Missions: %d
  Scripted Orders: %d

Radar:
  Base Range: %.1f deg
  Tracking Range: %.1f deg
  Detection Probability: %.3f every %.0fs

Limits:
  Max Projectiles: %d
  Max Contacts: %d

Persistence:
  Enabled: %t
  Driver: %s
  Record Tracks: %t

Telemetry:
  Metrics: %t
  Influx: %t

Logging:
  Console Level: %s
  AAR Enabled: %t
  AAR Format: %s`,
		c.Simulation.Name,
		c.Simulation.Description,
		c.Simulation.TickSeconds,
		c.Simulation.TicksPerUpdate,
		c.Simulation.UpdateInterval,
		c.Simulation.MaxTicks,
		c.Simulation.Seed,
		len(c.Bases),
		c.AircraftCount(),
		len(c.Installations),
		len(c.UFOs),
		len(c.Missions),
		len(c.Orders),
		c.Radar.BaseRange,
		c.Radar.BaseTrackingRange,
		c.Radar.DetectionProbability,
		c.Radar.DetectionInterval,
		c.Limits.MaxProjectiles,
		c.Limits.MaxContacts,
		c.Persistence.Enabled,
		c.Persistence.Driver,
		c.Persistence.RecordTracks,
		c.Telemetry.EnableMetrics,
		c.Telemetry.Influx.Enabled,
		c.Logging.ConsoleLevel,
		c.Report.EnableAAR,
		c.Report.Format,
	)
}

func intPtr(v int) *int { return &v }

// GetDefaultConfig returns the default two-base interception scenario
func GetDefaultConfig() *SimulationConfig {
	radar := engine.DefaultRadarSettings()
	limits := engine.DefaultLimits()

	return &SimulationConfig{
		Simulation: SimulationSettings{
			Name:           "geoscape",
			Description:    "Geoscape air combat: interceptors against a UFO incursion",
			TickSeconds:    5,
			TicksPerUpdate: 12,
			UpdateInterval: 500 * time.Millisecond,
			MaxTicks:       4320,
			Seed:           1,
			OverlayEvery:   10,
		},

		Limits: LimitsConfig{
			MaxProjectiles:    limits.MaxProjectiles,
			MaxContacts:       radar.MaxContacts,
			MaxDetectingRange: limits.MaxDetectingRange,
		},

		Radar: RadarConfig{
			BaseRange:            radar.BaseRange,
			BaseTrackingRange:    radar.BaseTrackingRange,
			UpgradeMultiplier:    radar.UpgradeMultiplier,
			DetectionProbability: radar.DetectionProbability,
			DetectionInterval:    radar.DetectionInterval,
		},

		Catalog: CatalogConfig{
			Weapons: []WeaponConfig{
				{ID: "stingray_launcher", Name: "Stingray Launcher", InstallationTime: 12},
				{ID: "cannon", Name: "Cannon", InstallationTime: 6, Bullets: true},
				{ID: "plasma_beam", Name: "Plasma Beam", InstallationTime: 24, Beam: true},
			},
			Ammo: []AmmoConfig{
				{ID: "stingray_missile", Name: "Stingray Missile", Damage: 70, Speed: 900, Range: 3, Accuracy: 0.7, WeaponDelay: 15, Clip: 6},
				{ID: "cannon_rounds", Name: "Cannon Rounds", Damage: 10, Speed: 1200, Range: 1, Accuracy: 0.25, WeaponDelay: 2, Clip: 200},
				{ID: "plasma_charge", Name: "Plasma Charge", Damage: 60, Speed: 1800, Range: 2.5, Accuracy: 0.5, WeaponDelay: 8, Unlimited: true},
			},
			Electronics: []ElectronicsConfig{
				{ID: "targeting_module", Name: "Targeting Module", InstallationTime: 8, Modifiers: map[string]float64{"accuracy": 1.2}},
			},
		},

		AircraftTemplates: []TemplateConfig{
			{
				ID:                 "interceptor",
				Name:               "Interceptor",
				Stats:              engine.Stats{Speed: 40, MaxSpeed: 40, Damage: 200, Accuracy: 100, FuelSize: 14400},
				WeaponSlots:        2,
				ElectronicsSlots:   1,
				Weapons:            []LoadoutConfig{{Weapon: "stingray_launcher", Ammo: "stingray_missile"}, {Weapon: "cannon", Ammo: "cannon_rounds"}},
				Electronics:        []string{"targeting_module"},
				RadarRange:         6,
				RadarTrackingRange: 9,
			},
		},

		UFOTemplates: []TemplateConfig{
			{
				ID:          "fighter",
				Name:        "Fighter",
				Stats:       engine.Stats{Speed: 35, MaxSpeed: 35, Damage: 300, Shield: 5, Accuracy: 100, ECM: 120, FuelSize: 100000},
				WeaponSlots: 1,
				Weapons:     []LoadoutConfig{{Weapon: "plasma_beam", Ammo: "plasma_charge"}},
			},
			{
				ID:    "scout",
				Name:  "Scout",
				Stats: engine.Stats{Speed: 30, MaxSpeed: 30, Damage: 150, Accuracy: 100, FuelSize: 100000},
			},
		},

		Bases: []BaseConfig{
			{
				ID:         "northwatch",
				Name:       "Northwatch",
				Location:   Location{Longitude: 10, Latitude: 50},
				RadarLevel: 1,
				Antimatter: intPtr(500),
				Batteries:  []LoadoutConfig{{Weapon: "stingray_launcher", Ammo: "stingray_missile"}},
				Aircraft: []AircraftConfig{
					{Name: "Falcon-1", Template: "interceptor"},
					{Name: "Falcon-2", Template: "interceptor"},
				},
			},
			{
				ID:         "southreach",
				Name:       "Southreach",
				Location:   Location{Longitude: 30, Latitude: -20},
				RadarLevel: 2,
				Aircraft: []AircraftConfig{
					{Name: "Osprey-1", Template: "interceptor", TeamSize: intPtr(6)},
				},
			},
		},

		Installations: []InstallationConfig{
			{ID: "atlas-radar", Name: "Atlas Radar", Location: Location{Longitude: -5, Latitude: 30}, RadarLevel: 1},
		},

		Missions: []MissionConfig{
			{ID: "crash-site-alpha", Location: Location{Longitude: 18, Latitude: 46}},
			{ID: "terror-site", Location: Location{Longitude: 25, Latitude: 40}},
		},

		UFOs: []UFOSpawn{
			{Name: "UFO-Scout-1", Template: "scout", Location: Location{Longitude: 20, Latitude: 55}, Destination: &Location{Longitude: 5, Latitude: 45}, Stages: 4},
			{Name: "UFO-Fighter-1", Template: "fighter", Location: Location{Longitude: 28, Latitude: 42}, Mission: "terror-site", Interceptor: true},
		},

		Orders: []OrderConfig{
			{Tick: 30, Action: ActionPursue, Unit: "Falcon-1", Target: "UFO-Scout-1"},
			{Tick: 60, Action: ActionSendToMission, Unit: "Osprey-1", Target: "crash-site-alpha"},
		},

		Crew: CrewConfig{
			TeamSize: 4,
		},

		Persistence: PersistenceConfig{
			Enabled:            false,
			Driver:             "sqlite",
			DSN:                "geoscape.db",
			SaveName:           "autosave",
			SaveOnExit:         true,
			RecordTracks:       true,
			TrackBatchSize:     100,
			TrackFlushInterval: 2 * time.Second,
		},

		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			Influx: InfluxConfig{
				Enabled:    false,
				URL:        "http://localhost:8086",
				Org:        "geoscape",
				Bucket:     "geoscape",
				BackupPath: "./reports/telemetry-backup.lp.gz",
			},
		},

		Logging: LoggingConfig{
			ConsoleLevel:    "info",
			EventBufferSize: 1000,
		},

		Report: ReportConfig{
			EnableAAR:  true,
			Format:     "markdown",
			OutputPath: "./reports/",
		},
	}
}
