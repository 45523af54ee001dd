package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("../config.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Simulation.Name != "geoscape" {
		t.Errorf("Expected simulation name 'geoscape', got '%s'", config.Simulation.Name)
	}

	if config.Simulation.TickSeconds != 5 || config.Simulation.TicksPerUpdate != 12 {
		t.Errorf("Expected 12 ticks of 5s, got %d of %v", config.Simulation.TicksPerUpdate, config.Simulation.TickSeconds)
	}

	if config.Simulation.UpdateInterval != 500*time.Millisecond {
		t.Errorf("Expected update interval 500ms, got %v", config.Simulation.UpdateInterval)
	}

	if len(config.Bases) != 2 || config.AircraftCount() != 3 {
		t.Errorf("Expected 2 bases with 3 aircraft, got %d with %d", len(config.Bases), config.AircraftCount())
	}

	if config.Bases[0].Antimatter == nil || *config.Bases[0].Antimatter != 500 {
		t.Errorf("Expected Northwatch antimatter 500, got %v", config.Bases[0].Antimatter)
	}

	if config.Bases[1].Antimatter != nil {
		t.Errorf("Expected unlimited antimatter at Southreach")
	}

	if got := config.Bases[1].Aircraft[0].TeamSize; got == nil || *got != 6 {
		t.Errorf("Expected Osprey-1 team size 6, got %v", got)
	}

	if len(config.UFOs) != 2 || !config.UFOs[1].Interceptor {
		t.Errorf("Expected 2 UFOs with an interceptor second, got %+v", config.UFOs)
	}

	if config.Radar.BaseTrackingRange != 34 {
		t.Errorf("Expected tracking range 34, got %v", config.Radar.BaseTrackingRange)
	}

	interceptor := config.AircraftTemplates[0]
	if interceptor.Stats.FuelSize != 14400 || len(interceptor.Weapons) != 2 {
		t.Errorf("Unexpected interceptor template: %+v", interceptor)
	}

	if got := config.Catalog.Electronics[0].Modifiers["accuracy"]; got != 1.2 {
		t.Errorf("Expected targeting module accuracy 1.2, got %v", got)
	}

	if len(config.Orders) != 2 || config.Orders[0].Action != ActionPursue {
		t.Errorf("Expected pursue order first, got %+v", config.Orders)
	}

	if config.Persistence.TrackFlushInterval != 2*time.Second {
		t.Errorf("Expected track flush interval 2s, got %v", config.Persistence.TrackFlushInterval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := GetDefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("Default config validation failed: %v", err)
	}

	if config.Simulation.Name != "geoscape" {
		t.Errorf("Expected default simulation name 'geoscape', got '%s'", config.Simulation.Name)
	}

	if len(config.UFOs) == 0 {
		t.Errorf("Default config must spawn UFOs")
	}

	if !strings.Contains(config.String(), "Aircraft: 3") {
		t.Errorf("String() should report the aircraft count:\n%s", config.String())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SimulationConfig)
		wantErr string
	}{
		{
			name:    "empty name",
			mutate:  func(c *SimulationConfig) { c.Simulation.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "zero tick",
			mutate:  func(c *SimulationConfig) { c.Simulation.TickSeconds = 0 },
			wantErr: "tick seconds",
		},
		{
			name:    "negative update interval",
			mutate:  func(c *SimulationConfig) { c.Simulation.UpdateInterval = -time.Second },
			wantErr: "update interval",
		},
		{
			name:    "detection beyond tracking",
			mutate:  func(c *SimulationConfig) { c.Radar.BaseRange = 40 },
			wantErr: "exceeds tracking range",
		},
		{
			name:    "probability above one",
			mutate:  func(c *SimulationConfig) { c.Radar.DetectionProbability = 1.5 },
			wantErr: "detection probability",
		},
		{
			name:    "duplicate ammo",
			mutate:  func(c *SimulationConfig) { c.Catalog.Ammo = append(c.Catalog.Ammo, c.Catalog.Ammo[0]) },
			wantErr: "duplicated",
		},
		{
			name: "unknown stat modifier",
			mutate: func(c *SimulationConfig) {
				c.Catalog.Electronics[0].Modifiers = map[string]float64{"luck": 2}
			},
			wantErr: "unknown stat",
		},
		{
			name:    "unknown loadout",
			mutate:  func(c *SimulationConfig) { c.AircraftTemplates[0].Weapons[0].Ammo = "pebbles" },
			wantErr: "unknown ammo",
		},
		{
			name:    "no bases",
			mutate:  func(c *SimulationConfig) { c.Bases = nil },
			wantErr: "at least one base",
		},
		{
			name:    "unknown aircraft template",
			mutate:  func(c *SimulationConfig) { c.Bases[0].Aircraft[0].Template = "scout" },
			wantErr: "unknown template",
		},
		{
			name:    "duplicate unit name",
			mutate:  func(c *SimulationConfig) { c.UFOs[0].Name = "Falcon-1" },
			wantErr: "duplicated",
		},
		{
			name:    "order for unknown unit",
			mutate:  func(c *SimulationConfig) { c.Orders[0].Unit = "Ghost" },
			wantErr: "unknown unit",
		},
		{
			name:    "order with unknown action",
			mutate:  func(c *SimulationConfig) { c.Orders[0].Action = "dance" },
			wantErr: "unknown action",
		},
		{
			name: "patrol without location",
			mutate: func(c *SimulationConfig) {
				c.Orders = []OrderConfig{{Action: ActionPatrol, Unit: "Falcon-1"}}
			},
			wantErr: "needs a location",
		},
		{
			name: "bad storage driver",
			mutate: func(c *SimulationConfig) {
				c.Persistence.Enabled = true
				c.Persistence.Driver = "mysql"
			},
			wantErr: "storage driver",
		},
		{
			name:    "bad report format",
			mutate:  func(c *SimulationConfig) { c.Report.Format = "pdf" },
			wantErr: "report format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GetDefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMergeWithEnvironment(t *testing.T) {
	t.Setenv("GEOSCAPE_TICK_SECONDS", "2.5")
	t.Setenv("GEOSCAPE_MAX_TICKS", "100")
	t.Setenv("GEOSCAPE_STORAGE_DRIVER", "POSTGRES")
	t.Setenv("GEOSCAPE_INFLUX_URL", "http://influx:8086")
	t.Setenv("GEOSCAPE_LOG_LEVEL", "verbose")
	t.Setenv("GEOSCAPE_ENABLE_AAR", "false")

	config := GetDefaultConfig()
	MergeWithEnvironment(config)

	if config.Simulation.TickSeconds != 2.5 {
		t.Errorf("Expected tick seconds 2.5, got %v", config.Simulation.TickSeconds)
	}
	if config.Simulation.MaxTicks != 100 {
		t.Errorf("Expected max ticks 100, got %d", config.Simulation.MaxTicks)
	}
	if config.Persistence.Driver != "postgres" {
		t.Errorf("Expected driver postgres, got %s", config.Persistence.Driver)
	}
	if !config.Telemetry.Influx.Enabled || config.Telemetry.Influx.URL != "http://influx:8086" {
		t.Errorf("Expected influx enabled at the env url, got %+v", config.Telemetry.Influx)
	}
	if config.Logging.ConsoleLevel != "info" {
		t.Errorf("Invalid level should be ignored, got %s", config.Logging.ConsoleLevel)
	}
	if config.Report.EnableAAR {
		t.Error("Expected AAR disabled")
	}
}

func TestMergeWithCLIOverrides(t *testing.T) {
	config := GetDefaultConfig()
	MergeWithCLIOverrides(config, map[string]interface{}{
		"tick_seconds":     10,
		"ticks_per_update": 3.0,
		"update_interval":  "2s",
		"seed":             int64(42),
		"aar_format":       "json",
		"storage_driver":   "oracle",
		"max_ticks":        -5,
	})

	if config.Simulation.TickSeconds != 10 {
		t.Errorf("Expected tick seconds 10, got %v", config.Simulation.TickSeconds)
	}
	if config.Simulation.TicksPerUpdate != 3 {
		t.Errorf("Expected 3 ticks per update, got %d", config.Simulation.TicksPerUpdate)
	}
	if config.Simulation.UpdateInterval != 2*time.Second {
		t.Errorf("Expected update interval 2s, got %v", config.Simulation.UpdateInterval)
	}
	if config.Simulation.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", config.Simulation.Seed)
	}
	if config.Report.Format != "json" {
		t.Errorf("Expected json reports, got %s", config.Report.Format)
	}
	if config.Persistence.Driver != "sqlite" {
		t.Errorf("Unknown driver should be ignored, got %s", config.Persistence.Driver)
	}
	if config.Simulation.MaxTicks != 4320 {
		t.Errorf("Negative max ticks should be ignored, got %d", config.Simulation.MaxTicks)
	}
}

func TestSaveConfigReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scenario.yaml")
	config := GetDefaultConfig()
	config.Simulation.Seed = 7

	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Simulation.Seed != 7 || len(loaded.Bases) != len(config.Bases) {
		t.Errorf("Reloaded config differs: seed %d, %d bases", loaded.Simulation.Seed, len(loaded.Bases))
	}

	config.Simulation.Name = ""
	if err := SaveConfig(config, path); err == nil {
		t.Error("SaveConfig should reject an invalid config")
	}
}
