package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/geoscape-sim/pkg/logger"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "GEOSCAPE_"

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*SimulationConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Absent settings keep their defaults, the scenario comes from the file alone
	config := GetDefaultConfig()
	config.Catalog = CatalogConfig{}
	config.AircraftTemplates = nil
	config.UFOTemplates = nil
	config.Bases = nil
	config.Installations = nil
	config.Missions = nil
	config.UFOs = nil
	config.Orders = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads config from file or returns default, with environment overrides
func LoadConfigOrDefault(path string) (*SimulationConfig, error) {
	var config *SimulationConfig
	var err error

	if path != "" {
		config, err = LoadConfig(path)
		if err != nil {
			logger.Warnf("Could not load config from %s: %v", path, err)
			config = nil
		}
	}

	if config == nil {
		defaultPaths := []string{
			"config.yaml",
			"geoscape.yaml",
			filepath.Join("cmd", "geoscape", "config.yaml"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				config, err = LoadConfig(p)
				if err == nil {
					logger.Infof("Loaded config from: %s", p)
					break
				}
				logger.Warnf("Skipping %s: %v", p, err)
			}
		}
	}

	if config == nil {
		logger.Info("Using default configuration")
		config = GetDefaultConfig()
	}

	// Always apply environment variable overrides
	MergeWithEnvironment(config)

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *SimulationConfig, path string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// MergeWithCLIOverrides applies CLI parameter overrides to the configuration
func MergeWithCLIOverrides(config *SimulationConfig, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "tick_seconds":
			if secs, ok := toFloat(value); ok && secs > 0 {
				config.Simulation.TickSeconds = secs
			}
		case "ticks_per_update":
			if n, ok := toInt(value); ok && n > 0 {
				config.Simulation.TicksPerUpdate = int(n)
			}
		case "update_interval":
			if d, ok := toDuration(value); ok && d > 0 {
				config.Simulation.UpdateInterval = d
			}
		case "max_ticks":
			if n, ok := toInt(value); ok && n >= 0 {
				config.Simulation.MaxTicks = n
			}
		case "seed":
			if n, ok := toInt(value); ok {
				config.Simulation.Seed = n
			}
		case "detection_probability":
			if p, ok := toFloat(value); ok && p >= 0 && p <= 1 {
				config.Radar.DetectionProbability = p
			}
		case "max_projectiles":
			if n, ok := toInt(value); ok && n > 0 {
				config.Limits.MaxProjectiles = int(n)
			}
		case "team_size":
			if n, ok := toInt(value); ok && n >= 0 {
				config.Crew.TeamSize = int(n)
			}
		case "persistence_enabled":
			if enable, ok := value.(bool); ok {
				config.Persistence.Enabled = enable
			}
		case "storage_driver":
			if driver, ok := value.(string); ok && oneOf(driver, validDrivers) {
				config.Persistence.Driver = driver
			}
		case "storage_dsn":
			if dsn, ok := value.(string); ok && dsn != "" {
				config.Persistence.DSN = dsn
			}
		case "resume_from":
			if id, ok := value.(string); ok {
				config.Persistence.ResumeFrom = id
			}
		case "enable_metrics":
			if enable, ok := value.(bool); ok {
				config.Telemetry.EnableMetrics = enable
			}
		case "influx_url":
			if url, ok := value.(string); ok && url != "" {
				config.Telemetry.Influx.URL = url
				config.Telemetry.Influx.Enabled = true
			}
		case "gelf_address":
			if addr, ok := value.(string); ok {
				config.Logging.GELFAddress = addr
			}
		case "enable_aar":
			if enable, ok := value.(bool); ok {
				config.Report.EnableAAR = enable
			}
		case "aar_format":
			if format, ok := value.(string); ok && oneOf(format, validFormats) {
				config.Report.Format = format
			}
		case "log_level":
			if level, ok := value.(string); ok && oneOf(level, validLevels) {
				config.Logging.ConsoleLevel = level
			}
		}
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}

func toDuration(v interface{}) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		parsed, err := time.ParseDuration(d)
		return parsed, err == nil
	}
	return 0, false
}

// LoadConfigWithOverrides loads config and applies both environment and CLI overrides
func LoadConfigWithOverrides(path string, cliOverrides map[string]interface{}) (*SimulationConfig, error) {
	config, err := LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	// CLI overrides win over environment variables
	if cliOverrides != nil {
		MergeWithCLIOverrides(config, cliOverrides)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}

	return config, nil
}

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}

// MergeWithEnvironment merges config with GEOSCAPE_* environment variables
func MergeWithEnvironment(config *SimulationConfig) {
	if v := env("TICK_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			config.Simulation.TickSeconds = secs
		}
	}

	if v := env("UPDATE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.Simulation.UpdateInterval = d
		}
	}

	if v := env("MAX_TICKS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			config.Simulation.MaxTicks = n
		}
	}

	if v := env("SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := env("DETECTION_PROBABILITY"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p >= 0 && p <= 1 {
			config.Radar.DetectionProbability = p
		}
	}

	// Storage
	if v := env("PERSISTENCE_ENABLED"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			config.Persistence.Enabled = enable
		}
	}

	if v := env("STORAGE_DRIVER"); v != "" {
		if driver := strings.ToLower(v); oneOf(driver, validDrivers) {
			config.Persistence.Driver = driver
		}
	}

	if v := env("STORAGE_DSN"); v != "" {
		config.Persistence.DSN = v
	}

	// Telemetry
	if v := env("ENABLE_METRICS"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			config.Telemetry.EnableMetrics = enable
		}
	}

	if v := env("INFLUX_URL"); v != "" {
		config.Telemetry.Influx.URL = v
		config.Telemetry.Influx.Enabled = true
	}

	if v := env("INFLUX_TOKEN"); v != "" {
		config.Telemetry.Influx.Token = v
	}

	if v := env("INFLUX_ORG"); v != "" {
		config.Telemetry.Influx.Org = v
	}

	if v := env("INFLUX_BUCKET"); v != "" {
		config.Telemetry.Influx.Bucket = v
	}

	// Logging and reports
	if v := env("LOG_LEVEL"); v != "" {
		if level := strings.ToLower(v); oneOf(level, validLevels) {
			config.Logging.ConsoleLevel = level
		}
	}

	if v := env("GELF_ADDRESS"); v != "" {
		config.Logging.GELFAddress = v
	}

	if v := env("ENABLE_AAR"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			config.Report.EnableAAR = enable
		}
	}

	if v := env("AAR_OUTPUT_PATH"); v != "" {
		config.Report.OutputPath = v
	}
}
