package drill

import (
	"fmt"
	"time"
)

// Config holds the configuration for the intercept drill
type Config struct {
	BaseLon        float64
	BaseLat        float64
	Separation     float64 // degrees between pursuer and target at the start
	PursuerSpeed   float64 // degrees per hour
	TargetSpeed    float64 // degrees per hour
	Headings       int
	StepSeconds    float64
	UpdateInterval time.Duration
}

func defaultConfig() *Config {
	return &Config{
		BaseLon:        10,
		BaseLat:        50,
		Separation:     10,
		PursuerSpeed:   40,
		TargetSpeed:    30,
		Headings:       8,
		StepSeconds:    5,
		UpdateInterval: 100 * time.Millisecond,
	}
}

func number(params map[string]interface{}, key string, dst *float64) error {
	v, ok := params[key]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case float64:
		*dst = val
	case int:
		*dst = float64(val)
	case int64:
		*dst = float64(val)
	default:
		return fmt.Errorf("%s must be a number", key)
	}
	return nil
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := defaultConfig()

	for key, dst := range map[string]*float64{
		"base_lon":      &config.BaseLon,
		"base_lat":      &config.BaseLat,
		"separation":    &config.Separation,
		"pursuer_speed": &config.PursuerSpeed,
		"target_speed":  &config.TargetSpeed,
		"step_seconds":  &config.StepSeconds,
	} {
		if err := number(params, key, dst); err != nil {
			return nil, err
		}
	}

	if v, ok := params["headings"]; ok {
		switch val := v.(type) {
		case int:
			config.Headings = val
		case float64:
			config.Headings = int(val)
		default:
			return nil, fmt.Errorf("headings must be an integer")
		}
	}

	if v, ok := params["update_interval"]; ok {
		switch val := v.(type) {
		case time.Duration:
			config.UpdateInterval = val
		default:
			d, err := time.ParseDuration(fmt.Sprintf("%v", v))
			if err != nil {
				return nil, fmt.Errorf("invalid update_interval format: %w", err)
			}
			config.UpdateInterval = d
		}
	}

	if config.BaseLat < -90 || config.BaseLat > 90 {
		return nil, fmt.Errorf("base_lat must be between -90 and 90")
	}
	if config.Separation <= 0 || config.Separation >= 90 {
		return nil, fmt.Errorf("separation must be between 0 and 90 degrees")
	}
	if config.PursuerSpeed <= 0 || config.TargetSpeed <= 0 {
		return nil, fmt.Errorf("speeds must be positive")
	}
	if config.Headings < 1 || config.Headings > 72 {
		return nil, fmt.Errorf("headings must be between 1 and 72")
	}
	if config.StepSeconds <= 0 {
		return nil, fmt.Errorf("step_seconds must be positive")
	}
	if config.UpdateInterval <= 0 {
		return nil, fmt.Errorf("update_interval must be positive")
	}

	return config, nil
}
