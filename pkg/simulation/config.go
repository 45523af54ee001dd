package simulation

import (
	"errors"
	"fmt"
)

// SimulationConfig is the manifest of a simulation, loaded from its simulation.yaml
type SimulationConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// Parameter defines a configurable parameter for a simulation
type Parameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"` // integer, float, string, duration, boolean
	Description string      `yaml:"description"`
	Default     interface{} `yaml:"default"`
	Required    bool        `yaml:"required"`
	Min         interface{} `yaml:"min,omitempty"`
	Max         interface{} `yaml:"max,omitempty"`
	Options     []string    `yaml:"options,omitempty"` // For string enums
}

var parameterTypes = map[string]bool{
	"integer":  true,
	"float":    true,
	"string":   true,
	"duration": true,
	"boolean":  true,
}

// Validate checks the manifest has a name and well-formed, unique parameters.
func (c SimulationConfig) Validate() error {
	if c.Name == "" {
		return errors.New("manifest has no name")
	}
	seen := make(map[string]bool, len(c.Parameters))
	for _, p := range c.Parameters {
		if p.Name == "" {
			return fmt.Errorf("%s: parameter without a name", c.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%s: duplicate parameter %s", c.Name, p.Name)
		}
		seen[p.Name] = true
		if !parameterTypes[p.Type] {
			return fmt.Errorf("%s: parameter %s has unsupported type %q", c.Name, p.Name, p.Type)
		}
	}
	return nil
}

// Parameter looks up a declared parameter by name.
func (c SimulationConfig) Parameter(name string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}
