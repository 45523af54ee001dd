// Package config manages the named storage profiles the CLI uses to find saved games.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName    = ".geoscape-sim"
	profilesFileName = "profiles.yaml"
)

// Profile is a named database target for saved games and tracks
type Profile struct {
	Name   string `yaml:"name"`
	Driver string `yaml:"driver"` // "sqlite", "postgres"
	DSN    string `yaml:"dsn"`
}

// Config holds the storage profiles
type Config struct {
	Profiles []Profile `yaml:"profiles"`
	Selected string    `yaml:"selected,omitempty"`
}

// Find returns the profile with the given name.
func (c *Config) Find(name string) (*Profile, bool) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}

// Add appends a profile, refusing duplicate names.
func (c *Config) Add(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if _, exists := c.Find(p.Name); exists {
		return fmt.Errorf("profile %s already exists", p.Name)
	}
	switch p.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported driver %q", p.Driver)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// Remove deletes the named profile and clears the selection if it pointed at it.
func (c *Config) Remove(name string) bool {
	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			if c.Selected == name {
				c.Selected = ""
			}
			return true
		}
	}
	return false
}

// ProfilesPath returns the default profiles file location
func ProfilesPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, configDirName, profilesFileName), nil
}

// LoadProfiles loads storage profiles from the default location
func LoadProfiles() (*Config, error) {
	path, err := ProfilesPath()
	if err != nil {
		return nil, err
	}
	return LoadProfilesFromFile(path)
}

// LoadProfilesFromFile loads storage profiles from a specific file
func LoadProfilesFromFile(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveProfiles saves the storage profiles to the default location
func SaveProfiles(config *Config) error {
	path, err := ProfilesPath()
	if err != nil {
		return err
	}
	return SaveProfilesToFile(config, path)
}

// SaveProfilesToFile saves the storage profiles to a specific file
func SaveProfilesToFile(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getDefaultConfig returns a default configuration
func getDefaultConfig() *Config {
	return &Config{
		Profiles: []Profile{
			{
				Name:   "local",
				Driver: "sqlite",
				DSN:    "geoscape.db",
			},
		},
		Selected: "local",
	}
}
