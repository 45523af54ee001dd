package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/geoscape-sim/pkg/logger"
	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

// ManifestName is the file that declares a simulation and its parameters.
const ManifestName = "simulation.yaml"

// SimulationInfo contains information about a discovered simulation
type SimulationInfo struct {
	Path   string
	Config simulation.SimulationConfig
}

// DiscoverSimulations finds all simulations in the cmd directory of the project
func DiscoverSimulations() ([]SimulationInfo, error) {
	rootDir, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	return DiscoverSimulationsIn(filepath.Join(rootDir, "cmd"))
}

// DiscoverSimulationsIn walks dir for manifests. Broken manifests are logged and
// skipped; the result is sorted by simulation name.
func DiscoverSimulationsIn(dir string) ([]SimulationInfo, error) {
	var simulations []SimulationInfo

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Name() != ManifestName {
			return nil
		}

		simInfo, err := loadSimulationConfig(path)
		if err != nil {
			logger.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		simulations = append(simulations, *simInfo)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for simulations: %w", err)
	}

	sort.Slice(simulations, func(i, j int) bool {
		return simulations[i].Config.Name < simulations[j].Config.Name
	})
	return simulations, nil
}

// loadSimulationConfig loads and validates a simulation manifest
func loadSimulationConfig(path string) (*SimulationInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	var config simulation.SimulationConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SimulationInfo{
		Path:   filepath.Dir(path),
		Config: config,
	}, nil
}

// findProjectRoot walks up from the working directory to the directory holding go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}
