package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

func TestCollectParametersPrefersFile(t *testing.T) {
	t.Setenv("GEOSCAPE_SKIP_PROMPTS", "true")

	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte("max_ticks: 12\nseed: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	declared := []simulation.Parameter{
		{Name: "max_ticks", Type: "integer", Default: 4320},
		{Name: "tick_seconds", Type: "float", Default: 5.0},
		{Name: "resume_from", Type: "string", Required: true},
	}
	// resume_from is required but comes from nowhere: the file must cover it.
	if _, err := collectParameters(simulation.SimulationConfig{Name: "Geoscape", Parameters: declared}, path); err == nil {
		t.Error("Expected a missing required parameter error")
	}

	params, err := collectParameters(simulation.SimulationConfig{Name: "Geoscape", Parameters: declared[:2]}, path)
	if err != nil {
		t.Fatalf("collectParameters failed: %v", err)
	}
	if params["max_ticks"] != 12 || params["seed"] != 3 || params["tick_seconds"] != 5.0 {
		t.Errorf("Unexpected parameters: %v", params)
	}
}

func TestCollectParametersBadFile(t *testing.T) {
	if _, err := collectParameters(simulation.SimulationConfig{}, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing parameters file")
	}
}

func TestSimulationsRegistered(t *testing.T) {
	for _, name := range []string{"Geoscape Air Combat", "Intercept Drill"} {
		if _, err := simulation.DefaultRegistry.Get(name); err != nil {
			t.Errorf("%s not registered: %v", name, err)
		}
	}
}
