package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

func TestParseEnvValue(t *testing.T) {
	tests := []struct {
		typ   string
		value string
		want  interface{}
	}{
		{"integer", "42", 42},
		{"float", "0.25", 0.25},
		{"string", "sqlite", "sqlite"},
		{"boolean", "true", true},
		{"duration", "250ms", 250 * time.Millisecond},
	}
	for _, tt := range tests {
		got, err := parseEnvValue(tt.value, simulation.Parameter{Name: "p", Type: tt.typ})
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.typ, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.typ, got, tt.want)
		}
	}

	if _, err := parseEnvValue("x", simulation.Parameter{Type: "matrix"}); err == nil {
		t.Error("Expected an unsupported type error")
	}
}

func TestPromptForParametersSkipped(t *testing.T) {
	t.Setenv("GEOSCAPE_SKIP_PROMPTS", "true")
	t.Setenv("GEOSCAPE_MAX_TICKS", "90")

	params := []simulation.Parameter{
		{Name: "max_ticks", Type: "integer", Default: 4320},
		{Name: "seed", Type: "integer", Default: 1},
		{Name: "resume_from", Type: "string"},
	}
	got, err := PromptForParameters(params)
	if err != nil {
		t.Fatalf("PromptForParameters failed: %v", err)
	}
	if got["max_ticks"] != 90 || got["seed"] != 1 {
		t.Errorf("Unexpected values: %v", got)
	}
	if _, ok := got["resume_from"]; ok {
		t.Error("Optional parameters without a value should be left out")
	}

	_, err = PromptForParameters([]simulation.Parameter{{Name: "save", Type: "string", Required: true}})
	if err == nil {
		t.Error("Expected an error for a required parameter without a value")
	}

	t.Setenv("GEOSCAPE_MAX_TICKS", "many")
	if _, err := PromptForParameters(params[:1]); err == nil {
		t.Error("Expected an error for an unparsable environment value")
	}
}

func TestDiscoverSimulations(t *testing.T) {
	infos, err := DiscoverSimulations()
	if err != nil {
		t.Fatalf("DiscoverSimulations failed: %v", err)
	}
	found := map[string]bool{}
	for _, info := range infos {
		found[info.Config.Name] = true
	}
	for _, name := range []string{"Geoscape Air Combat", "Intercept Drill"} {
		if !found[name] {
			t.Errorf("Manifest for %s not discovered", name)
		}
	}
}

func TestRangeValidator(t *testing.T) {
	param := simulation.Parameter{Name: "ticks", Type: "integer", Min: 1, Max: 1000}
	validate := rangeValidator(param, parseIntAsFloat)
	tests := []struct {
		answer  string
		wantErr bool
	}{
		{"12", false},
		{" 1000 ", false},
		{"0", true},
		{"1001", true},
		{"twelve", true},
	}
	for _, tt := range tests {
		if err := validate(tt.answer); (err != nil) != tt.wantErr {
			t.Errorf("%q: error = %v, wantErr %v", tt.answer, err, tt.wantErr)
		}
	}
}

func TestDiscoverSimulationsInSkipsBrokenManifests(t *testing.T) {
	dir := t.TempDir()
	write := func(sub, body string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, ManifestName), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("b", "name: Bravo\nparameters:\n  - name: seed\n    type: integer\n")
	write("a", "name: Alpha\n")
	write("broken", "name: [unterminated\n")
	write("nameless", "description: no name\n")
	write("badtype", "name: Odd\nparameters:\n  - name: x\n    type: matrix\n")

	infos, err := DiscoverSimulationsIn(dir)
	if err != nil {
		t.Fatalf("DiscoverSimulationsIn failed: %v", err)
	}
	if len(infos) != 2 || infos[0].Config.Name != "Alpha" || infos[1].Config.Name != "Bravo" {
		t.Errorf("Expected Alpha and Bravo, got %+v", infos)
	}
}
