package config

import (
	"path/filepath"
	"testing"
)

func TestLoadProfilesMissingFile(t *testing.T) {
	cfg, err := LoadProfilesFromFile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadProfilesFromFile failed: %v", err)
	}
	p, ok := cfg.Find("local")
	if !ok || p.Driver != "sqlite" {
		t.Errorf("Expected the default sqlite profile, got %+v", cfg.Profiles)
	}
}

func TestProfilesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.yaml")
	cfg := getDefaultConfig()
	if err := cfg.Add(Profile{Name: "ops", Driver: "postgres", DSN: "host=db user=geo"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	cfg.Selected = "ops"
	if err := SaveProfilesToFile(cfg, path); err != nil {
		t.Fatalf("SaveProfilesToFile failed: %v", err)
	}

	loaded, err := LoadProfilesFromFile(path)
	if err != nil {
		t.Fatalf("LoadProfilesFromFile failed: %v", err)
	}
	if len(loaded.Profiles) != 2 || loaded.Selected != "ops" {
		t.Errorf("Unexpected profiles: %+v", loaded)
	}
	if p, ok := loaded.Find("ops"); !ok || p.DSN != "host=db user=geo" {
		t.Errorf("Expected ops profile, got %+v", p)
	}
}

func TestAddAndRemove(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid", Profile{Name: "bench", Driver: "sqlite", DSN: "bench.db"}, false},
		{"duplicate", Profile{Name: "local", Driver: "sqlite"}, true},
		{"no name", Profile{Driver: "sqlite"}, true},
		{"bad driver", Profile{Name: "mongo", Driver: "mongodb"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getDefaultConfig()
			err := cfg.Add(tt.profile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cfg := getDefaultConfig()
	if !cfg.Remove("local") || cfg.Selected != "" || len(cfg.Profiles) != 0 {
		t.Errorf("Expected local removed and deselected, got %+v", cfg)
	}
	if cfg.Remove("local") {
		t.Error("Removing twice should report false")
	}
}
