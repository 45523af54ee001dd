package drill

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/picogrid/geoscape-sim/pkg/geo"
	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

func TestValidateAndParse(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]interface{}
		wantErr string
	}{
		{name: "defaults", params: map[string]interface{}{}},
		{name: "integer speeds", params: map[string]interface{}{"pursuer_speed": 50, "headings": 12}},
		{name: "duration string", params: map[string]interface{}{"update_interval": "5ms"}},
		{name: "bad separation", params: map[string]interface{}{"separation": 0.0}, wantErr: "separation"},
		{name: "bad speed type", params: map[string]interface{}{"target_speed": "fast"}, wantErr: "target_speed"},
		{name: "too many headings", params: map[string]interface{}{"headings": 100}, wantErr: "headings"},
		{name: "bad interval", params: map[string]interface{}{"update_interval": "soon"}, wantErr: "update_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndParse(tt.params)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDestination(t *testing.T) {
	start := geo.Position{Lon: 10, Lat: 50}
	north := destination(start, 0, 10)
	if d := geo.DistanceOnGlobe(start, north); d < 9.999 || d > 10.001 {
		t.Errorf("Expected 10 degrees, got %f", d)
	}
	if north.Lat < 59.99 || north.Lat > 60.01 {
		t.Errorf("Expected latitude 60, got %f", north.Lat)
	}
}

func TestFasterPursuerClosesEveryHeading(t *testing.T) {
	cfg := defaultConfig()
	for _, h := range headings(8) {
		trial := runTrial(cfg, h)
		if !trial.Intercept.Found {
			t.Errorf("heading %.0f: expected an intercept", h)
			continue
		}
		if !trial.Closed {
			t.Errorf("heading %.0f: pursuer never reached the aim point", h)
		}
		if trial.MissKm > 100 {
			t.Errorf("heading %.0f: missed by %.1f km", h, trial.MissKm)
		}
	}
}

func TestHeadOnIsQuickest(t *testing.T) {
	cfg := defaultConfig()
	headOn := runTrial(cfg, 180)
	fleeing := runTrial(cfg, 0)
	if !(headOn.Hours < fleeing.Hours) {
		t.Errorf("Expected head-on %.2fh quicker than a stern chase %.2fh", headOn.Hours, fleeing.Hours)
	}
}

func TestRunFliesAllHeadings(t *testing.T) {
	sim, err := simulation.DefaultRegistry.Get("Intercept Drill")
	if err != nil {
		t.Fatalf("drill not registered: %v", err)
	}
	if err := sim.Configure(map[string]interface{}{"headings": 4, "update_interval": time.Millisecond}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sim.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(sim.(*InterceptDrill).Trials()); got != 4 {
		t.Errorf("Expected 4 trials, got %d", got)
	}
}

func TestStopBeforeSweepEnds(t *testing.T) {
	sim := NewInterceptDrill().(*InterceptDrill)
	if err := sim.Configure(map[string]interface{}{"update_interval": time.Hour}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = sim.Stop()
	}()
	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}
