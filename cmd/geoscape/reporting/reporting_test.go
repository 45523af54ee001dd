package reporting

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

func newTestLogger(t *testing.T) (*SimulationLogger, *bytes.Buffer) {
	t.Helper()
	sl := NewSimulationLogger("0123456789abcdef", 0)
	var buf bytes.Buffer
	sl.SetOutput(&buf)
	sl.SetResolver(func(id engine.UnitID) (string, string) {
		if id >= 100 {
			return "UFO-" + string(rune('A'+id-100)), SideUFO
		}
		return "Falcon", SideAircraft
	})
	return sl, &buf
}

func TestSimulationLoggerImplementsNotifier(t *testing.T) {
	var _ engine.Notifier = (*SimulationLogger)(nil)
}

func TestSimulationLoggerRecordsEngineEvents(t *testing.T) {
	sl, buf := newTestLogger(t)

	sl.SetTick(3, 15)
	sl.Notice(engine.NoticeUFOAttacking, "A UFO is attacking Falcon")
	sl.Notice(engine.NoticeRefueled, "Falcon refueled")
	sl.UnitBecameVisible(100)
	sl.SetTick(4, 20)
	sl.UnitDestroyed(100)
	sl.UFORemoved(100, true)
	sl.MissionRemoved("terror-site")
	sl.LogCommand("Falcon", "pursue UFO-A", errors.New("no pilot"))

	events := sl.GetEvents()
	if len(events) != 7 {
		t.Fatalf("Expected 7 events, got %d", len(events))
	}
	if events[0].Severity != SeverityCritical || events[0].Tick != 3 || events[0].Clock != 15 {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[3].Type != EventTypeDestruction || events[3].Unit != "UFO-A" || events[3].Side != SideUFO || events[3].Tick != 4 {
		t.Errorf("Unexpected destruction event: %+v", events[3])
	}
	if events[6].Severity != SeverityWarning || events[6].Details["error"] != "no pilot" {
		t.Errorf("Failed order should be a warning with the error, got %+v", events[6])
	}

	out := buf.String()
	if !strings.Contains(out, "Unit Destroyed") || !strings.Contains(out, "Order Failed") {
		t.Errorf("Expected destruction and failed order on the console:\n%s", out)
	}
	if strings.Contains(out, "refueled") {
		t.Errorf("Routine notices should stay off the console:\n%s", out)
	}

	summary := sl.GetSummary()
	if summary.EventCounts[EventTypeNotice] != 2 || summary.NoticeCounts[string(engine.NoticeUFOAttacking)] != 1 {
		t.Errorf("Unexpected counts: %+v %+v", summary.EventCounts, summary.NoticeCounts)
	}
	if summary.SideEvents[SideUFO][EventTypeDestruction] != 1 {
		t.Errorf("Expected one UFO destruction, got %+v", summary.SideEvents)
	}
}

func TestSimulationLoggerCapsEvents(t *testing.T) {
	sl := NewSimulationLogger("cap", 3)
	sl.SetOutput(nil)
	for i := 0; i < 5; i++ {
		sl.LogCommand("Falcon", "patrol", nil)
	}
	if got := len(sl.GetEvents()); got != 3 {
		t.Errorf("Expected 3 events kept, got %d", got)
	}
}

func TestLogTickSkipsQuietTicks(t *testing.T) {
	sl, _ := newTestLogger(t)
	sl.LogTick(engine.TickResult{Tick: 1})
	sl.LogTick(engine.TickResult{Tick: 2, Shots: 1})
	events := sl.GetEvents()
	if len(events) != 1 || events[0].Type != EventTypeTick {
		t.Errorf("Expected only the combat tick logged, got %+v", events)
	}
}

func TestUpdateMetricHistory(t *testing.T) {
	sl, _ := newTestLogger(t)
	sl.UpdateMetric("hit_rate", 0.5, "ratio")
	sl.UpdateMetric("hit_rate", 0.75, "ratio")
	m := sl.GetMetrics()["hit_rate"]
	if m.Value != 0.75 || len(m.History) != 2 || m.Unit != "ratio" {
		t.Errorf("Unexpected metric: %+v", m)
	}
}

func testSnapshot() RunSnapshot {
	tmpl := &engine.Template{ID: "interceptor"}
	falcon := &engine.Unit{ID: 1, Name: "Falcon", Kind: engine.KindAircraft, Template: tmpl, Status: engine.StatusReturning, Fuel: 900, Damage: 80}
	scout := &engine.Unit{ID: 2, Name: "Scout", Kind: engine.KindUFO, Status: engine.StatusDestroyed}
	fighter := &engine.Unit{ID: 3, Name: "Fighter", Kind: engine.KindUFO, Status: engine.StatusTransit}
	return RunSnapshot{
		RunID:    "fedcba9876543210",
		Name:     "geoscape",
		Seed:     1,
		Ticks:    120,
		Clock:    600,
		Counters: engine.Counters{Shots: 10, Hits: 2, Misses: 8, UFOsDetected: 2, Detections: 5, UFOsDestroyed: 2},
		Units:    []*engine.Unit{falcon, scout},
		Retired:  []*engine.Unit{fighter},
		Bases:    []*engine.Base{{ID: "northwatch", Name: "Northwatch", Pos: geo.Position{Lon: 10, Lat: 50}}},
		Tracks: map[engine.UnitID][]geo.Position{
			1: {{Lon: 10, Lat: 50}, {Lon: 11, Lat: 50}, {Lon: 12, Lat: 50}},
		},
	}
}

func TestGenerateAAR(t *testing.T) {
	sl, _ := newTestLogger(t)
	sl.UnitDestroyed(101)
	sl.Notice(engine.NoticeLowFuel, "Falcon is low on fuel")

	g := NewAARGenerator(sl, AARConfig{Format: "json"})
	aar, err := g.GenerateAAR(testSnapshot())
	if err != nil {
		t.Fatalf("GenerateAAR failed: %v", err)
	}

	if aar.Summary.Outcome != "Victory" {
		t.Errorf("Expected Victory, got %s", aar.Summary.Outcome)
	}
	if aar.Summary.UFOsEscaped != 1 || aar.Summary.UFOsActive != 0 {
		t.Errorf("Unexpected UFO tally: %+v", aar.Summary)
	}
	if aar.Engagements.HitRate != 0.2 {
		t.Errorf("Expected hit rate 0.2, got %v", aar.Engagements.HitRate)
	}
	if len(aar.Units) != 3 || aar.Units[0].Name != "Falcon" || aar.Units[2].Name != "Fighter" {
		t.Fatalf("Unexpected unit reports: %+v", aar.Units)
	}
	falcon := aar.Units[0]
	if !strings.HasPrefix(falcon.TrackWKT, "LINESTRING") || falcon.TrackPoints != 3 {
		t.Errorf("Expected a three point track, got %q (%d)", falcon.TrackWKT, falcon.TrackPoints)
	}
	if falcon.DistanceFlown < 100 || falcon.DistanceFlown > 200 {
		t.Errorf("Expected about 143 km flown, got %.1f", falcon.DistanceFlown)
	}
	if aar.Extent == nil || aar.Extent.MaxX <= aar.Extent.MinX {
		t.Errorf("Expected a non-empty extent, got %+v", aar.Extent)
	}
	if len(aar.Summary.KeyEvents) != 1 {
		t.Errorf("Expected the destruction as the only key event, got %v", aar.Summary.KeyEvents)
	}

	var titles []string
	for _, r := range aar.Recommendations {
		titles = append(titles, r.Title)
	}
	joined := strings.Join(titles, ",")
	for _, want := range []string{"Improve Weapon Accuracy", "Extend Operating Range", "Intercept Earlier"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Missing recommendation %q in %v", want, titles)
		}
	}
}

func TestGenerateAARNeedsRunID(t *testing.T) {
	sl, _ := newTestLogger(t)
	if _, err := NewAARGenerator(sl, AARConfig{}).GenerateAAR(RunSnapshot{}); err == nil {
		t.Error("Expected an error without a run id")
	}
}

func TestSaveAAR(t *testing.T) {
	sl, _ := newTestLogger(t)
	dir := t.TempDir()

	for _, format := range []string{"json", "markdown"} {
		g := NewAARGenerator(sl, AARConfig{OutputDir: dir, Format: format})
		aar, err := g.GenerateAAR(testSnapshot())
		if err != nil {
			t.Fatalf("GenerateAAR failed: %v", err)
		}
		path, err := g.SaveAAR(aar)
		if err != nil {
			t.Fatalf("SaveAAR(%s) failed: %v", format, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Report missing: %v", err)
		}

		switch format {
		case "json":
			var decoded AAR
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Invalid JSON report: %v", err)
			}
			if decoded.Metadata.SimulationID != "fedcba9876543210" {
				t.Errorf("Unexpected id %s", decoded.Metadata.SimulationID)
			}
		case "markdown":
			text := string(data)
			if !strings.HasSuffix(path, ".md") || !strings.Contains(text, "# After Action Report") || !strings.Contains(text, "LINESTRING") {
				t.Errorf("Unexpected markdown report at %s:\n%s", path, text)
			}
		}
	}

	g := NewAARGenerator(sl, AARConfig{OutputDir: dir, Format: "pdf"})
	aar, _ := g.GenerateAAR(testSnapshot())
	if _, err := g.SaveAAR(aar); err == nil {
		t.Error("Expected an unsupported format error")
	}
}
