package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/geo"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

// AARGenerator builds after-action reports from the event log and the final state.
type AARGenerator struct {
	logger *SimulationLogger
	config AARConfig
}

// AARConfig configures report output.
type AARConfig struct {
	OutputDir        string
	Format           string // "json" or "markdown"
	SimulationConfig map[string]interface{}
}

// RunSnapshot is what the simulation hands over at the end of a run.
type RunSnapshot struct {
	RunID       string
	Name        string
	Seed        int64
	Ticks       int64
	Clock       float64
	Counters    engine.Counters
	Units       []*engine.Unit
	Retired     []*engine.Unit
	Bases       []*engine.Base
	Tracks      map[engine.UnitID][]geo.Position
	SlowestTick time.Duration
	SaveID      string
}

// AAR is an after-action report.
type AAR struct {
	Metadata        AARMetadata            `json:"metadata"`
	Summary         ExecutiveSummary       `json:"summary"`
	Engagements     EngagementReport       `json:"engagements"`
	Detection       DetectionReport        `json:"detection"`
	Units           []UnitReport           `json:"units"`
	Bases           []BaseReport           `json:"bases"`
	Timeline        []TimelineEntry        `json:"timeline"`
	Extent          *geo.Bounds            `json:"extent_3857,omitempty"`
	Recommendations []Recommendation       `json:"recommendations"`
	Config          map[string]interface{} `json:"config,omitempty"`
}

type AARMetadata struct {
	SimulationID  string    `json:"simulation_id"`
	Name          string    `json:"name"`
	Seed          int64     `json:"seed"`
	GeneratedAt   time.Time `json:"generated_at"`
	WallDuration  string    `json:"wall_duration"`
	Ticks         int64     `json:"ticks"`
	SimulatedTime string    `json:"simulated_time"`
	SlowestTick   string    `json:"slowest_tick"`
	SaveID        string    `json:"save_id,omitempty"`
	Version       string    `json:"version"`
}

// ExecutiveSummary is the high-level outcome.
type ExecutiveSummary struct {
	Outcome       string   `json:"outcome"`
	UFOsDestroyed int      `json:"ufos_destroyed"`
	UFOsEscaped   int      `json:"ufos_escaped"`
	UFOsActive    int      `json:"ufos_active"`
	AircraftLost  int      `json:"aircraft_lost"`
	KeyEvents     []string `json:"key_events"`
}

type EngagementReport struct {
	Shots   int     `json:"shots"`
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type DetectionReport struct {
	UFOsDetected int `json:"ufos_detected"`
	Detections   int `json:"detections"`
	SignalsLost  int `json:"signals_lost"`
}

// UnitReport is the final condition and flown track of one unit.
type UnitReport struct {
	ID            engine.UnitID `json:"id"`
	Name          string        `json:"name"`
	Kind          string        `json:"kind"`
	Template      string        `json:"template"`
	Status        string        `json:"status"`
	Fuel          float64       `json:"fuel"`
	Health        float64       `json:"health"`
	Position      geo.Position  `json:"position"`
	DistanceFlown float64       `json:"distance_flown_km"`
	TrackPoints   int           `json:"track_points"`
	TrackWKT      string        `json:"track_wkt,omitempty"`
}

type BaseReport struct {
	ID        engine.BaseID `json:"id"`
	Name      string        `json:"name"`
	Position  geo.Position  `json:"position"`
	Batteries int           `json:"batteries"`
	Contacts  int           `json:"contacts"`
}

type TimelineEntry struct {
	Tick        int64   `json:"tick"`
	Clock       float64 `json:"clock"`
	ElapsedTime string  `json:"elapsed_time"`
	EventType   string  `json:"event_type"`
	Description string  `json:"description"`
	Impact      string  `json:"impact"`
}

type Recommendation struct {
	Priority    string `json:"priority"` // "High", "Medium", "Low"
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewAARGenerator creates a report generator.
func NewAARGenerator(logger *SimulationLogger, config AARConfig) *AARGenerator {
	return &AARGenerator{
		logger: logger,
		config: config,
	}
}

// GenerateAAR assembles the report.
func (g *AARGenerator) GenerateAAR(run RunSnapshot) (*AAR, error) {
	if run.RunID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	summary := g.logger.GetSummary()
	events := g.logger.GetEvents()

	aar := &AAR{
		Metadata: AARMetadata{
			SimulationID:  run.RunID,
			Name:          run.Name,
			Seed:          run.Seed,
			GeneratedAt:   time.Now(),
			WallDuration:  summary.Duration.Round(time.Millisecond).String(),
			Ticks:         run.Ticks,
			SimulatedTime: simulated(run.Clock),
			SlowestTick:   run.SlowestTick.String(),
			SaveID:        run.SaveID,
			Version:       "1.0",
		},
		Config: g.config.SimulationConfig,
	}

	aar.Engagements = EngagementReport{
		Shots:  run.Counters.Shots,
		Hits:   run.Counters.Hits,
		Misses: run.Counters.Misses,
	}
	if run.Counters.Shots > 0 {
		aar.Engagements.HitRate = float64(run.Counters.Hits) / float64(run.Counters.Shots)
	}
	aar.Detection = DetectionReport{
		UFOsDetected: run.Counters.UFOsDetected,
		Detections:   run.Counters.Detections,
		SignalsLost:  summary.NoticeCounts[string(engine.NoticeSignalLost)],
	}

	units, err := g.unitReports(run)
	if err != nil {
		return nil, err
	}
	aar.Units = units
	aar.Bases = g.baseReports(run.Bases)
	aar.Summary = g.executiveSummary(run, events)
	aar.Timeline = g.buildTimeline(events)
	aar.Extent = extent(run)
	aar.Recommendations = g.generateRecommendations(aar, summary)
	return aar, nil
}

func simulated(clock float64) string {
	return (time.Duration(clock * float64(time.Second))).Round(time.Second).String()
}

func (g *AARGenerator) unitReports(run RunSnapshot) ([]UnitReport, error) {
	all := append(append([]*engine.Unit(nil), run.Units...), run.Retired...)
	reports := make([]UnitReport, 0, len(all))
	for _, u := range all {
		r := UnitReport{
			ID:       u.ID,
			Name:     u.Name,
			Kind:     u.Kind.String(),
			Status:   u.Status.String(),
			Fuel:     u.Fuel,
			Health:   u.Damage,
			Position: u.Pos,
		}
		if u.Template != nil {
			r.Template = u.Template.ID
		}
		track := run.Tracks[u.ID]
		r.TrackPoints = len(track)
		for i := 1; i < len(track); i++ {
			r.DistanceFlown += geo.Kilometers(geo.DistanceOnGlobe(track[i-1], track[i]))
		}
		if len(track) >= 2 {
			wkt, err := geo.RouteWKT(track)
			if err != nil {
				return nil, fmt.Errorf("track of %s: %w", u.Name, err)
			}
			r.TrackWKT = wkt
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, nil
}

func (g *AARGenerator) baseReports(bases []*engine.Base) []BaseReport {
	reports := make([]BaseReport, 0, len(bases))
	for _, b := range bases {
		reports = append(reports, BaseReport{
			ID:        b.ID,
			Name:      b.Name,
			Position:  b.Pos,
			Batteries: len(b.Batteries),
			Contacts:  len(b.Radar.Contacts()),
		})
	}
	return reports
}

func (g *AARGenerator) executiveSummary(run RunSnapshot, events []SimulationEvent) ExecutiveSummary {
	s := ExecutiveSummary{
		UFOsDestroyed: run.Counters.UFOsDestroyed,
		AircraftLost:  run.Counters.AircraftLost,
	}
	for _, u := range run.Units {
		if u.IsUFO() && u.Alive() {
			s.UFOsActive++
		}
	}
	for _, u := range run.Retired {
		if u.IsUFO() {
			s.UFOsEscaped++
		}
	}

	switch {
	case s.UFOsActive == 0 && s.UFOsEscaped == 0 && s.UFOsDestroyed > 0:
		s.Outcome = "Decisive Victory"
	case s.UFOsActive == 0 && s.UFOsDestroyed > s.UFOsEscaped:
		s.Outcome = "Victory"
	case s.UFOsDestroyed == 0 && s.AircraftLost > 0:
		s.Outcome = "Defeat"
	case s.UFOsActive > 0:
		s.Outcome = "Ongoing"
	default:
		s.Outcome = "Inconclusive"
	}

	for _, e := range events {
		if g.isSignificantEvent(e) {
			s.KeyEvents = append(s.KeyEvents, fmt.Sprintf("[%s] %s", simulated(e.Clock), e.Message))
		}
		if len(s.KeyEvents) >= 10 {
			break
		}
	}
	return s
}

func (g *AARGenerator) isSignificantEvent(e SimulationEvent) bool {
	switch e.Type {
	case EventTypeDestruction, EventTypeMissionRemoved:
		return true
	case EventTypeNotice:
		return e.Severity == SeverityCritical
	}
	return false
}

func (g *AARGenerator) assessImpact(e SimulationEvent) string {
	switch {
	case e.Type == EventTypeDestruction:
		return "High"
	case e.Severity == SeverityCritical, e.Severity == SeverityError:
		return "High"
	case e.Severity == SeverityWarning, e.Type == EventTypeDetection:
		return "Medium"
	}
	return "Low"
}

func (g *AARGenerator) buildTimeline(events []SimulationEvent) []TimelineEntry {
	timeline := make([]TimelineEntry, 0)
	for _, e := range events {
		if e.Type == EventTypeTick || e.Severity == SeverityDebug {
			continue
		}
		timeline = append(timeline, TimelineEntry{
			Tick:        e.Tick,
			Clock:       e.Clock,
			ElapsedTime: simulated(e.Clock),
			EventType:   e.Type,
			Description: e.Message,
			Impact:      g.assessImpact(e),
		})
	}
	return timeline
}

func extent(run RunSnapshot) *geo.Bounds {
	var points []geo.Position
	for _, track := range run.Tracks {
		points = append(points, track...)
	}
	for _, b := range run.Bases {
		points = append(points, b.Pos)
	}
	b, ok := geo.MercatorBounds(points)
	if !ok {
		return nil
	}
	return &b
}

func (g *AARGenerator) generateRecommendations(aar *AAR, summary SimulationSummary) []Recommendation {
	var recs []Recommendation

	if aar.Engagements.Shots >= 5 && aar.Engagements.HitRate < 0.3 {
		recs = append(recs, Recommendation{
			Priority: "High",
			Category: "Weapons",
			Title:    "Improve Weapon Accuracy",
			Description: fmt.Sprintf("Only %.0f%% of %d shots hit. Fit targeting electronics or close to shorter range before firing.",
				aar.Engagements.HitRate*100, aar.Engagements.Shots),
		})
	}
	if aar.Summary.AircraftLost > 0 {
		recs = append(recs, Recommendation{
			Priority:    "High",
			Category:    "Interception",
			Title:       "Reduce Aircraft Losses",
			Description: fmt.Sprintf("%d aircraft were shot down. Pair interceptors against armed UFOs.", aar.Summary.AircraftLost),
		})
	}
	if n := summary.NoticeCounts[string(engine.NoticeInsufficientFuel)] + summary.NoticeCounts[string(engine.NoticeLowFuel)]; n > 0 {
		recs = append(recs, Recommendation{
			Priority:    "Medium",
			Category:    "Logistics",
			Title:       "Extend Operating Range",
			Description: fmt.Sprintf("%d sorties were cut short by fuel. Add bases closer to the UFO routes.", n),
		})
	}
	if aar.Detection.SignalsLost > 0 {
		recs = append(recs, Recommendation{
			Priority:    "Medium",
			Category:    "Radar",
			Title:       "Expand Radar Coverage",
			Description: fmt.Sprintf("Contact was lost %d times. Upgrade radars or add installations.", aar.Detection.SignalsLost),
		})
	}
	if aar.Summary.UFOsEscaped > 0 {
		recs = append(recs, Recommendation{
			Priority:    "Low",
			Category:    "Interception",
			Title:       "Intercept Earlier",
			Description: fmt.Sprintf("%d UFOs finished their flight plan. Launch as soon as they are detected.", aar.Summary.UFOsEscaped),
		})
	}
	return recs
}

// SaveAAR writes the report and returns the file path.
func (g *AARGenerator) SaveAAR(aar *AAR) (string, error) {
	if err := os.MkdirAll(g.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	id := aar.Metadata.SimulationID
	if len(id) > 8 {
		id = id[:8]
	}
	filename := fmt.Sprintf("AAR_%s_%s", id, aar.Metadata.GeneratedAt.Format("20060102_150405"))

	var (
		path string
		err  error
	)
	switch g.config.Format {
	case "json":
		path = filepath.Join(g.config.OutputDir, filename+".json")
		err = g.saveJSON(aar, path)
	case "markdown":
		path = filepath.Join(g.config.OutputDir, filename+".md")
		err = g.saveMarkdown(aar, path)
	default:
		return "", fmt.Errorf("unsupported format: %s", g.config.Format)
	}
	if err != nil {
		return "", err
	}

	logger.Successf("AAR saved to: %s", path)
	return path, nil
}

func (g *AARGenerator) saveJSON(aar *AAR, path string) error {
	data, err := json.MarshalIndent(aar, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal AAR: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (g *AARGenerator) saveMarkdown(aar *AAR, path string) error {
	var sb strings.Builder

	sb.WriteString("# After Action Report\n\n")
	sb.WriteString(fmt.Sprintf("**Simulation ID:** %s\n", aar.Metadata.SimulationID))
	if aar.Metadata.Name != "" {
		sb.WriteString(fmt.Sprintf("**Scenario:** %s (seed %d)\n", aar.Metadata.Name, aar.Metadata.Seed))
	}
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", aar.Metadata.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Simulated Time:** %s over %d ticks\n", aar.Metadata.SimulatedTime, aar.Metadata.Ticks))
	if aar.Metadata.SaveID != "" {
		sb.WriteString(fmt.Sprintf("**Save:** %s\n", aar.Metadata.SaveID))
	}
	sb.WriteString("\n")

	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString(fmt.Sprintf("**Outcome:** %s\n\n", aar.Summary.Outcome))
	sb.WriteString(fmt.Sprintf("- UFOs destroyed: %d\n", aar.Summary.UFOsDestroyed))
	sb.WriteString(fmt.Sprintf("- UFOs escaped: %d\n", aar.Summary.UFOsEscaped))
	sb.WriteString(fmt.Sprintf("- UFOs still active: %d\n", aar.Summary.UFOsActive))
	sb.WriteString(fmt.Sprintf("- Aircraft lost: %d\n\n", aar.Summary.AircraftLost))

	if len(aar.Summary.KeyEvents) > 0 {
		sb.WriteString("### Key Events\n")
		for _, event := range aar.Summary.KeyEvents {
			sb.WriteString(fmt.Sprintf("- %s\n", event))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Engagements\n\n")
	sb.WriteString(fmt.Sprintf("| Shots | Hits | Misses | Hit Rate |\n|---|---|---|---|\n| %d | %d | %d | %.1f%% |\n\n",
		aar.Engagements.Shots, aar.Engagements.Hits, aar.Engagements.Misses, aar.Engagements.HitRate*100))

	sb.WriteString("## Detection\n\n")
	sb.WriteString(fmt.Sprintf("- UFOs detected: %d\n- Detections: %d\n- Signals lost: %d\n\n",
		aar.Detection.UFOsDetected, aar.Detection.Detections, aar.Detection.SignalsLost))

	sb.WriteString("## Units\n\n")
	sb.WriteString("| Unit | Kind | Status | Fuel | Health | Flown (km) |\n|---|---|---|---|---|---|\n")
	for _, u := range aar.Units {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.0f | %.0f | %.0f |\n",
			u.Name, u.Kind, u.Status, u.Fuel, u.Health, u.DistanceFlown))
	}
	sb.WriteString("\n")

	if len(aar.Bases) > 0 {
		sb.WriteString("## Bases\n\n")
		for _, b := range aar.Bases {
			sb.WriteString(fmt.Sprintf("- **%s** at %.2f, %.2f: %d batteries, %d contacts\n",
				b.Name, b.Position.Lon, b.Position.Lat, b.Batteries, b.Contacts))
		}
		sb.WriteString("\n")
	}

	if aar.Extent != nil {
		sb.WriteString(fmt.Sprintf("**Operating Area (EPSG:3857):** %.0f, %.0f to %.0f, %.0f\n\n",
			aar.Extent.MinX, aar.Extent.MinY, aar.Extent.MaxX, aar.Extent.MaxY))
	}

	if len(aar.Timeline) > 0 {
		sb.WriteString("## Timeline\n\n")
		for _, e := range aar.Timeline {
			sb.WriteString(fmt.Sprintf("- `%s` **%s** %s\n", e.ElapsedTime, e.EventType, e.Description))
		}
		sb.WriteString("\n")
	}

	if len(aar.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range aar.Recommendations {
			sb.WriteString(fmt.Sprintf("### %s (%s)\n%s\n\n", rec.Title, rec.Priority, rec.Description))
		}
	}

	tracks := 0
	for _, u := range aar.Units {
		if u.TrackWKT != "" {
			tracks++
		}
	}
	if tracks > 0 {
		sb.WriteString("## Tracks\n\n```\n")
		for _, u := range aar.Units {
			if u.TrackWKT != "" {
				sb.WriteString(fmt.Sprintf("%s\t%s\n", u.Name, u.TrackWKT))
			}
		}
		sb.WriteString("```\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}
