package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

// SimulationLogger keeps the run's event log and echoes notable events to the
// console. It receives engine notifications directly.
type SimulationLogger struct {
	simulationID string
	startTime    time.Time
	events       []SimulationEvent
	metrics      map[string]Metric
	maxEvents    int
	tick         int64
	clock        float64
	names        func(engine.UnitID) (name string, side string)
	out          io.Writer
	mu           sync.RWMutex
}

// SimulationEvent is one logged event.
type SimulationEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Tick      int64                  `json:"tick"`
	Clock     float64                `json:"clock"`
	Type      string                 `json:"type"`
	Severity  string                 `json:"severity"`
	Side      string                 `json:"side,omitempty"`
	Unit      string                 `json:"unit,omitempty"`
	UnitID    engine.UnitID          `json:"unit_id,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Metric is a tracked value with its recent history.
type Metric struct {
	Name        string
	Value       float64
	Unit        string
	LastUpdated time.Time
	History     []MetricPoint
}

type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

const (
	EventTypeNotice         = "notice"
	EventTypeDestruction    = "destruction"
	EventTypeDetection      = "detection"
	EventTypeUFORemoved     = "ufo_removed"
	EventTypeMissionRemoved = "mission_removed"
	EventTypeCommand        = "command"
	EventTypeTick           = "tick"
	EventTypeSystem         = "system"
)

const (
	SeverityDebug    = "debug"
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

const (
	SideAircraft = "aircraft"
	SideUFO      = "ufo"
)

const (
	defaultMaxEvents = 10000
	maxHistory       = 1000
)

var (
	colorDebug    = color.New(color.FgHiBlack)
	colorInfo     = color.New(color.FgCyan)
	colorWarning  = color.New(color.FgYellow)
	colorError    = color.New(color.FgRed)
	colorCritical = color.New(color.FgRed, color.Bold)
	colorUFO      = color.New(color.FgRed, color.Bold)
	colorAircraft = color.New(color.FgBlue, color.Bold)
	colorSuccess  = color.New(color.FgGreen)
)

// NewSimulationLogger creates a logger keeping at most maxEvents events.
func NewSimulationLogger(simulationID string, maxEvents int) *SimulationLogger {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	sl := &SimulationLogger{
		simulationID: simulationID,
		startTime:    time.Now(),
		events:       make([]SimulationEvent, 0),
		metrics:      make(map[string]Metric),
		maxEvents:    maxEvents,
		out:          os.Stdout,
	}

	sl.logColoredMessage(SeverityInfo, "Simulation Started",
		fmt.Sprintf("ID: %s | Time: %s", simulationID, sl.startTime.Format("15:04:05")))
	return sl
}

// SetOutput redirects the console echo. A nil writer silences it.
func (sl *SimulationLogger) SetOutput(w io.Writer) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	sl.out = w
}

// SetResolver sets how unit ids are turned into names and sides.
func (sl *SimulationLogger) SetResolver(fn func(engine.UnitID) (string, string)) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.names = fn
}

// SetTick stamps the following events with the simulated time.
func (sl *SimulationLogger) SetTick(tick int64, clock float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.tick = tick
	sl.clock = clock
}

func (sl *SimulationLogger) resolve(id engine.UnitID) (string, string) {
	sl.mu.RLock()
	fn := sl.names
	sl.mu.RUnlock()
	if fn == nil {
		return fmt.Sprintf("#%d", id), ""
	}
	return fn(id)
}

func noticeSeverity(kind engine.NoticeKind) string {
	switch kind {
	case engine.NoticeUFOAttacking:
		return SeverityCritical
	case engine.NoticeInsufficientFuel, engine.NoticeLowFuel, engine.NoticeNoAmmo,
		engine.NoticeCannotRefuel, engine.NoticeSignalLost, engine.NoticeNoCrew:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Notice records a player message from the engine.
func (sl *SimulationLogger) Notice(kind engine.NoticeKind, message string) {
	severity := noticeSeverity(kind)
	sl.logEvent(SimulationEvent{
		Type:     EventTypeNotice,
		Severity: severity,
		Message:  message,
		Details:  map[string]interface{}{"kind": string(kind)},
	})
	if severity != SeverityInfo || kind == engine.NoticeInterception || kind == engine.NoticeUFOSpotted {
		sl.logColoredMessage(severity, string(kind), message)
	}
}

func (sl *SimulationLogger) MissionRemoved(id engine.MissionID) {
	sl.logEvent(SimulationEvent{
		Type:     EventTypeMissionRemoved,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("Mission %s removed", id),
		Details:  map[string]interface{}{"mission": string(id)},
	})
}

func (sl *SimulationLogger) UFORemoved(id engine.UnitID, destroyed bool) {
	name, _ := sl.resolve(id)
	sl.logEvent(SimulationEvent{
		Type:     EventTypeUFORemoved,
		Severity: SeverityInfo,
		Side:     SideUFO,
		Unit:     name,
		UnitID:   id,
		Message:  fmt.Sprintf("UFO %s left the geoscape", name),
		Details:  map[string]interface{}{"destroyed": destroyed},
	})
}

// UnitDestroyed records a shoot-down.
func (sl *SimulationLogger) UnitDestroyed(id engine.UnitID) {
	name, side := sl.resolve(id)
	sl.logEvent(SimulationEvent{
		Type:     EventTypeDestruction,
		Severity: SeverityWarning,
		Side:     side,
		Unit:     name,
		UnitID:   id,
		Message:  fmt.Sprintf("%s destroyed", name),
	})
	sl.logColoredMessage(SeverityWarning, "Unit Destroyed",
		fmt.Sprintf("%s | %s", sl.sideColor(side).Sprint(side), name))
}

// UnitBecameVisible records a UFO appearing on radar.
func (sl *SimulationLogger) UnitBecameVisible(id engine.UnitID) {
	name, side := sl.resolve(id)
	sl.logEvent(SimulationEvent{
		Type:     EventTypeDetection,
		Severity: SeverityInfo,
		Side:     side,
		Unit:     name,
		UnitID:   id,
		Message:  fmt.Sprintf("%s detected", name),
	})
	sl.logColoredMessage(SeverityDebug, "Detection", sl.sideColor(side).Sprint(name)+" on radar")
}

// LogCommand records an order given to a unit.
func (sl *SimulationLogger) LogCommand(unit, action string, err error) {
	event := SimulationEvent{
		Type:     EventTypeCommand,
		Severity: SeverityInfo,
		Unit:     unit,
		Message:  fmt.Sprintf("%s: %s", unit, action),
		Details:  map[string]interface{}{"action": action},
	}
	if err != nil {
		event.Severity = SeverityWarning
		event.Details["error"] = err.Error()
		sl.logColoredMessage(SeverityWarning, "Order Failed", fmt.Sprintf("%s %s: %v", unit, action, err))
	}
	sl.logEvent(event)
}

// LogTick records a tick that saw combat or a detection.
func (sl *SimulationLogger) LogTick(r engine.TickResult) {
	if r.Shots == 0 && r.Hits == 0 && r.Misses == 0 && len(r.Destroyed) == 0 && !r.NewDetection {
		return
	}
	sl.logEvent(SimulationEvent{
		Type:     EventTypeTick,
		Severity: SeverityDebug,
		Message: fmt.Sprintf("Tick %d: %d shots, %d hits, %d misses, %d destroyed",
			r.Tick, r.Shots, r.Hits, r.Misses, len(r.Destroyed)),
		Details: map[string]interface{}{
			"shots":       r.Shots,
			"hits":        r.Hits,
			"misses":      r.Misses,
			"destroyed":   len(r.Destroyed),
			"detections":  r.Detections,
			"projectiles": r.ProjectilesInFlight,
		},
	})
}

// LogError records a failure and passes it to the console logger.
func (sl *SimulationLogger) LogError(message string, err error, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["error"] = err.Error()

	sl.logEvent(SimulationEvent{
		Type:     EventTypeSystem,
		Severity: SeverityError,
		Message:  message,
		Details:  details,
	})
	logger.Errorf("%s: %v", message, err)
}

// UpdateMetric sets a metric value and appends it to the history.
func (sl *SimulationLogger) UpdateMetric(name string, value float64, unit string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	metric, exists := sl.metrics[name]
	if !exists {
		metric = Metric{Name: name, Unit: unit}
	}
	now := time.Now()
	metric.Value = value
	metric.LastUpdated = now
	metric.History = append(metric.History, MetricPoint{Timestamp: now, Value: value})
	if len(metric.History) > maxHistory {
		metric.History = metric.History[len(metric.History)-maxHistory:]
	}
	sl.metrics[name] = metric
}

// GetEvents returns a copy of the event log.
func (sl *SimulationLogger) GetEvents() []SimulationEvent {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	events := make([]SimulationEvent, len(sl.events))
	copy(events, sl.events)
	return events
}

func (sl *SimulationLogger) GetMetrics() map[string]Metric {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	metrics := make(map[string]Metric, len(sl.metrics))
	for k, v := range sl.metrics {
		metrics[k] = v
	}
	return metrics
}

// SimulationSummary counts the logged events.
type SimulationSummary struct {
	SimulationID string
	StartTime    time.Time
	Duration     time.Duration
	TotalEvents  int
	EventCounts  map[string]int
	SideEvents   map[string]map[string]int
	NoticeCounts map[string]int
	Metrics      map[string]Metric
}

// GetSummary returns the event counts so far.
func (sl *SimulationLogger) GetSummary() SimulationSummary {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	summary := SimulationSummary{
		SimulationID: sl.simulationID,
		StartTime:    sl.startTime,
		Duration:     time.Since(sl.startTime),
		TotalEvents:  len(sl.events),
		EventCounts:  make(map[string]int),
		SideEvents:   make(map[string]map[string]int),
		NoticeCounts: make(map[string]int),
		Metrics:      make(map[string]Metric, len(sl.metrics)),
	}
	for _, event := range sl.events {
		summary.EventCounts[event.Type]++
		if event.Side != "" {
			if summary.SideEvents[event.Side] == nil {
				summary.SideEvents[event.Side] = make(map[string]int)
			}
			summary.SideEvents[event.Side][event.Type]++
		}
		if kind, ok := event.Details["kind"].(string); ok && event.Type == EventTypeNotice {
			summary.NoticeCounts[kind]++
		}
	}
	for k, v := range sl.metrics {
		summary.Metrics[k] = v
	}
	return summary
}

func (sl *SimulationLogger) logEvent(event SimulationEvent) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	event.Timestamp = time.Now()
	event.Tick = sl.tick
	event.Clock = sl.clock
	sl.events = append(sl.events, event)
	if len(sl.events) > sl.maxEvents {
		sl.events = sl.events[len(sl.events)-sl.maxEvents:]
	}
}

func (sl *SimulationLogger) logColoredMessage(severity, eventType, message string) {
	if severity == SeverityDebug && logger.GetLevel() > logger.DebugLevel {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")

	var severityColor *color.Color
	switch severity {
	case SeverityDebug:
		severityColor = colorDebug
	case SeverityWarning:
		severityColor = colorWarning
	case SeverityError:
		severityColor = colorError
	case SeverityCritical:
		severityColor = colorCritical
	default:
		severityColor = colorInfo
	}

	sl.mu.RLock()
	out := sl.out
	sl.mu.RUnlock()
	fmt.Fprintf(out, "[%s] %s %s | %s\n",
		timestamp,
		severityColor.Sprint(fmt.Sprintf("%-8s", severity)),
		eventType,
		message)
}

func (sl *SimulationLogger) sideColor(side string) *color.Color {
	switch side {
	case SideUFO:
		return colorUFO
	case SideAircraft:
		return colorAircraft
	default:
		return colorInfo
	}
}

// PrintSummary writes the event distribution to the console.
func (sl *SimulationLogger) PrintSummary() {
	summary := sl.GetSummary()
	sl.mu.RLock()
	out := sl.out
	sl.mu.RUnlock()

	id := summary.SimulationID
	if len(id) > 8 {
		id = id[:8]
	}
	colorSuccess.Fprintln(out, "\n================================================================")
	colorSuccess.Fprintf(out, "                 SIMULATION SUMMARY - %s\n", id)
	colorSuccess.Fprintln(out, "================================================================")
	fmt.Fprintf(out, "\nDuration: %v | Total Events: %d\n", summary.Duration.Round(time.Millisecond), summary.TotalEvents)

	table := logger.NewTable("Event", "Count")
	for _, k := range sortedKeys(summary.EventCounts) {
		table.AddRow(k, fmt.Sprint(summary.EventCounts[k]))
	}
	fmt.Fprintln(out)
	table.Fprint(out)

	for _, side := range []string{SideAircraft, SideUFO} {
		events, ok := summary.SideEvents[side]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n", sl.sideColor(side).Sprint(side))
		for _, k := range sortedKeys(events) {
			fmt.Fprintf(out, "   %-18s: %d\n", k, events[k])
		}
	}

	if len(summary.Metrics) > 0 {
		fmt.Fprintln(out, "\nMetrics:")
		names := make([]string, 0, len(summary.Metrics))
		for name := range summary.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := summary.Metrics[name]
			fmt.Fprintf(out, "   %-20s: %.2f %s\n", name, m.Value, m.Unit)
		}
	}
	colorSuccess.Fprintln(out, "================================================================")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
