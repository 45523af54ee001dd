package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
)

const instrumentationName = "github.com/picogrid/geoscape-sim/cmd/geoscape/telemetry"

// Totals are the running sums Metrics has recorded.
type Totals struct {
	Ticks      int64
	Shots      int64
	Hits       int64
	Misses     int64
	Destroyed  int64
	Detections int64
	InFlight   int64
	Slowest    time.Duration
}

// Metrics records per-tick combat counters on the global OTel meter. A disabled
// Metrics uses a no-op meter and only keeps its local totals.
type Metrics struct {
	shots      metric.Int64Counter
	hits       metric.Int64Counter
	misses     metric.Int64Counter
	destroyed  metric.Int64Counter
	detections metric.Int64Counter
	inFlight   metric.Int64UpDownCounter
	duration   metric.Float64Histogram
	units      metric.Int64ObservableGauge
	attrs      metric.MeasurementOption

	mu     sync.Mutex
	totals Totals
	census func() map[string]int64
}

// NewMetrics creates the instruments. census, when set, is polled for the number of
// units per status.
func NewMetrics(enabled bool, runID string, census func() map[string]int64) (*Metrics, error) {
	var m metric.Meter = noop.Meter{}
	if enabled {
		m = otel.Meter(instrumentationName)
	}

	mt := &Metrics{
		attrs:  metric.WithAttributes(attribute.String("run_id", runID)),
		census: census,
	}

	var err error
	if mt.shots, err = m.Int64Counter("geoscape.shots", metric.WithDescription("Projectiles fired")); err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}
	if mt.hits, err = m.Int64Counter("geoscape.hits", metric.WithDescription("Projectiles that hit")); err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}
	if mt.misses, err = m.Int64Counter("geoscape.misses", metric.WithDescription("Projectiles that missed")); err != nil {
		return nil, fmt.Errorf("creating misses counter: %w", err)
	}
	if mt.destroyed, err = m.Int64Counter("geoscape.units.destroyed", metric.WithDescription("Units shot down")); err != nil {
		return nil, fmt.Errorf("creating destroyed counter: %w", err)
	}
	if mt.detections, err = m.Int64Counter("geoscape.detections", metric.WithDescription("UFO radar detections")); err != nil {
		return nil, fmt.Errorf("creating detections counter: %w", err)
	}
	if mt.inFlight, err = m.Int64UpDownCounter("geoscape.projectiles.in_flight", metric.WithDescription("Projectiles in the air")); err != nil {
		return nil, fmt.Errorf("creating in-flight counter: %w", err)
	}
	mt.duration, err = m.Float64Histogram("geoscape.tick.duration",
		metric.WithDescription("Wall time spent in one engine tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	if census != nil {
		mt.units, err = m.Int64ObservableGauge("geoscape.units", metric.WithDescription("Units by status"))
		if err != nil {
			return nil, fmt.Errorf("creating units gauge: %w", err)
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			for status, n := range mt.census() {
				o.ObserveInt64(mt.units, n, metric.WithAttributes(
					attribute.String("run_id", runID),
					attribute.String("status", status),
				))
			}
			return nil
		}, mt.units)
		if err != nil {
			return nil, fmt.Errorf("registering units callback: %w", err)
		}
	}

	return mt, nil
}

// Record adds one tick's outcome.
func (m *Metrics) Record(ctx context.Context, r engine.TickResult, took time.Duration) {
	m.mu.Lock()
	delta := int64(r.ProjectilesInFlight) - m.totals.InFlight
	m.totals.Ticks++
	m.totals.Shots += int64(r.Shots)
	m.totals.Hits += int64(r.Hits)
	m.totals.Misses += int64(r.Misses)
	m.totals.Destroyed += int64(len(r.Destroyed))
	m.totals.Detections += int64(r.Detections)
	m.totals.InFlight = int64(r.ProjectilesInFlight)
	if took > m.totals.Slowest {
		m.totals.Slowest = took
	}
	m.mu.Unlock()

	addIf(ctx, m.shots, r.Shots, m.attrs)
	addIf(ctx, m.hits, r.Hits, m.attrs)
	addIf(ctx, m.misses, r.Misses, m.attrs)
	addIf(ctx, m.destroyed, len(r.Destroyed), m.attrs)
	addIf(ctx, m.detections, r.Detections, m.attrs)
	if delta != 0 {
		m.inFlight.Add(ctx, delta, m.attrs)
	}
	m.duration.Record(ctx, float64(took)/float64(time.Millisecond), m.attrs)
}

func addIf(ctx context.Context, c metric.Int64Counter, n int, opt metric.MeasurementOption) {
	if n > 0 {
		c.Add(ctx, int64(n), opt)
	}
}

// Totals returns a copy of the running sums.
func (m *Metrics) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}
