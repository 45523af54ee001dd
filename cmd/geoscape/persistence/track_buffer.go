package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/geo"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

// TrackWriter persists a batch of track points.
type TrackWriter interface {
	WriteTracks(ctx context.Context, points []TrackPoint) error
}

type trackKey struct {
	unit engine.UnitID
	tick int64
}

// TrackBuffer batches unit positions and writes them in the background.
type TrackBuffer struct {
	writer        TrackWriter
	runID         string
	points        map[trackKey]TrackPoint
	maxBatchSize  int
	flushInterval time.Duration
	lastFlush     time.Time
	stats         TrackStats
	mu            sync.Mutex
	flushMu       sync.Mutex
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// TrackStats counts what the buffer has written.
type TrackStats struct {
	Queued        int64
	BatchesSent   int64
	PointsWritten int64
	PointsFailed  int64
	LastBatchTime time.Time
	LastError     error
}

// NewTrackBuffer creates a buffer for one run.
func NewTrackBuffer(writer TrackWriter, runID uuid.UUID, maxBatchSize int, flushInterval time.Duration) *TrackBuffer {
	if maxBatchSize <= 0 {
		maxBatchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &TrackBuffer{
		writer:        writer,
		runID:         runID.String(),
		points:        make(map[trackKey]TrackPoint),
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
		lastFlush:     time.Now(),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the periodic flush goroutine.
func (tb *TrackBuffer) Start(ctx context.Context) {
	tb.wg.Add(1)
	go func() {
		defer tb.wg.Done()

		ticker := time.NewTicker(tb.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tb.stopChan:
				return
			case <-ticker.C:
				if err := tb.Flush(ctx); err != nil {
					logger.Errorf("Error flushing tracks: %v", err)
				}
			}
		}
	}()
}

// Stop ends the flush goroutine. Pending points stay queued until the next Flush.
func (tb *TrackBuffer) Stop() {
	tb.stopOnce.Do(func() { close(tb.stopChan) })
	tb.wg.Wait()
}

// QueuePosition records where a unit is at a tick. A second sample for the same
// unit and tick replaces the first.
func (tb *TrackBuffer) QueuePosition(u *engine.Unit, tick int64) {
	x, y := geo.ToWebMercator(u.Pos)
	point := TrackPoint{
		RunID:  tb.runID,
		UnitID: uint64(u.ID),
		Tick:   tick,
		Lon:    u.Pos.Lon,
		Lat:    u.Pos.Lat,
		X:      x,
		Y:      y,
		Status: u.Status.String(),
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.points[trackKey{unit: u.ID, tick: tick}] = point
	tb.stats.Queued++

	if len(tb.points) >= tb.maxBatchSize {
		select {
		case <-tb.stopChan:
			return
		default:
		}
		tb.wg.Add(1)
		go func() {
			defer tb.wg.Done()
			if err := tb.Flush(context.Background()); err != nil {
				logger.Errorf("Error auto-flushing tracks: %v", err)
			}
		}()
	}
}

// Flush writes every pending point. Failed points are queued again.
func (tb *TrackBuffer) Flush(ctx context.Context) error {
	tb.flushMu.Lock()
	defer tb.flushMu.Unlock()

	tb.mu.Lock()
	if len(tb.points) == 0 {
		tb.mu.Unlock()
		return nil
	}
	pending := tb.points
	tb.points = make(map[trackKey]TrackPoint)
	tb.lastFlush = time.Now()
	tb.mu.Unlock()

	batch := make([]TrackPoint, 0, len(pending))
	for _, p := range pending {
		batch = append(batch, p)
	}
	sort.Slice(batch, func(i, j int) bool {
		if batch[i].UnitID != batch[j].UnitID {
			return batch[i].UnitID < batch[j].UnitID
		}
		return batch[i].Tick < batch[j].Tick
	})

	err := tb.writer.WriteTracks(ctx, batch)

	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.stats.LastBatchTime = tb.lastFlush
	if err != nil {
		for k, p := range pending {
			if _, newer := tb.points[k]; !newer {
				tb.points[k] = p
			}
		}
		tb.stats.PointsFailed += int64(len(batch))
		tb.stats.LastError = err
		logger.Errorf("Failed to write %d track points", len(batch))
		return err
	}
	tb.stats.BatchesSent++
	tb.stats.PointsWritten += int64(len(batch))
	logger.Debugf("Flushed %d track points", len(batch))
	return nil
}

// GetStats returns the buffer statistics.
func (tb *TrackBuffer) GetStats() TrackStats {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.stats
}

// GetPendingCount returns the number of queued points.
func (tb *TrackBuffer) GetPendingCount() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.points)
}
