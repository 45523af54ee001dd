package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/geo"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]TrackPoint
	fail    error
}

func (w *fakeWriter) WriteTracks(_ context.Context, points []TrackPoint) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.batches = append(w.batches, points)
	return nil
}

func (w *fakeWriter) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func trackUnit(id engine.UnitID, lon, lat float64) *engine.Unit {
	return &engine.Unit{ID: id, Pos: geo.Position{Lon: lon, Lat: lat}, Status: engine.StatusTransit}
}

func TestTrackBufferCoalescesAndSorts(t *testing.T) {
	w := &fakeWriter{}
	tb := NewTrackBuffer(w, uuid.New(), 100, time.Hour)

	tb.QueuePosition(trackUnit(2, 10, 10), 5)
	tb.QueuePosition(trackUnit(1, 0, 0), 6)
	tb.QueuePosition(trackUnit(1, 1, 1), 5)
	tb.QueuePosition(trackUnit(1, 2, 2), 5) // replaces the previous sample

	if got := tb.GetPendingCount(); got != 3 {
		t.Fatalf("Expected 3 pending points, got %d", got)
	}
	if err := tb.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if tb.GetPendingCount() != 0 {
		t.Errorf("Expected an empty buffer after flush")
	}

	batch := w.batches[0]
	if batch[0].UnitID != 1 || batch[0].Tick != 5 || batch[1].Tick != 6 || batch[2].UnitID != 2 {
		t.Errorf("Batch not ordered by unit and tick: %+v", batch)
	}
	if batch[0].Lon != 2 {
		t.Errorf("Expected the latest sample to win, got lon %v", batch[0].Lon)
	}
	if batch[2].X <= 0 || batch[2].Y <= 0 {
		t.Errorf("Unexpected mercator coordinates: %+v", batch)
	}
	if batch[0].Status != "transit" {
		t.Errorf("Expected status transit, got %s", batch[0].Status)
	}

	stats := tb.GetStats()
	if stats.Queued != 4 || stats.PointsWritten != 3 || stats.BatchesSent != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestTrackBufferRequeuesFailedBatch(t *testing.T) {
	w := &fakeWriter{fail: errors.New("disk full")}
	tb := NewTrackBuffer(w, uuid.New(), 100, time.Hour)

	tb.QueuePosition(trackUnit(1, 0, 0), 1)
	tb.QueuePosition(trackUnit(2, 0, 0), 1)

	if err := tb.Flush(context.Background()); err == nil {
		t.Fatal("Expected the write error")
	}
	if got := tb.GetPendingCount(); got != 2 {
		t.Errorf("Expected both points queued again, got %d", got)
	}
	if stats := tb.GetStats(); stats.PointsFailed != 2 || stats.LastError == nil {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	w.mu.Lock()
	w.fail = nil
	w.mu.Unlock()
	if err := tb.Flush(context.Background()); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if w.written() != 2 {
		t.Errorf("Expected 2 points written on retry, got %d", w.written())
	}
}

func TestTrackBufferAutoFlush(t *testing.T) {
	w := &fakeWriter{}
	tb := NewTrackBuffer(w, uuid.New(), 3, time.Hour)

	for i := 1; i <= 3; i++ {
		tb.QueuePosition(trackUnit(engine.UnitID(i), 0, 0), 1)
	}
	tb.Stop()

	if w.written() != 3 {
		t.Errorf("Expected the full batch flushed automatically, got %d", w.written())
	}
}

func TestTrackBufferPeriodicFlush(t *testing.T) {
	w := &fakeWriter{}
	tb := NewTrackBuffer(w, uuid.New(), 100, 10*time.Millisecond)
	tb.Start(context.Background())
	defer tb.Stop()

	tb.QueuePosition(trackUnit(1, 0, 0), 1)

	deadline := time.Now().Add(2 * time.Second)
	for w.written() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.written() != 1 {
		t.Errorf("Expected the ticker to flush one point, got %d", w.written())
	}
}

func TestStoreTracks(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	runID := uuid.New()

	tb := NewTrackBuffer(store, runID, 100, time.Hour)
	tb.QueuePosition(trackUnit(1, 4, 4), 2)
	tb.QueuePosition(trackUnit(1, 3, 3), 1)
	if err := tb.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	points, err := store.Tracks(ctx, runID)
	if err != nil {
		t.Fatalf("Tracks failed: %v", err)
	}
	if len(points) != 2 || points[0].Tick != 1 || points[1].Lon != 4 {
		t.Errorf("Unexpected stored track: %+v", points)
	}

	other, err := store.Tracks(ctx, uuid.New())
	if err != nil || len(other) != 0 {
		t.Errorf("Expected no points for another run, got %d (%v)", len(other), err)
	}
}
