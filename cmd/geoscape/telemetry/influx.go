package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

const (
	measurementTick = "geoscape_tick"
	measurementUnit = "geoscape_unit"

	retentionSeconds = 60 * 60 * 24 * 30
)

// InfluxConfig locates the InfluxDB server and the fallback file.
type InfluxConfig struct {
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// InfluxSink writes tick and unit points to InfluxDB. When the server cannot be
// reached the points go to a gzip line-protocol file instead.
type InfluxSink struct {
	cfg    InfluxConfig
	runID  string
	epoch  time.Time
	client influxdb2.Client
	writer influxdb2_api.WriteAPI
	backup *gzip.Writer
	file   *os.File
	valid  bool
	log    logger.Logger
	mu     sync.Mutex
}

// NewInfluxSink creates a sink. Point timestamps are epoch plus the simulated clock.
func NewInfluxSink(cfg InfluxConfig, runID string, epoch time.Time) *InfluxSink {
	return &InfluxSink{
		cfg:   cfg,
		runID: runID,
		epoch: epoch,
		log:   logger.WithPrefix("influx"),
	}
}

// Connect pings the server and prepares the bucket, or opens the backup file.
func (s *InfluxSink) Connect(ctx context.Context) error {
	s.client = influxdb2.NewClientWithOptions(
		s.cfg.URL,
		s.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := s.client.Ping(ctx)
	if err != nil || !running {
		s.client.Close()
		s.client = nil
		return s.openBackup()
	}

	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	s.writer = s.client.WriteAPI(s.cfg.Org, s.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			s.log.Errorf("Error sending data to InfluxDB: %v", writeErr)
		}
	}(s.writer.Errors())

	s.valid = true
	s.log.WithField("bucket", s.cfg.Bucket).Info("InfluxDB client initialized")
	return nil
}

func (s *InfluxSink) openBackup() error {
	if s.cfg.BackupPath == "" {
		return errors.New("influxdb unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(s.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	s.file = file
	s.backup = gzip.NewWriter(file)
	s.log.WithField("backupPath", s.cfg.BackupPath).Warn("InfluxDB unreachable, writing to backup file")
	return nil
}

func (s *InfluxSink) ensureBucket(ctx context.Context) error {
	if _, err := s.client.BucketsAPI().FindBucketByName(ctx, s.cfg.Bucket); err == nil {
		return nil
	}

	orgs := s.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, s.cfg.Org)
	if err != nil {
		s.log.WithField("org", s.cfg.Org).Info("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, s.cfg.Org); err != nil {
			return fmt.Errorf("creating organization %q: %w", s.cfg.Org, err)
		}
	}

	s.log.WithField("bucket", s.cfg.Bucket).Info("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = s.client.BucketsAPI().CreateBucketWithName(ctx, org, s.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %q: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Online reports whether points go to the server rather than the backup file.
func (s *InfluxSink) Online() bool { return s.valid }

func (s *InfluxSink) at(clock float64) time.Time {
	return s.epoch.Add(time.Duration(clock * float64(time.Second)))
}

// TickPoint builds the summary point of one tick.
func (s *InfluxSink) TickPoint(r engine.TickResult) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		measurementTick,
		map[string]string{"run_id": s.runID},
		map[string]interface{}{
			"tick":        r.Tick,
			"shots":       r.Shots,
			"hits":        r.Hits,
			"misses":      r.Misses,
			"destroyed":   len(r.Destroyed),
			"detections":  r.Detections,
			"projectiles": r.ProjectilesInFlight,
		},
		s.at(r.Clock),
	)
}

// UnitPoint builds the position point of one unit.
func (s *InfluxSink) UnitPoint(u *engine.Unit, clock float64) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(measurementUnit).
		AddTag("run_id", s.runID).
		AddTag("unit", u.Name).
		AddTag("kind", u.Kind.String()).
		AddTag("status", u.Status.String()).
		AddField("lon", u.Pos.Lon).
		AddField("lat", u.Pos.Lat).
		AddField("fuel", u.Fuel).
		AddField("health", u.Damage).
		SetTime(s.at(clock))
}

// WritePoint sends a point to the server or the backup file.
func (s *InfluxSink) WritePoint(point *influxdb2_write.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid {
		s.writer.WritePoint(point)
		return nil
	}
	if s.backup == nil {
		return errors.New("influxdb client not initialized and backup writer not available")
	}
	// Line protocol output already carries its trailing newline.
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := s.backup.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to influxdb backup file: %w", err)
	}
	return nil
}

// WriteTick records a tick and the units still in play.
func (s *InfluxSink) WriteTick(r engine.TickResult, units []*engine.Unit) error {
	if err := s.WritePoint(s.TickPoint(r)); err != nil {
		return err
	}
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		if err := s.WritePoint(s.UnitPoint(u, r.Clock)); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (s *InfluxSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer != nil {
		s.writer.Flush()
	}
	if s.client != nil {
		s.client.Close()
	}
	var err error
	if s.backup != nil {
		err = s.backup.Close()
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		s.backup = nil
	}
	s.valid = false
	return err
}
