package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/config"
	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/cmd/geoscape/persistence"
	"github.com/picogrid/geoscape-sim/cmd/geoscape/reporting"
	"github.com/picogrid/geoscape-sim/cmd/geoscape/telemetry"
	"github.com/picogrid/geoscape-sim/pkg/geo"
	"github.com/picogrid/geoscape-sim/pkg/logger"
	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

// GeoscapeSimulation runs a configured scenario on the engine in wall-clock steps.
type GeoscapeSimulation struct {
	config *config.SimulationConfig
	runID  uuid.UUID

	// Engine
	world  *world
	orders []config.OrderConfig
	next   int

	// Storage and telemetry
	store   *persistence.Store
	tracks  *persistence.TrackBuffer
	metrics *telemetry.Metrics
	influx  *telemetry.InfluxSink
	gelf    io.Closer

	// Reporting
	simLogger    *reporting.SimulationLogger
	aarGenerator *reporting.AARGenerator
	history      map[engine.UnitID][]geo.Position
	sides        map[engine.UnitID]string
	saveID       string
	reportPath   string

	census   map[string]int64
	censusMu sync.Mutex

	// Synchronization
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewGeoscapeSimulation creates an unconfigured simulation.
func NewGeoscapeSimulation() simulation.Simulation {
	return &GeoscapeSimulation{
		stopChan: make(chan struct{}),
		history:  make(map[engine.UnitID][]geo.Position),
		sides:    make(map[engine.UnitID]string),
		census:   make(map[string]int64),
	}
}

// Name returns the simulation name
func (s *GeoscapeSimulation) Name() string {
	return "Geoscape Air Combat"
}

// Description returns the simulation description
func (s *GeoscapeSimulation) Description() string {
	return "Interceptors, radars and base defences against UFOs moving over the globe"
}

// Configure loads the scenario file named by config_path and applies the remaining
// parameters as overrides.
func (s *GeoscapeSimulation) Configure(params map[string]interface{}) error {
	logger.Info("Configuring geoscape simulation...")

	path, _ := params["config_path"].(string)
	overrides := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k != "config_path" {
			overrides[k] = v
		}
	}

	cfg, err := config.LoadConfigWithOverrides(path, overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	s.config = cfg

	if cfg.Logging.ConsoleLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.Logging.ConsoleLevel))
	}

	logger.Infof("Configuration: %d bases, %d aircraft, %d installations vs %d UFOs",
		len(cfg.Bases), cfg.AircraftCount(), len(cfg.Installations), len(cfg.UFOs))
	logger.Debug(cfg.String())
	return nil
}

// Run builds or restores the geoscape, runs it until a stop condition, then saves
// and reports.
func (s *GeoscapeSimulation) Run(ctx context.Context) error {
	if s.config == nil {
		return errors.New("simulation is not configured")
	}
	logger.Infof("Starting %s simulation", s.Name())

	if err := s.initialize(ctx); err != nil {
		s.shutdown()
		return fmt.Errorf("failed to initialize simulation: %w", err)
	}

	if s.tracks != nil {
		s.tracks.Start(ctx)
	}

	err := s.runSimulationLoop(ctx)
	s.finish()
	return err
}

// initialize sets up reporting, storage, telemetry and the engine state.
func (s *GeoscapeSimulation) initialize(ctx context.Context) error {
	cfg := s.config
	s.runID = uuid.New()

	if addr := cfg.Logging.GELFAddress; addr != "" {
		closer, err := logger.MirrorToGELF(addr)
		if err != nil {
			logger.Warnf("Log shipping disabled: %v", err)
		} else {
			s.gelf = closer
		}
	}

	s.simLogger = reporting.NewSimulationLogger(s.runID.String(), cfg.Logging.EventBufferSize)
	s.simLogger.SetResolver(s.resolve)
	s.aarGenerator = reporting.NewAARGenerator(s.simLogger, reporting.AARConfig{
		OutputDir: cfg.Report.OutputPath,
		Format:    cfg.Report.Format,
		SimulationConfig: map[string]interface{}{
			"name":             cfg.Simulation.Name,
			"tick_seconds":     cfg.Simulation.TickSeconds,
			"ticks_per_update": cfg.Simulation.TicksPerUpdate,
			"max_ticks":        cfg.Simulation.MaxTicks,
			"seed":             cfg.Simulation.Seed,
		},
	})

	if cfg.Persistence.Enabled {
		store, err := persistence.Open(persistence.Config{
			Driver: cfg.Persistence.Driver,
			DSN:    cfg.Persistence.DSN,
		})
		if err != nil {
			return err
		}
		s.store = store
		logger.Storagef("Save-game store ready (%s)", store.Driver())

		if cfg.Persistence.RecordTracks {
			s.tracks = persistence.NewTrackBuffer(store, s.runID,
				cfg.Persistence.TrackBatchSize, cfg.Persistence.TrackFlushInterval)
		}
	}

	if err := s.buildWorld(ctx); err != nil {
		return err
	}

	metrics, err := telemetry.NewMetrics(cfg.Telemetry.EnableMetrics, s.runID.String(), s.unitCensus)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	s.metrics = metrics

	if cfg.Telemetry.Influx.Enabled {
		ic := cfg.Telemetry.Influx
		sink := telemetry.NewInfluxSink(telemetry.InfluxConfig{
			URL:        ic.URL,
			Token:      ic.Token,
			Org:        ic.Org,
			Bucket:     ic.Bucket,
			BackupPath: ic.BackupPath,
		}, s.runID.String(), time.Now().UTC())
		if err := sink.Connect(ctx); err != nil {
			logger.Warnf("Influx telemetry disabled: %v", err)
		} else {
			s.influx = sink
		}
	}

	s.orders = append([]config.OrderConfig(nil), cfg.Orders...)
	sort.SliceStable(s.orders, func(i, j int) bool { return s.orders[i].Tick < s.orders[j].Tick })
	for s.next < len(s.orders) && s.orders[s.next].Tick < s.world.state.Tick() {
		s.next++
	}

	s.updateCensus()
	return nil
}

// buildWorld creates the starting state or restores the configured save.
func (s *GeoscapeSimulation) buildWorld(ctx context.Context) error {
	cfg := s.config
	resume := cfg.Persistence.ResumeFrom
	if resume == "" {
		w, err := buildWorld(cfg, s.simLogger)
		if err != nil {
			return err
		}
		s.world = w
		s.indexSides()
		return nil
	}

	if s.store == nil {
		return errors.New("resuming a save needs persistence enabled")
	}
	id, err := uuid.Parse(resume)
	if err != nil {
		return fmt.Errorf("invalid save id %q: %w", resume, err)
	}
	catalog, err := buildCatalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}
	opts, w := engineOptions(cfg, catalog, s.simLogger)

	st, report, err := s.store.LoadState(ctx, id, opts)
	if err != nil {
		return fmt.Errorf("failed to load save %s: %w", resume, err)
	}
	for _, r := range report.Rejected {
		s.simLogger.LogError("Record not restored", r.Err, map[string]interface{}{
			"table": r.Table,
			"ref":   r.Ref,
		})
	}
	w.state = st
	w.indexNames()
	w.applyCrew(cfg)
	s.world = w
	s.indexSides()

	logger.WithFields(map[string]interface{}{
		"save":  resume,
		"tick":  st.Tick(),
		"units": report.Units,
	}).Info("Resumed saved geoscape")
	return nil
}

func (s *GeoscapeSimulation) indexSides() {
	for _, u := range s.world.state.Units() {
		s.rememberSide(u)
	}
}

func (s *GeoscapeSimulation) rememberSide(u *engine.Unit) {
	if u.IsUFO() {
		s.sides[u.ID] = reporting.SideUFO
	} else {
		s.sides[u.ID] = reporting.SideAircraft
	}
}

// resolve names a unit for the event log. It is called from engine callbacks, so the
// state lock is already held.
func (s *GeoscapeSimulation) resolve(id engine.UnitID) (string, string) {
	if s.world == nil {
		return fmt.Sprintf("#%d", id), ""
	}
	if u, ok := s.world.state.Unit(id); ok {
		return u.Name, s.sides[id]
	}
	for name, uid := range s.world.names {
		if uid == id {
			return name, s.sides[id]
		}
	}
	return fmt.Sprintf("#%d", id), s.sides[id]
}

// runSimulationLoop executes the main simulation loop
func (s *GeoscapeSimulation) runSimulationLoop(ctx context.Context) error {
	logger.Info("Starting main simulation loop...")

	ticker := time.NewTicker(s.config.Simulation.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Simulation cancelled by context")
			return ctx.Err()

		case <-s.stopChan:
			logger.Info("Simulation stopped by user")
			return nil

		case <-ticker.C:
			if reason := s.step(ctx); reason != "" {
				logger.Infof("Simulation complete: %s", reason)
				return nil
			}
		}
	}
}

// step runs one wall update worth of engine ticks and returns why the run should end,
// if it should.
func (s *GeoscapeSimulation) step(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.config.Simulation
	st := s.world.state
	dt := cfg.TickSeconds

	for i := 0; i < cfg.TicksPerUpdate; i++ {
		if reason := s.finished(); reason != "" {
			return reason
		}
		s.applyOrders()

		tick := st.Tick() + 1
		overlay := cfg.OverlayEvery > 0 && tick%int64(cfg.OverlayEvery) == 0
		s.simLogger.SetTick(tick, st.Clock()+dt)

		start := time.Now()
		result := st.RunTick(dt, overlay)
		took := time.Since(start)

		s.afterTick(ctx, result, took)
	}

	s.updateCensus()
	logger.Debugf("Tick %d, simulated %s", st.Tick(), time.Duration(st.Clock()*float64(time.Second)))
	return s.finished()
}

// finished reports a stop condition: the tick limit or no UFO left in play.
func (s *GeoscapeSimulation) finished() string {
	st := s.world.state
	if limit := s.config.Simulation.MaxTicks; limit > 0 && st.Tick() >= limit {
		return fmt.Sprintf("reached %d ticks", limit)
	}
	for _, u := range st.UFOs() {
		if u.Alive() {
			return ""
		}
	}
	return "no UFOs left on the geoscape"
}

// applyOrders issues every scripted order due before the next tick.
func (s *GeoscapeSimulation) applyOrders() {
	tick := s.world.state.Tick()
	for s.next < len(s.orders) && s.orders[s.next].Tick <= tick {
		o := s.orders[s.next]
		s.next++
		err := s.issue(o)
		s.simLogger.LogCommand(o.Unit, describeOrder(o), err)
	}
}

func describeOrder(o config.OrderConfig) string {
	switch {
	case o.Target != "":
		return fmt.Sprintf("%s %s", o.Action, o.Target)
	case o.Location != nil:
		return fmt.Sprintf("%s %.2f,%.2f", o.Action, o.Location.Longitude, o.Location.Latitude)
	}
	return o.Action
}

func (s *GeoscapeSimulation) issue(o config.OrderConfig) error {
	w := s.world
	st := w.state

	if o.Action == config.ActionRemoveMission {
		w.missions.RemoveSite(engine.MissionID(o.Target))
		st.NotifyMissionRemoved(engine.MissionID(o.Target))
		return nil
	}

	id, ok := w.names[o.Unit]
	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrNoSuchUnit, o.Unit)
	}

	switch o.Action {
	case config.ActionSendToMission:
		return st.SendToMission(id, engine.MissionID(o.Target))
	case config.ActionPursue:
		target, ok := w.names[o.Target]
		if !ok {
			return fmt.Errorf("%w: %q", engine.ErrNoSuchUnit, o.Target)
		}
		return st.PursueUFO(id, target)
	case config.ActionPatrol, config.ActionUFODestination:
		return st.SendToDestination(id, position(*o.Location))
	case config.ActionReturn:
		return st.ReturnToBase(id)
	case config.ActionCancelPursuit:
		return st.CancelPursuit(id)
	case config.ActionTransfer:
		return st.TransferToBase(id, engine.BaseID(o.Target))
	}
	return fmt.Errorf("unknown action %q", o.Action)
}

// afterTick resolves what the engine leaves to its caller and feeds the tick to
// reporting, storage and telemetry.
func (s *GeoscapeSimulation) afterTick(ctx context.Context, r engine.TickResult, took time.Duration) {
	w := s.world
	st := w.state

	for _, u := range st.Aircraft() {
		if u.Status == engine.StatusTransferringBase && u.Arrived() {
			if err := st.CompleteTransfer(u.ID); err != nil {
				s.simLogger.LogCommand(u.Name, "complete transfer", err)
			}
		}
	}

	// Ground combat is out of scope: a drop closes the mission and the craft flies home.
	for _, drop := range w.missions.Drops() {
		name, _ := s.resolve(drop.Aircraft)
		s.simLogger.LogCommand(name, fmt.Sprintf("dropped at %s", drop.Mission), nil)
		w.missions.RemoveSite(drop.Mission)
		st.NotifyMissionRemoved(drop.Mission)
	}

	if s.config.Logging.LogTicks {
		s.simLogger.LogTick(r)
	}
	s.metrics.Record(ctx, r, took)

	units := st.Units()
	for _, u := range units {
		if !u.Status.OnGeoscape() && u.Status != engine.StatusTransferringBase {
			continue
		}
		s.history[u.ID] = append(s.history[u.ID], u.Pos)
		if s.tracks != nil {
			s.tracks.QueuePosition(u, r.Tick)
		}
	}

	if s.influx != nil {
		if err := s.influx.WriteTick(r, units); err != nil {
			logger.Warnf("Influx telemetry disabled: %v", err)
			_ = s.influx.Close()
			s.influx = nil
		}
	}
}

func (s *GeoscapeSimulation) updateCensus() {
	counts := make(map[string]int64)
	for _, u := range s.world.state.Units() {
		counts[u.Status.String()]++
	}
	s.censusMu.Lock()
	s.census = counts
	s.censusMu.Unlock()
}

// unitCensus is read by the metrics gauge from the exporter's goroutine.
func (s *GeoscapeSimulation) unitCensus() map[string]int64 {
	s.censusMu.Lock()
	defer s.censusMu.Unlock()
	out := make(map[string]int64, len(s.census))
	for k, v := range s.census {
		out[k] = v
	}
	return out
}

// finish flushes tracks, saves the geoscape and writes the after-action report.
// It runs on a fresh context so a cancelled run still gets saved.
func (s *GeoscapeSimulation) finish() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracks != nil {
		s.tracks.Stop()
		if err := s.tracks.Flush(ctx); err != nil {
			logger.Warnf("Failed to flush tracks: %v", err)
		}
		stats := s.tracks.GetStats()
		logger.Storagef("Recorded %d track points in %d batches", stats.PointsWritten, stats.BatchesSent)
	}

	if s.store != nil && s.config.Persistence.SaveOnExit {
		id, err := s.store.SaveState(ctx, persistence.Header{
			Name:  s.config.Persistence.SaveName,
			RunID: s.runID,
			Seed:  s.config.Simulation.Seed,
		}, s.world.state)
		if err != nil {
			s.simLogger.LogError("Failed to save geoscape", err, nil)
		} else {
			s.saveID = id.String()
			logger.Successf("Geoscape saved as %s (%s)", s.config.Persistence.SaveName, s.saveID)
		}
	}

	if s.config.Report.EnableAAR {
		if err := s.generateAAR(ctx); err != nil {
			logger.Errorf("Failed to generate AAR: %v", err)
		}
	}

	s.simLogger.PrintSummary()
	s.shutdown()
}

// generateAAR builds the report from the final state. Recorded tracks come from the
// store when they were persisted.
func (s *GeoscapeSimulation) generateAAR(ctx context.Context) error {
	st := s.world.state
	tracks := s.history
	if s.tracks != nil {
		points, err := s.store.Tracks(ctx, s.runID)
		if err != nil {
			logger.Warnf("Using in-memory tracks: %v", err)
		} else if len(points) > 0 {
			tracks = make(map[engine.UnitID][]geo.Position)
			for _, p := range points {
				id := engine.UnitID(p.UnitID)
				tracks[id] = append(tracks[id], geo.Position{Lon: p.Lon, Lat: p.Lat})
			}
		}
	}

	aar, err := s.aarGenerator.GenerateAAR(reporting.RunSnapshot{
		RunID:       s.runID.String(),
		Name:        s.config.Simulation.Name,
		Seed:        s.config.Simulation.Seed,
		Ticks:       st.Tick(),
		Clock:       st.Clock(),
		Counters:    st.Counters(),
		Units:       st.Units(),
		Retired:     st.Retired(),
		Bases:       st.Bases(),
		Tracks:      tracks,
		SlowestTick: s.metrics.Totals().Slowest,
		SaveID:      s.saveID,
	})
	if err != nil {
		return err
	}
	path, err := s.aarGenerator.SaveAAR(aar)
	if err != nil {
		return err
	}
	s.reportPath = path
	logger.Infof("Outcome: %s", aar.Summary.Outcome)
	return nil
}

func (s *GeoscapeSimulation) shutdown() {
	if s.gelf != nil {
		_ = s.gelf.Close()
		s.gelf = nil
	}
	if s.influx != nil {
		if err := s.influx.Close(); err != nil {
			logger.Warnf("Failed to close influx sink: %v", err)
		}
		s.influx = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Warnf("Failed to close store: %v", err)
		}
		s.store = nil
	}
}

// Stop ends the run after the current update.
func (s *GeoscapeSimulation) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

func init() {
	err := simulation.DefaultRegistry.Register("Geoscape Air Combat", NewGeoscapeSimulation)
	if err != nil {
		logger.Errorf("Failed to register geoscape simulation: %v", err)
		return
	}
}
