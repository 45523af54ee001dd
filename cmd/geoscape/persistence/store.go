package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/engine"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	memoryDSN = "file::memory:?cache=shared"
	batchSize = 500
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrSaveNotFound  = errors.New("save not found")
)

// Config selects the database behind a Store.
type Config struct {
	Driver string // "sqlite" or "postgres"
	DSN    string // file path or postgres DSN; an empty sqlite DSN is in memory
}

// Store reads and writes saved geoscapes and run tracks.
type Store struct {
	db     *gorm.DB
	driver string
	log    logger.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(cfg Config) (*Store, error) {
	log := logger.WithPrefix("persistence")

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "", DriverSQLite:
		db, err = openSQLite(cfg.DSN)
		cfg.Driver = DriverSQLite
	case DriverPostgres:
		db, err = openPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	if cfg.Driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(10)
	}

	if err := db.AutoMigrate(DatabaseModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WithField("driver", cfg.Driver).Debug("Database ready")
	return &Store{db: db, driver: cfg.Driver, log: log}, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = memoryDSN
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func openPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres requires a DSN")
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// Driver names the backing database.
func (s *Store) Driver() string { return s.driver }

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Header describes a save apart from the state itself.
type Header struct {
	Name  string
	RunID uuid.UUID
	Seed  int64
}

// SaveState writes the whole geoscape in one transaction and returns the save id.
// Retired units are not saved.
func (s *Store) SaveState(ctx context.Context, h Header, st *engine.State) (uuid.UUID, error) {
	id := uuid.New()
	save := SaveGame{
		ID:        id.String(),
		Name:      h.Name,
		Tick:      st.Tick(),
		Clock:     st.Clock(),
		Seed:      h.Seed,
		Counters:  toJSON(st.Counters()),
		Version:   RecordVersion,
		CreatedAt: time.Now().UTC(),
	}
	if h.RunID != uuid.Nil {
		save.RunID = h.RunID.String()
	}

	var bases []BaseRecord
	for _, b := range st.Bases() {
		bases = append(bases, baseToRecord(save.ID, b))
	}
	var installations []InstallationRecord
	for _, in := range st.Installations() {
		installations = append(installations, installationToRecord(save.ID, in))
	}
	var units []UnitRecord
	for _, u := range st.Units() {
		units = append(units, unitToRecord(save.ID, u))
	}
	var projectiles []ProjectileRecord
	for _, p := range st.Projectiles() {
		projectiles = append(projectiles, projectileToRecord(save.ID, p))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&save).Error; err != nil {
			return fmt.Errorf("save header: %w", err)
		}
		if len(bases) > 0 {
			if err := tx.CreateInBatches(bases, batchSize).Error; err != nil {
				return fmt.Errorf("bases: %w", err)
			}
		}
		if len(installations) > 0 {
			if err := tx.CreateInBatches(installations, batchSize).Error; err != nil {
				return fmt.Errorf("installations: %w", err)
			}
		}
		if len(units) > 0 {
			if err := tx.CreateInBatches(units, batchSize).Error; err != nil {
				return fmt.Errorf("units: %w", err)
			}
		}
		if len(projectiles) > 0 {
			if err := tx.CreateInBatches(projectiles, batchSize).Error; err != nil {
				return fmt.Errorf("projectiles: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save state: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"save":        save.ID,
		"units":       len(units),
		"projectiles": len(projectiles),
	}).Infof("Saved %q at tick %d", h.Name, save.Tick)
	return id, nil
}

// Rejection is a record LoadState could not restore.
type Rejection struct {
	Table string
	Ref   string
	Err   error
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s %s: %v", r.Table, r.Ref, r.Err)
}

// LoadReport summarizes what LoadState rebuilt.
type LoadReport struct {
	Save          SaveGame
	Bases         int
	Installations int
	Units         int
	Projectiles   int
	Rejected      []Rejection
}

// Clean reports whether every record was restored.
func (r LoadReport) Clean() bool { return len(r.Rejected) == 0 }

func (r *LoadReport) reject(table, ref string, err error) {
	r.Rejected = append(r.Rejected, Rejection{Table: table, Ref: ref, Err: err})
}

// GetSave returns a save header.
func (s *Store) GetSave(ctx context.Context, id uuid.UUID) (SaveGame, error) {
	var save SaveGame
	err := s.db.WithContext(ctx).First(&save, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return save, fmt.Errorf("%w: %s", ErrSaveNotFound, id)
	}
	return save, err
}

// LoadState rebuilds a saved geoscape with the given collaborators. Invalid records
// are skipped and listed in the report; only a missing or unreadable header fails
// the whole load.
func (s *Store) LoadState(ctx context.Context, id uuid.UUID, opts engine.Options) (*engine.State, LoadReport, error) {
	var report LoadReport

	save, err := s.GetSave(ctx, id)
	if err != nil {
		return nil, report, err
	}
	report.Save = save
	if save.Version > RecordVersion {
		return nil, report, fmt.Errorf("%w: save %d", ErrUnsupportedVersion, save.Version)
	}
	var counters engine.Counters
	if err := fromJSON(save.Counters, &counters); err != nil {
		return nil, report, fmt.Errorf("save counters: %w", err)
	}

	db := s.db.WithContext(ctx)
	var (
		bases         []BaseRecord
		installations []InstallationRecord
		units         []UnitRecord
		projectiles   []ProjectileRecord
	)
	if err := db.Where("save_id = ?", save.ID).Order("id").Find(&bases).Error; err != nil {
		return nil, report, fmt.Errorf("bases: %w", err)
	}
	if err := db.Where("save_id = ?", save.ID).Order("id").Find(&installations).Error; err != nil {
		return nil, report, fmt.Errorf("installations: %w", err)
	}
	if err := db.Where("save_id = ?", save.ID).Order("unit_id").Find(&units).Error; err != nil {
		return nil, report, fmt.Errorf("units: %w", err)
	}
	if err := db.Where("save_id = ?", save.ID).Order("projectile_id").Find(&projectiles).Error; err != nil {
		return nil, report, fmt.Errorf("projectiles: %w", err)
	}

	st := engine.NewState(opts)
	st.Restore(save.Tick, save.Clock, counters)
	catalog := st.Catalog()

	for _, r := range bases {
		b, err := recordToBase(catalog, r)
		if err == nil {
			err = st.AddBase(b)
		}
		if err != nil {
			report.reject("base", r.BaseID, err)
			continue
		}
		report.Bases++
	}

	for _, r := range installations {
		in, err := recordToInstallation(catalog, r)
		if err == nil {
			err = st.AddInstallation(in)
		}
		if err != nil {
			report.reject("installation", r.InstallationID, err)
			continue
		}
		report.Installations++
	}

	for _, r := range units {
		u, err := recordToUnit(catalog, r)
		if err == nil {
			err = checkHome(st, u)
		}
		if err == nil {
			err = st.RestoreUnit(u)
		}
		if err != nil {
			report.reject("unit", fmt.Sprintf("%d (%s)", r.UnitID, r.Name), err)
			continue
		}
		report.Units++
	}
	repairTargets(st)

	for _, r := range projectiles {
		p, err := recordToProjectile(catalog, r)
		if err == nil {
			err = st.RestoreProjectile(p)
		}
		if err != nil {
			report.reject("projectile", fmt.Sprint(r.ProjectileID), err)
			continue
		}
		report.Projectiles++
	}

	st.RestoreContacts()

	if !report.Clean() {
		s.log.Warnf("Loaded save %s with %d rejected records", save.ID, len(report.Rejected))
	}
	return st, report, nil
}

// checkHome rejects aircraft whose home or transfer base did not load.
func checkHome(st *engine.State, u *engine.Unit) error {
	if u.IsUFO() {
		return nil
	}
	if _, ok := st.Base(u.Home); !ok {
		return fmt.Errorf("%w: home %q", engine.ErrNoSuchBase, u.Home)
	}
	if u.TransferTo != "" {
		if _, ok := st.Base(u.TransferTo); !ok {
			return fmt.Errorf("%w: transfer %q", engine.ErrNoSuchBase, u.TransferTo)
		}
	}
	return nil
}

// repairTargets clears targets that point at units missing from the load. A pursuing
// aircraft heads home and a pursuing UFO goes back to transit.
func repairTargets(st *engine.State) {
	for _, u := range st.Units() {
		if u.Target == 0 {
			continue
		}
		if t, ok := st.Unit(u.Target); ok && t.Alive() {
			continue
		}
		if u.IsUFO() {
			u.Target = 0
			if u.Status == engine.StatusPursuit {
				u.Status = engine.StatusTransit
			}
			continue
		}
		if err := st.ReturnToBase(u.ID); err != nil {
			u.Target = 0
		}
	}
}

// ListSaves returns every save header, newest first.
func (s *Store) ListSaves(ctx context.Context) ([]SaveGame, error) {
	var saves []SaveGame
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&saves).Error; err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return saves, nil
}

// SaveSummary is a header with its record counts.
type SaveSummary struct {
	SaveGame
	Bases       int64
	Units       int64
	Projectiles int64
}

// Summary counts the records of a save.
func (s *Store) Summary(ctx context.Context, id uuid.UUID) (SaveSummary, error) {
	save, err := s.GetSave(ctx, id)
	if err != nil {
		return SaveSummary{}, err
	}
	summary := SaveSummary{SaveGame: save}
	db := s.db.WithContext(ctx)
	if err := db.Model(&BaseRecord{}).Where("save_id = ?", save.ID).Count(&summary.Bases).Error; err != nil {
		return summary, err
	}
	if err := db.Model(&UnitRecord{}).Where("save_id = ?", save.ID).Count(&summary.Units).Error; err != nil {
		return summary, err
	}
	if err := db.Model(&ProjectileRecord{}).Where("save_id = ?", save.ID).Count(&summary.Projectiles).Error; err != nil {
		return summary, err
	}
	return summary, nil
}

// DeleteSave removes a save and all of its records.
func (s *Store) DeleteSave(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&BaseRecord{}, &InstallationRecord{}, &UnitRecord{}, &ProjectileRecord{}} {
			if err := tx.Where("save_id = ?", id.String()).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id.String()).Delete(&SaveGame{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrSaveNotFound, id)
		}
		return nil
	})
}

// Tracks returns the recorded positions of a run ordered by unit and tick.
func (s *Store) Tracks(ctx context.Context, runID uuid.UUID) ([]TrackPoint, error) {
	var points []TrackPoint
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID.String()).
		Order("unit_id, tick").
		Find(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return points, nil
}

// WriteTracks inserts track points in batches.
func (s *Store) WriteTracks(ctx context.Context, points []TrackPoint) error {
	return s.db.WithContext(ctx).CreateInBatches(points, batchSize).Error
}
