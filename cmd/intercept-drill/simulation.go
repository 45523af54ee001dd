package drill

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/picogrid/geoscape-sim/pkg/logger"
	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

// InterceptDrill sweeps target headings around a fixed pursuer and flies each solved
// intercept to check how close the pursuer gets.
type InterceptDrill struct {
	config   *Config
	trials   []Trial
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewInterceptDrill creates a new instance of the intercept drill
func NewInterceptDrill() simulation.Simulation {
	return &InterceptDrill{
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *InterceptDrill) Name() string {
	return "Intercept Drill"
}

// Description returns the simulation description
func (s *InterceptDrill) Description() string {
	return "Sweeps target headings and flies each computed intercept to measure the miss distance"
}

// Configure sets up the simulation with provided parameters
func (s *InterceptDrill) Configure(params map[string]interface{}) error {
	config, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	s.config = config
	return nil
}

// Run flies one trial per update until every heading is done
func (s *InterceptDrill) Run(ctx context.Context) error {
	if s.config == nil {
		return fmt.Errorf("simulation not configured")
	}
	logger.LogSection("Intercept Drill")
	logger.LogKeyValues(map[string]interface{}{
		"Pursuer speed": fmt.Sprintf("%.1f deg/h", s.config.PursuerSpeed),
		"Target speed":  fmt.Sprintf("%.1f deg/h", s.config.TargetSpeed),
		"Separation":    fmt.Sprintf("%.1f deg", s.config.Separation),
		"Headings":      s.config.Headings,
	})

	pending := headings(s.config.Headings)

	ticker := time.NewTicker(s.config.UpdateInterval)
	defer ticker.Stop()

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopChan:
			logger.Info("Simulation stopped by user")
			s.report()
			return nil
		case <-ticker.C:
			trial := runTrial(s.config, pending[0])
			pending = pending[1:]
			s.mu.Lock()
			s.trials = append(s.trials, trial)
			s.mu.Unlock()
			logger.Debugf("Heading %.0f: miss %.1f km", trial.Heading, trial.MissKm)
		}
	}

	s.report()
	return nil
}

// Trials returns the trials flown so far.
func (s *InterceptDrill) Trials() []Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

func (s *InterceptDrill) report() {
	table := logger.NewTable("Heading", "Solved", "Aim Lon", "Aim Lat", "Residual", "Hours", "Miss (km)")
	solved := 0
	for _, t := range s.Trials() {
		if t.Intercept.Found {
			solved++
		}
		hours := "-"
		if t.Closed {
			hours = fmt.Sprintf("%.2f", t.Hours)
		}
		table.AddRow(
			fmt.Sprintf("%.0f", t.Heading),
			fmt.Sprintf("%t", t.Intercept.Found),
			fmt.Sprintf("%.2f", t.Intercept.Point.Lon),
			fmt.Sprintf("%.2f", t.Intercept.Point.Lat),
			fmt.Sprintf("%.4f", t.Intercept.Residual()),
			hours,
			fmt.Sprintf("%.1f", t.MissKm),
		)
	}
	logger.LogSubSection("Trials")
	table.Print()
	logger.Successf("%d of %d headings solved", solved, table.Len())
}

// Stop gracefully shuts down the simulation
func (s *InterceptDrill) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

// init registers the simulation
func init() {
	err := simulation.DefaultRegistry.Register("Intercept Drill", NewInterceptDrill)
	if err != nil {
		logger.Errorf("Failed to register simulation: %v", err)
		return
	}
}
