package engine

// TickResult summarises one simulation step.
type TickResult struct {
	Tick  int64   `json:"tick"`
	Clock float64 `json:"clock"`
	// Moved is set when an aircraft flew this tick; OverlayRefresh additionally needs
	// the caller to have asked for overlay updates.
	Moved          bool `json:"moved"`
	OverlayRefresh bool `json:"overlay_refresh"`

	Shots      int      `json:"shots"`
	Hits       int      `json:"hits"`
	Misses     int      `json:"misses"`
	Destroyed  []UnitID `json:"destroyed,omitempty"`
	Detections int      `json:"detections"`
	// NewDetection is set when the detection pass ran and spotted at least one UFO.
	NewDetection        bool `json:"new_detection"`
	ProjectilesInFlight int  `json:"projectiles_in_flight"`
}

// RunTick advances the geoscape by dt seconds: movement first, then combat decisions,
// then projectile flight, then radar detection.
func (s *State) RunTick(dt float64, updateRadarOverlay bool) TickResult {
	s.tick++
	s.clock += dt
	before := s.counters
	s.destroyed = nil

	s.RunUFOs(dt)
	moved := s.RunAircraft(dt)

	s.runCombat()
	s.RunBaseDefence(dt)

	s.RunProjectiles(dt)

	newDetection := false
	s.sinceDetection += dt
	if interval := s.radar.DetectionInterval; interval <= 0 || s.sinceDetection >= interval {
		s.sinceDetection = 0
		newDetection = s.CheckEvents()
	}

	s.sinceHour += dt
	for s.sinceHour >= secondsPerHour {
		s.sinceHour -= secondsPerHour
		s.progressInstallations()
	}

	s.overlayDirty = s.overlayDirty || moved
	result := TickResult{
		Tick:                s.tick,
		Clock:               s.clock,
		Moved:               moved,
		OverlayRefresh:      updateRadarOverlay && s.overlayDirty,
		Shots:               s.counters.Shots - before.Shots,
		Hits:                s.counters.Hits - before.Hits,
		Misses:              s.counters.Misses - before.Misses,
		Destroyed:           append([]UnitID(nil), s.destroyed...),
		Detections:          s.counters.Detections - before.Detections,
		NewDetection:        newDetection,
		ProjectilesInFlight: len(s.projectiles),
	}
	if result.OverlayRefresh {
		s.overlayDirty = false
	}
	return result
}

// runCombat lets every flying UFO look for or fight its target, then every pursuing
// aircraft engage. Units destroyed earlier in the pass are skipped.
func (s *State) runCombat() {
	for _, ufo := range s.UFOs() {
		if s.live(ufo.ID) == nil || ufo.Landed {
			continue
		}
		s.UFOSearchTarget(ufo)
	}

	for _, u := range s.Aircraft() {
		if s.live(u.ID) == nil || u.Status != StatusPursuit {
			continue
		}
		target := s.live(u.Target)
		if target == nil || target.Landed {
			s.returnToBase(u)
			continue
		}
		s.ExecuteCombatTick(u, target)
	}
}
