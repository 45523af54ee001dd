package engine

import (
	"fmt"

	"github.com/picogrid/geoscape-sim/pkg/geo"
)

// RadarSettings are the campaign-wide radar constants. Ranges are in degrees.
type RadarSettings struct {
	BaseRange         float64
	BaseTrackingRange float64
	UpgradeMultiplier float64
	// DetectionProbability is the chance per detection pass that a radar spots an
	// undetected UFO inside its detection range.
	DetectionProbability float64
	// DetectionInterval is the simulated seconds between detection passes; zero runs a
	// pass every tick.
	DetectionInterval float64
	MaxContacts       int
}

// DefaultRadarSettings returns the standard radar constants.
func DefaultRadarSettings() RadarSettings {
	return RadarSettings{
		BaseRange:            24,
		BaseTrackingRange:    34,
		UpgradeMultiplier:    0.4,
		DetectionProbability: 0.000125 * 1800,
		DetectionInterval:    1800,
		MaxContacts:          8,
	}
}

// Radar is a sensor with a detection range, a longer tracking range, and the ordered
// set of UFOs it currently tracks.
type Radar struct {
	Range                float64
	TrackingRange        float64
	DetectionProbability float64
	MaxContacts          int
	contacts             []UnitID
}

// InitializeRadar builds a radar of the given tech level. Level zero is no radar;
// each level above one extends both ranges by the upgrade multiplier.
func InitializeRadar(rangeDeg, trackingRange, level float64, settings RadarSettings) Radar {
	r := Radar{
		DetectionProbability: settings.DetectionProbability,
		MaxContacts:          settings.MaxContacts,
	}
	if level == 0 {
		return r
	}
	scale := 1 + (level-1)*settings.UpgradeMultiplier
	r.Range = rangeDeg * scale
	r.TrackingRange = trackingRange * scale
	return r
}

// BaseRadar builds a base radar of the given level from the campaign settings.
func (s *State) BaseRadar(level float64) Radar {
	return InitializeRadar(s.radar.BaseRange, s.radar.BaseTrackingRange, level, s.radar)
}

// IsTracked reports whether the radar currently tracks the unit.
func (r *Radar) IsTracked(id UnitID) bool {
	for _, c := range r.contacts {
		if c == id {
			return true
		}
	}
	return false
}

// Contacts returns the tracked UFOs in acquisition order.
func (r *Radar) Contacts() []UnitID {
	return append([]UnitID(nil), r.contacts...)
}

// AddContact starts tracking a unit. It fails when the contact set is full.
func (r *Radar) AddContact(id UnitID) bool {
	if r.IsTracked(id) {
		return true
	}
	if r.MaxContacts > 0 && len(r.contacts) >= r.MaxContacts {
		return false
	}
	r.contacts = append(r.contacts, id)
	return true
}

// RemoveContact stops tracking a unit.
func (r *Radar) RemoveContact(id UnitID) {
	for i, c := range r.contacts {
		if c == id {
			r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
			return
		}
	}
}

// UpdateTracking runs one radar against one UFO and reports whether the radar sees it.
// A UFO already detected elsewhere only needs to be inside tracking range. An
// undetected UFO inside detection range is rolled for, and a success puts it on every
// radar in tracking range. A tracked UFO that left the range is dropped from this radar.
func (s *State) UpdateTracking(r *Radar, radarPos geo.Position, ufo *Unit, detectedElsewhere bool) bool {
	tracked := r.IsTracked(ufo.ID)
	dist := geo.DistanceOnGlobe(radarPos, ufo.Pos)

	limit := r.Range
	if detectedElsewhere {
		limit = r.TrackingRange
	}
	if limit > dist {
		if detectedElsewhere {
			if !tracked {
				r.AddContact(ufo.ID)
			}
			return true
		}
		if tracked {
			// Stale contact from a radar that was off the geoscape when the UFO was lost.
			r.RemoveContact(ufo.ID)
		}
		if s.rnd.Float64() <= r.DetectionProbability {
			s.AddDetectedUFOToEveryRadar(ufo)
			return true
		}
		return false
	}

	if tracked {
		r.RemoveContact(ufo.ID)
	}
	return false
}

// AddDetectedUFOToEveryRadar puts a UFO on every active radar whose tracking range
// covers it. Radars of bases without power and idle installations stay dark.
func (s *State) AddDetectedUFOToEveryRadar(ufo *Unit) {
	for _, a := range s.Aircraft() {
		if !a.Status.OnGeoscape() || a.Radar.IsTracked(ufo.ID) {
			continue
		}
		if geo.DistanceOnGlobe(ufo.Pos, a.Pos) <= a.Radar.TrackingRange {
			a.Radar.AddContact(ufo.ID)
		}
	}
	for _, b := range s.Bases() {
		if !s.facilities.BaseOperational(b.ID) || b.Radar.IsTracked(ufo.ID) {
			continue
		}
		if geo.DistanceOnGlobe(ufo.Pos, b.Pos) <= b.Radar.TrackingRange {
			b.Radar.AddContact(ufo.ID)
		}
	}
	for _, in := range s.Installations() {
		if !in.Working || in.Radar.TrackingRange == 0 || in.Radar.IsTracked(ufo.ID) {
			continue
		}
		if geo.DistanceOnGlobe(ufo.Pos, in.Pos) <= in.Radar.TrackingRange {
			in.Radar.AddContact(ufo.ID)
		}
	}
}

// dropFromRadars removes a UFO from every radar.
func (s *State) dropFromRadars(id UnitID) {
	for _, a := range s.Aircraft() {
		a.Radar.RemoveContact(id)
	}
	for _, b := range s.Bases() {
		b.Radar.RemoveContact(id)
	}
	for _, in := range s.Installations() {
		in.Radar.RemoveContact(id)
	}
}

// CheckRadarSensored reports whether a position lies inside the detection range of a
// base or a working installation. Aircraft radars do not count.
func (s *State) CheckRadarSensored(pos geo.Position) bool {
	for _, b := range s.Bases() {
		if geo.DistanceOnGlobe(pos, b.Pos) <= b.Radar.Range {
			return true
		}
	}
	for _, in := range s.Installations() {
		if !in.Working {
			continue
		}
		if geo.DistanceOnGlobe(pos, in.Pos) <= in.Radar.Range {
			return true
		}
	}
	return false
}

// DetectNewUFO marks a UFO as detected, numbering it the first time it is ever seen.
func (s *State) DetectNewUFO(ufo *Unit) {
	if ufo.Detected {
		return
	}
	if ufo.DetectionIndex == 0 {
		s.counters.UFOsDetected++
		ufo.DetectionIndex = s.counters.UFOsDetected
	}
	ufo.Detected = true
	ufo.LastSpotted = s.clock
	s.notifier.UnitBecameVisible(ufo.ID)
}

// CheckEvents is the detection pass over every flying UFO. It reports whether at
// least one UFO became visible.
func (s *State) CheckEvents() bool {
	newDetection := false

	for _, ufo := range s.UFOs() {
		if ufo.Landed || !ufo.Alive() {
			continue
		}

		// Every radar is run even once the UFO is seen, so that each one updates its
		// own contact set.
		detected := false
		minDistance := -1.0
		detectedBy := ""
		sensed := func(name string, pos geo.Position) {
			detected = true
			d := geo.DistanceOnGlobe(pos, ufo.Pos)
			if minDistance < 0 || d < minDistance {
				minDistance = d
				detectedBy = name
			}
		}

		for _, a := range s.Aircraft() {
			if !a.Status.OnGeoscape() {
				continue
			}
			if s.UpdateTracking(&a.Radar, a.Pos, ufo, detected || ufo.Detected) {
				sensed(a.Name, a.Pos)
			}
		}
		for _, b := range s.Bases() {
			if !s.facilities.BaseOperational(b.ID) {
				continue
			}
			if s.UpdateTracking(&b.Radar, b.Pos, ufo, detected || ufo.Detected) {
				sensed(b.Name, b.Pos)
			}
		}
		for _, in := range s.Installations() {
			if !in.Working {
				continue
			}
			if s.UpdateTracking(&in.Radar, in.Pos, ufo, detected || ufo.Detected) {
				sensed(in.Name, in.Pos)
			}
		}

		if detected == ufo.Detected {
			continue
		}
		if detected {
			s.DetectNewUFO(ufo)
			s.counters.Detections++
			if target := s.live(ufo.Target); target != nil {
				s.notifier.Notice(NoticeUFOAttacking, fmt.Sprintf("%s is flying toward %s", ufo.Name, target.Name))
			} else {
				s.notifier.Notice(NoticeUFOSpotted, fmt.Sprintf("Our radar detected %s near %s", ufo.Name, detectedBy))
			}
			newDetection = true
			continue
		}
		s.notifier.Notice(NoticeSignalLost, fmt.Sprintf("Our radar has lost the tracking on %s", ufo.Name))
		ufo.Detected = false
		s.UFODisappeared(ufo)
	}
	return newDetection
}

// RestoreContacts rebuilds every radar's contact set from the UFO detection flags,
// as after loading a saved game.
func (s *State) RestoreContacts() {
	for _, ufo := range s.UFOs() {
		s.dropFromRadars(ufo.ID)
		if ufo.Alive() && ufo.Detected && !ufo.Landed {
			s.AddDetectedUFOToEveryRadar(ufo)
		}
	}
}
