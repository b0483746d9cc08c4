// airdata/airdata.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airdata derives the basic air metrics from raw samples:
// navigation altitude, climb rate, turn rate and circling state, and
// the flying flag with its takeoff/landing bookkeeping.
package airdata

import (
	"time"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/math"
)

// Circling detection: sustained turn rate above the threshold.
const (
	circlingTurnRate = 4 // degrees/s
	circlingDuration = 5 * time.Second
)

// averageVarioWindow is the smoothing window for the averager.
const averageVarioWindow = 30 * time.Second

// Computer is the air-data collaborator. A TerrainSource may be attached
// to fill in the terrain-derived fields; without one they stay invalid.
type Computer struct {
	terrain TerrainSource

	// altitude history for the GPS vario
	lastAltTime time.Time
	lastAlt     float32
	haveLastAlt bool

	// track history for the turn rate
	lastTrackTime time.Time
	lastTrack     float32
	haveLastTrack bool

	circlingSince time.Time
	straightSince time.Time

	// flying-state debounce
	fastSince time.Time
	slowSince time.Time

	flightStart time.Time
}

// TerrainSource answers terrain elevation queries.
type TerrainSource interface {
	// Elevation returns the terrain elevation at the location, and
	// whether terrain data covers it.
	Elevation(p geo.Point) (float32, bool)
	// Base returns the lowest terrain within the area of interest.
	Base() (float32, bool)
}

func New(terrain TerrainSource) *Computer {
	return &Computer{terrain: terrain}
}

// ProcessBasic refreshes navigation altitude, the GPS vario, and the
// terrain-derived fields.
func (c *Computer) ProcessBasic(s *computer.Sample, st *computer.DerivedState, set *config.Settings) {
	if alt, ok := s.NavAltitude(); ok {
		st.NavAltitude = alt
		st.NavAltitudeAvailable.Update(s.Clock)

		c.updateGPSVario(s, st, alt)
	}

	c.updateTerrain(s, st)
}

func (c *Computer) updateGPSVario(s *computer.Sample, st *computer.DerivedState, alt float32) {
	if !s.TimeValid {
		return
	}
	if c.haveLastAlt {
		dt := s.Time.Sub(c.lastAltTime).Seconds()
		if dt > 0 && dt < 30 {
			st.Climb.GPSVario = (alt - c.lastAlt) / float32(dt)
			st.Climb.GPSVarioAvailable.Update(s.Clock)
		} else if dt < 0 {
			// time warp; restart the differencing
			c.haveLastAlt = false
		}
	}
	c.lastAltTime, c.lastAlt, c.haveLastAlt = s.Time, alt, true
}

func (c *Computer) updateTerrain(s *computer.Sample, st *computer.DerivedState) {
	if c.terrain == nil || !s.LocationValid {
		return
	}

	if elev, ok := c.terrain.Elevation(s.Location); ok {
		st.Terrain.TerrainValid = true
		st.Terrain.TerrainAltitude = elev
		if st.NavAltitudeAvailable.IsValid() {
			st.Terrain.AltitudeAGL = st.NavAltitude - elev
			st.Terrain.AltitudeAGLValid = true
		}
	} else {
		st.Terrain.TerrainValid = false
		st.Terrain.AltitudeAGLValid = false
	}

	if base, ok := c.terrain.Base(); ok {
		st.Terrain.TerrainBase = base
		st.Terrain.TerrainBaseValid = true
	}
}

// FlightTimes updates the flying flag from debounced ground speed and
// maintains takeoff/landing times. The flag's edges are detected by the
// orchestrator, not here.
func (c *Computer) FlightTimes(s *computer.Sample, st *computer.DerivedState, set *config.Settings) {
	if !s.GroundSpeedValid || !s.TimeValid {
		// Without a usable speed the flag just holds its last value.
		c.accumulateFlightTime(s, st)
		return
	}

	fs := &set.Flying
	if s.GroundSpeed >= fs.TakeoffSpeed {
		c.slowSince = time.Time{}
		if c.fastSince.IsZero() {
			c.fastSince = s.Time
		}
		if !st.Flight.Flying && s.Time.Sub(c.fastSince) >= fs.TakeoffDuration {
			st.Flight.Flying = true
			st.Flight.TakeoffTime = c.fastSince
			if s.LocationValid {
				st.Flight.TakeoffLocation = s.Location
				st.Flight.TakeoffLocationValid = true
			}
			c.flightStart = c.fastSince
		}
	} else {
		c.fastSince = time.Time{}
		if c.slowSince.IsZero() {
			c.slowSince = s.Time
		}
		if st.Flight.Flying && s.Time.Sub(c.slowSince) >= fs.LandingDuration {
			st.Flight.Flying = false
			st.Flight.LandingTime = s.Time
		}
	}

	c.accumulateFlightTime(s, st)
}

func (c *Computer) accumulateFlightTime(s *computer.Sample, st *computer.DerivedState) {
	if st.Flight.Flying && s.TimeValid && !c.flightStart.IsZero() {
		if d := s.Time.Sub(c.flightStart); d > 0 {
			st.Flight.FlightTime = d
		}
	}
}

// ProcessVertical refines the vertical metrics: it picks the best
// available vario, smooths the averager, and detects circling from the
// turn rate.
func (c *Computer) ProcessVertical(s *computer.Sample, st *computer.DerivedState, set *config.Settings) {
	if s.TotalEnergyVarioValid {
		st.Climb.BruttoVario = s.TotalEnergyVario
	} else if st.Climb.GPSVarioAvailable.IsValid() {
		st.Climb.BruttoVario = st.Climb.GPSVario
	}

	// Exponential smoothing scaled to the sample spacing.
	if s.TimeValid {
		st.Climb.AverageVario = smooth(st.Climb.AverageVario, st.Climb.BruttoVario,
			s.Time, c.lastTrackTime, averageVarioWindow)
	}

	c.updateTurnRate(s, st)
}

func smooth(avg, value float32, now, last time.Time, window time.Duration) float32 {
	if last.IsZero() {
		return value
	}
	dt := now.Sub(last)
	if dt <= 0 || dt > window {
		return value
	}
	alpha := float32(dt) / float32(window)
	return math.Lerp(alpha, avg, value)
}

func (c *Computer) updateTurnRate(s *computer.Sample, st *computer.DerivedState) {
	if !s.TrackValid || !s.TimeValid {
		return
	}
	defer func() {
		c.lastTrackTime, c.lastTrack, c.haveLastTrack = s.Time, s.Track, true
	}()

	if !c.haveLastTrack {
		return
	}
	dt := s.Time.Sub(c.lastTrackTime).Seconds()
	if dt <= 0 || dt > 10 {
		return
	}

	turn := math.HeadingSignedTurn(c.lastTrack, s.Track)
	st.Climb.TurnRate = turn / float32(dt)

	if math.Abs(st.Climb.TurnRate) >= circlingTurnRate {
		c.straightSince = time.Time{}
		if c.circlingSince.IsZero() {
			c.circlingSince = s.Time
		}
		if !st.Climb.Circling && s.Time.Sub(c.circlingSince) >= circlingDuration {
			st.Climb.Circling = true
		}
	} else {
		c.circlingSince = time.Time{}
		if c.straightSince.IsZero() {
			c.straightSince = s.Time
		}
		if st.Climb.Circling && s.Time.Sub(c.straightSince) >= circlingDuration {
			st.Climb.Circling = false
		}
	}
}

// ResetFlight clears the accumulated flight bookkeeping; the takeoff
// transition performs the partial form automatically.
func (c *Computer) ResetFlight(st *computer.DerivedState, full bool) {
	c.fastSince = time.Time{}
	c.slowSince = time.Time{}
	c.circlingSince = time.Time{}
	c.straightSince = time.Time{}

	if full {
		c.haveLastAlt = false
		c.haveLastTrack = false
		c.flightStart = time.Time{}
	}
}

// ResetStats clears per-task accumulations; the air-data computer keeps
// none beyond what ResetFlight covers.
func (c *Computer) ResetStats() {}
