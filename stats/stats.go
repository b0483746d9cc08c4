// stats/stats.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package stats accumulates flight statistics across processing cycles:
// the altitude range the glider actually works between thermals, and the
// climb/sink scales the vario display is bounded by.
package stats

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/log"
	"github.com/soarium/glidecomp/util"
)

// Working heights come from the altitudes at which climbs start and end;
// the quantiles keep a single outlier thermal from stretching the band.
const (
	workingHeightLoQ = 0.05
	workingHeightHiQ = 0.95
)

// varioScaleQ is the quantile of observed climb rates used for the vario
// scale bounds.
const varioScaleQ = 0.9

// loggingInterval rate-limits the handoff of fixes to the flight log.
const loggingInterval = 4 * time.Second

// FixSink receives fixes for persistence; the flightlog package
// implements it.
type FixSink interface {
	Append(flightID string, s *computer.Sample, st *computer.DerivedState) error
}

// Computer is the flight-statistics collaborator.
type Computer struct {
	sink FixSink
	lg   *log.Logger

	// climb event edge detection
	wasCircling bool

	climbStartAlts []float64
	climbEndAlts   []float64

	climbRates []float64
	sinkRates  []float64

	lastAltValid bool

	logClock util.PeriodClock
}

func New(sink FixSink, lg *log.Logger) *Computer {
	return &Computer{sink: sink, lg: lg}
}

// ProcessClimbEvents edge-detects circling transitions and records the
// altitudes at which climbs start and end, plus the climb/sink rates
// observed along the way.
func (c *Computer) ProcessClimbEvents(st *computer.DerivedState) {
	circling := st.Climb.Circling
	altValid := st.NavAltitudeAvailable.IsValid()

	if circling && !c.wasCircling && altValid {
		// entering a climb
		c.climbStartAlts = appendBounded(c.climbStartAlts, float64(st.NavAltitude))
	} else if !circling && c.wasCircling && altValid && c.lastAltValid {
		// leaving a climb
		c.climbEndAlts = appendBounded(c.climbEndAlts, float64(st.NavAltitude))
	}
	c.wasCircling = circling
	c.lastAltValid = altValid

	if st.Flight.Flying && st.Climb.GPSVarioAvailable.IsValid() {
		if v := float64(st.Climb.BruttoVario); v > 0 {
			c.climbRates = appendBounded(c.climbRates, v)
		} else if v < 0 {
			c.sinkRates = appendBounded(c.sinkRates, v)
		}
	}
}

const maxObservations = 4096

func appendBounded(xs []float64, v float64) []float64 {
	if len(xs) >= maxObservations {
		xs = xs[1:]
	}
	return append(xs, v)
}

// MinWorkingHeight returns the lower working height from the recorded
// climb-start altitudes, or zero when nothing has been recorded.
func (c *Computer) MinWorkingHeight() float32 {
	return quantile(c.climbStartAlts, workingHeightLoQ)
}

// MaxWorkingHeight returns the upper working height from the recorded
// climb-end altitudes, or zero when nothing has been recorded.
func (c *Computer) MaxWorkingHeight() float32 {
	return quantile(c.climbEndAlts, workingHeightHiQ)
}

// VarioScalePositive returns the observed positive climb-rate scale.
func (c *Computer) VarioScalePositive() float32 {
	return quantile(c.climbRates, varioScaleQ)
}

// VarioScaleNegative returns the observed negative sink-rate scale.
func (c *Computer) VarioScaleNegative() float32 {
	return -quantile(negated(c.sinkRates), varioScaleQ)
}

func negated(xs []float64) []float64 {
	r := make([]float64, len(xs))
	for i, v := range xs {
		r[i] = -v
	}
	return r
}

func quantile(xs []float64, q float64) float32 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return float32(stat.Quantile(q, stat.Empirical, sorted, nil))
}

// DoLogging hands the current fix to the flight log, rate limited so the
// log grows at a bounded rate regardless of sensor rate. Logging only
// happens in flight; the flight id keys the rows.
func (c *Computer) DoLogging(s *computer.Sample, st *computer.DerivedState) {
	if c.sink == nil || !st.Flight.Flying || st.FlightID == "" {
		return
	}
	if !s.TimeValid || !c.logClock.CheckUpdate(s.Time, loggingInterval) {
		return
	}

	// An error here degrades the log, never the computation.
	if err := c.sink.Append(st.FlightID, s, st); err != nil {
		c.lg.Warnf("flight log append: %v", err)
	}
}

// StartTask clears the per-task observations; working heights restart
// from the conditions of the task itself.
func (c *Computer) StartTask(s *computer.Sample) {
	c.climbStartAlts = nil
	c.climbEndAlts = nil
}

func (c *Computer) ResetFlight(full bool) {
	c.wasCircling = false
	c.lastAltValid = false
	c.climbStartAlts = nil
	c.climbEndAlts = nil

	if full {
		c.climbRates = nil
		c.sinkRates = nil
		c.logClock.Reset()
	}
}
