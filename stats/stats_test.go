// stats/stats_test.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package stats

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/log"
)

var epoch = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func climbState(circling bool, alt float32) *computer.DerivedState {
	st := &computer.DerivedState{NavAltitude: alt}
	st.NavAltitudeAvailable.Update(epoch)
	st.Climb.Circling = circling
	return st
}

func TestWorkingHeightsFromClimbs(t *testing.T) {
	c := New(nil, nil)

	if c.MinWorkingHeight() != 0 || c.MaxWorkingHeight() != 0 {
		t.Fatal("working heights nonzero before any observations")
	}

	// Three climbs: start at 500/600/700, top out at 1800/1900/2000.
	for _, climb := range []struct{ start, end float32 }{
		{500, 1800}, {600, 1900}, {700, 2000},
	} {
		c.ProcessClimbEvents(climbState(false, climb.start))
		c.ProcessClimbEvents(climbState(true, climb.start)) // entering
		c.ProcessClimbEvents(climbState(true, climb.end))   // climbing
		c.ProcessClimbEvents(climbState(false, climb.end))  // leaving
	}

	lo := c.MinWorkingHeight()
	if lo < 500 || lo > 600 {
		t.Errorf("min working height %v, want near the lowest climb start", lo)
	}
	hi := c.MaxWorkingHeight()
	if hi < 1900 || hi > 2000 {
		t.Errorf("max working height %v, want near the highest climb top", hi)
	}
}

func TestClimbEventNeedsValidAltitude(t *testing.T) {
	c := New(nil, nil)

	st := &computer.DerivedState{NavAltitude: 1000}
	st.Climb.Circling = true // altitude not valid
	c.ProcessClimbEvents(st)

	if len(c.climbStartAlts) != 0 {
		t.Error("climb start recorded without a valid altitude")
	}
}

func TestVarioScales(t *testing.T) {
	c := New(nil, nil)

	st := climbState(false, 1000)
	st.Flight.Flying = true
	st.Climb.GPSVarioAvailable.Update(epoch)

	for _, v := range []float32{0.5, 1.0, 1.5, 2.0, -0.5, -1.0, -2.5} {
		st.Climb.BruttoVario = v
		c.ProcessClimbEvents(st)
	}

	if pos := c.VarioScalePositive(); pos < 1.5 || pos > 2.0 {
		t.Errorf("positive scale %v, want in the upper climb range", pos)
	}
	if neg := c.VarioScaleNegative(); neg > -1.0 || neg < -2.5 {
		t.Errorf("negative scale %v, want in the deeper sink range", neg)
	}

	// On the ground nothing accumulates.
	before := len(c.climbRates)
	st.Flight.Flying = false
	st.Climb.BruttoVario = 3.0
	c.ProcessClimbEvents(st)
	if len(c.climbRates) != before {
		t.Error("climb rate recorded while not flying")
	}
}

type recordingSink struct {
	appends []string
	err     error
}

func (r *recordingSink) Append(flightID string, s *computer.Sample, st *computer.DerivedState) error {
	r.appends = append(r.appends, flightID)
	return r.err
}

func TestLoggingRateLimit(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink, nil)

	st := &computer.DerivedState{FlightID: "f1"}
	st.Flight.Flying = true

	// 1 Hz samples for 10 seconds: the 4 s interval admits the first fix
	// and then every fourth.
	for i := 0; i <= 10; i++ {
		s := &computer.Sample{Time: epoch.Add(time.Duration(i) * time.Second), TimeValid: true}
		c.DoLogging(s, st)
	}
	if got := len(sink.appends); got != 3 {
		t.Errorf("%d fixes logged over 10 s at 1 Hz, want 3", got)
	}
}

func TestLoggingGates(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink, nil)
	s := &computer.Sample{Time: epoch, TimeValid: true}

	st := &computer.DerivedState{FlightID: "f1"} // not flying
	c.DoLogging(s, st)
	if len(sink.appends) != 0 {
		t.Error("fix logged while not flying")
	}

	st.Flight.Flying = true
	st.FlightID = ""
	c.DoLogging(s, st)
	if len(sink.appends) != 0 {
		t.Error("fix logged without a flight id")
	}
}

func TestLoggingErrorWarned(t *testing.T) {
	sink := &recordingSink{err: errors.New("database is locked")}
	var buf bytes.Buffer
	lg := &log.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	c := New(sink, lg)

	st := &computer.DerivedState{FlightID: "f1"}
	st.Flight.Flying = true
	c.DoLogging(&computer.Sample{Time: epoch, TimeValid: true}, st)

	if len(sink.appends) != 1 {
		t.Fatal("fix never offered to the sink")
	}
	if out := buf.String(); !strings.Contains(out, "flight log append") {
		t.Errorf("sink error not surfaced in the log: %q", out)
	}
}

func TestStartTaskClearsWorkingHeights(t *testing.T) {
	c := New(nil, nil)
	c.ProcessClimbEvents(climbState(true, 500))
	c.ProcessClimbEvents(climbState(false, 1800))
	if c.MaxWorkingHeight() == 0 {
		t.Fatal("no working height recorded")
	}

	s := &computer.Sample{Time: epoch, TimeValid: true}
	c.StartTask(s)
	if c.MinWorkingHeight() != 0 || c.MaxWorkingHeight() != 0 {
		t.Error("working heights survived a task start")
	}
}

func TestResetFlight(t *testing.T) {
	c := New(nil, nil)
	st := climbState(false, 1000)
	st.Flight.Flying = true
	st.Climb.GPSVarioAvailable.Update(epoch)
	st.Climb.BruttoVario = 2.0
	c.ProcessClimbEvents(st)

	// Partial reset keeps the vario-scale observations.
	c.ResetFlight(false)
	if len(c.climbRates) != 1 {
		t.Error("partial reset dropped the climb-rate observations")
	}

	c.ResetFlight(true)
	if len(c.climbRates) != 0 {
		t.Error("full reset kept the climb-rate observations")
	}
}

func TestAppendBounded(t *testing.T) {
	var xs []float64
	for i := 0; i < maxObservations+10; i++ {
		xs = appendBounded(xs, float64(i))
	}
	if len(xs) != maxObservations {
		t.Fatalf("bounded slice grew to %d, want %d", len(xs), maxObservations)
	}
	if xs[0] != 10 {
		t.Errorf("oldest observation %v, want 10 (oldest dropped first)", xs[0])
	}
}
