// computer/pipeline.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"fmt"
	"time"
)

// The fix pipeline is an explicit ordered list of stages, each declaring
// the products it consumes and produces. The declarations make the
// data-dependency ordering checkable (TestFixStageOrder) instead of
// being implicit in one long function: later stages consume earlier
// stages' outputs, and the order must never be shuffled casually.
//
// A product named here is either produced by a stage this cycle or
// listed in fixInputs: the sample, the settings snapshot, the
// state carried over from previous cycles, and the flags captured at
// the top of the cycle.

type product string

const (
	// inputs
	prodSample       product = "sample"
	prodSettings     product = "settings"
	prodFlyingBefore product = "flying-before"
	prodCarriedState product = "carried-state" // previous cycle's DerivedState
	prodFlightStats  product = "flight-stats"  // stats computer accumulations

	// per-cycle products
	prodLocalTime      product = "local-datetime"
	prodFreshness      product = "freshness"
	prodAirData        product = "air-data"
	prodTaskStats      product = "task-stats"
	prodFinishedBefore product = "task-finished-before"
	prodWorkingBand    product = "working-band"
	prodTaskGlide      product = "task-glide"
	prodFinishSnapshot product = "finish-snapshot"
	prodFlying         product = "flying"
	prodTransitions    product = "flight-transitions"
	prodClimb          product = "climb"
	prodCloudBase      product = "cloud-base"
	prodOwnTeamCode    product = "own-team-code"
	prodTeammate       product = "teammate"
	prodTrace          product = "trace"
	prodVarioScale     product = "vario-scale"
	prodFuel           product = "fuel"
)

var fixInputs = []product{
	prodSample, prodSettings, prodFlyingBefore, prodCarriedState, prodFlightStats,
}

type stage struct {
	name     string
	consumes []product
	produces []product
	run      func(*Computer, *fixCycle)
}

var fixStages = []stage{
	{
		name:     "local-time",
		consumes: []product{prodSample, prodSettings},
		produces: []product{prodLocalTime},
		run:      (*Computer).stageLocalTime,
	},
	{
		name:     "expire",
		consumes: []product{prodSample, prodCarriedState},
		produces: []product{prodFreshness},
		run:      (*Computer).stageExpire,
	},
	{
		name:     "air-data-basic",
		consumes: []product{prodSample, prodFreshness},
		produces: []product{prodAirData},
		run:      (*Computer).stageAirDataBasic,
	},
	{
		name:     "task-basic",
		consumes: []product{prodSample, prodAirData},
		produces: []product{prodTaskStats, prodFinishedBefore},
		run:      (*Computer).stageTaskBasic,
	},
	{
		name:     "working-band",
		consumes: []product{prodAirData, prodFlightStats, prodSettings},
		produces: []product{prodWorkingBand},
		run:      (*Computer).stageWorkingBand,
	},
	{
		name:     "task-more",
		consumes: []product{prodSample, prodTaskStats, prodWorkingBand},
		produces: []product{prodTaskGlide},
		run:      (*Computer).stageTaskMore,
	},
	{
		name:     "finish-edge",
		consumes: []product{prodFinishedBefore, prodTaskStats},
		produces: []product{prodFinishSnapshot},
		run:      (*Computer).stageFinishEdge,
	},
	{
		name:     "flight-times",
		consumes: []product{prodSample, prodAirData},
		produces: []product{prodFlying},
		run:      (*Computer).stageFlightTimes,
	},
	{
		name:     "takeoff-landing",
		consumes: []product{prodFlying, prodFlyingBefore, prodTaskStats, prodFinishSnapshot},
		produces: []product{prodTransitions},
		run:      (*Computer).stageTakeoffLanding,
	},
	{
		name:     "task-auto",
		consumes: []product{prodSample, prodFlying, prodTransitions},
		produces: nil,
		run:      (*Computer).stageTaskAuto,
	},
	{
		name:     "air-data-vertical",
		consumes: []product{prodSample, prodAirData},
		produces: []product{prodClimb},
		run:      (*Computer).stageAirDataVertical,
	},
	{
		name:     "climb-events",
		consumes: []product{prodClimb},
		produces: nil, // feeds prodFlightStats for later cycles
		run:      (*Computer).stageClimbEvents,
	},
	{
		name:     "custom-units",
		consumes: []product{prodSample, prodAirData},
		produces: []product{prodCloudBase},
		run:      (*Computer).stageCustomUnits,
	},
	{
		name:     "own-team-code",
		consumes: []product{prodSample, prodSettings},
		produces: []product{prodOwnTeamCode},
		run:      (*Computer).stageOwnTeamCode,
	},
	{
		name:     "teammate",
		consumes: []product{prodSample, prodSettings},
		produces: []product{prodTeammate},
		run:      (*Computer).stageTeammate,
	},
	{
		name:     "trace-history",
		consumes: []product{prodSample, prodAirData, prodClimb},
		produces: []product{prodTrace},
		run:      (*Computer).stageTraceHistory,
	},
	{
		name:     "vario-scale",
		consumes: []product{prodFlightStats, prodSettings},
		produces: []product{prodVarioScale},
		run:      (*Computer).stageVarioScale,
	},
	{
		name:     "condition-monitors",
		consumes: []product{prodSample, prodFlying, prodTaskStats, prodCloudBase},
		produces: nil,
		run:      (*Computer).stageMonitors,
	},
	{
		name:     "fuel-burn",
		consumes: []product{prodSample, prodSettings},
		produces: []product{prodFuel},
		run:      (*Computer).stageFuelBurn,
	},
}

// validateStages checks that every product a stage consumes is either a
// pipeline input or produced by an earlier stage.
func validateStages(stages []stage, inputs []product) error {
	available := make(map[product]bool)
	for _, p := range inputs {
		available[p] = true
	}

	for _, st := range stages {
		for _, p := range st.consumes {
			if !available[p] {
				return fmt.Errorf("stage %q consumes %q before any stage produces it", st.name, p)
			}
		}
		for _, p := range st.produces {
			available[p] = true
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// stage bodies

func (c *Computer) stageLocalTime(cyc *fixCycle) {
	s, st := cyc.sample, c.state

	if !s.TimeValid {
		st.DateTimeLocal.Invalidate()
		return
	}

	local := s.Time.UTC().Add(cyc.settings.UTCOffset)
	hh, mm, ss := local.Clock()
	tod := timeOfDay(hh, mm, ss, local.Nanosecond())

	if s.DateValid {
		// known date: the offset may legitimately move us across midnight
		st.DateTimeLocal = LocalDateTime{
			DateTime:  local,
			TimeOfDay: tod,
			DateValid: true,
			TimeValid: true,
		}
	} else {
		// unknown date: offset only the time of day; producing a wrapped
		// or wrong date would be worse than no date
		st.DateTimeLocal = LocalDateTime{
			TimeOfDay: tod,
			TimeValid: true,
		}
	}
}

func (c *Computer) stageExpire(cyc *fixCycle) {
	c.state.Expire(cyc.sample.Clock)
}

func (c *Computer) stageAirDataBasic(cyc *fixCycle) {
	if c.co.AirData != nil {
		c.co.AirData.ProcessBasic(cyc.sample, c.state, cyc.settings)
	}
}

func (c *Computer) stageTaskBasic(cyc *fixCycle) {
	cyc.lastFinished = c.state.Task.TaskFinished
	if c.co.Task != nil {
		c.co.Task.ProcessBasicTask(cyc.sample, c.state, cyc.settings, cyc.force)
	}
}

func (c *Computer) stageWorkingBand(cyc *fixCycle) {
	c.calculateWorkingBand(cyc)
}

func (c *Computer) stageTaskMore(cyc *fixCycle) {
	if c.co.Task != nil {
		c.co.Task.ProcessMoreTask(cyc.sample, c.state, cyc.settings)
	}
}

func (c *Computer) stageFinishEdge(cyc *fixCycle) {
	if !cyc.lastFinished && c.state.Task.TaskFinished {
		c.onFinishTask()
	}
}

func (c *Computer) stageFlightTimes(cyc *fixCycle) {
	if c.co.AirData != nil {
		c.co.AirData.FlightTimes(cyc.sample, c.state, cyc.settings)
	}
}

func (c *Computer) stageTakeoffLanding(cyc *fixCycle) {
	c.takeoffLanding(cyc.lastFlying)
}

func (c *Computer) stageTaskAuto(cyc *fixCycle) {
	if c.co.Task != nil {
		c.co.Task.ProcessAutoTask(cyc.sample, c.state)
	}
}

func (c *Computer) stageAirDataVertical(cyc *fixCycle) {
	if c.co.AirData != nil {
		c.co.AirData.ProcessVertical(cyc.sample, c.state, cyc.settings)
	}
}

func (c *Computer) stageClimbEvents(cyc *fixCycle) {
	if c.co.Stats != nil {
		c.co.Stats.ProcessClimbEvents(c.state)
	}
}

func (c *Computer) stageCustomUnits(cyc *fixCycle) {
	c.calculateCloudBase(cyc)
}

func (c *Computer) stageOwnTeamCode(cyc *fixCycle) {
	c.calculateOwnTeamCode(cyc)
}

func (c *Computer) stageTeammate(cyc *fixCycle) {
	c.calculateTeammateBearingRange(cyc)
}

func (c *Computer) stageTraceHistory(cyc *fixCycle) {
	s := cyc.sample
	if !s.TimeValid {
		return
	}

	dt := c.traceClock.Update(s.Time, traceMinPeriod, traceMaxGap)
	if dt > 0 {
		c.state.Trace.Append(TracePoint{
			Time:        s.Time,
			Location:    s.Location,
			NavAltitude: c.state.NavAltitude,
			Vario:       c.state.Climb.BruttoVario,
		})
	} else if dt < 0 {
		// time warp
		c.state.Trace.Clear()
	}
}

func (c *Computer) stageVarioScale(cyc *fixCycle) {
	c.calculateVarioScale(cyc)
}

func (c *Computer) stageMonitors(cyc *fixCycle) {
	if c.co.Monitors != nil {
		c.co.Monitors.Update(cyc.sample, c.state, cyc.settings)
	}
}

func (c *Computer) stageFuelBurn(cyc *fixCycle) {
	c.calculateFuelBurnTimeRemain(cyc)
}

func timeOfDay(hh, mm, ss, ns int) time.Duration {
	return time.Duration(hh)*time.Hour +
		time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second +
		time.Duration(ns)
}
