// computer/band.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	gomath "math"
)

// calculateWorkingBand recomputes the working altitude band bounds and
// the fraction of the band the glider currently occupies. It is pure:
// everything it reads was updated earlier this cycle or accumulated by
// the stats computer, and it keeps no memory of its own.
func (c *Computer) calculateWorkingBand(cyc *fixCycle) {
	st := c.state

	var minWorking, maxWorking float32
	if c.co.Stats != nil {
		minWorking = c.co.Stats.MinWorkingHeight()
		maxWorking = c.co.Stats.MaxWorkingHeight()
	}

	st.Common.HeightMinWorking = minWorking
	if st.Terrain.TerrainBaseValid {
		st.Common.HeightMinWorking = max(st.Common.HeightMinWorking,
			st.Terrain.TerrainBaseFallback()+cyc.settings.Task.SafetyHeightArrival)
	}

	st.Common.HeightMaxWorking = max(st.Common.HeightMinWorking, maxWorking)

	st.Common.HeightFractionWorking = 1 // fallback

	if st.NavAltitudeAvailable.IsValid() {
		st.Common.HeightMaxWorking = max(st.Common.HeightMaxWorking, st.NavAltitude)
		st.Common.HeightFractionWorking =
			st.WorkingFraction(st.NavAltitude, cyc.settings.Task.SafetyHeightArrival)
	}
}

// calculateVarioScale derives the vario display bounds from the observed
// climb/sink scales and the configured performance numbers.
func (c *Computer) calculateVarioScale(cyc *fixCycle) {
	st := c.state

	var scalePos, scaleNeg float32
	if c.co.Stats != nil {
		scalePos = c.co.Stats.VarioScalePositive()
		scaleNeg = c.co.Stats.VarioScaleNegative()
	}

	st.Common.VarioScalePositive = max(scalePos, cyc.settings.Polar.MacCready)
	st.Common.VarioScaleNegative = min(scaleNeg, -cyc.settings.Polar.BestLDSink)
}

// calculateCloudBase estimates the convective cloud base from outside
// temperature and humidity, when an instrument reports them: the
// dewpoint spread closes at roughly 125 m per degree.
func (c *Computer) calculateCloudBase(cyc *fixCycle) {
	s, st := cyc.sample, c.state

	if !s.TemperatureValid || !s.HumidityValid || !st.NavAltitudeAvailable.IsValid() {
		return
	}

	dewpoint := s.Temperature - (100-s.Humidity)/5
	spread := s.Temperature - dewpoint
	if spread < 0 {
		return
	}

	base := st.NavAltitude + 125*spread
	if gomath.IsNaN(float64(base)) || gomath.IsInf(float64(base), 0) {
		return
	}

	st.CloudBase = base
	st.CloudBaseAvailable.Update(s.Clock)
}
