// computer/fuel.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"github.com/soarium/glidecomp/math"
)

// fuelEpsilon is the smallest consumption rate treated as nonzero; at or
// below it there is no estimate rather than an infinite one.
const fuelEpsilon = 1e-7

// calculateFuelBurnTimeRemain estimates the remaining endurance in
// seconds from the configured consumption rate (volume/hour) and onboard
// quantity. A zero or negative consumption rate leaves the previous
// estimate and its freshness marker untouched: "no estimate" must not be
// confused with zero or infinite endurance.
func (c *Computer) calculateFuelBurnTimeRemain(cyc *fixCycle) {
	plane := cyc.settings.Plane

	if plane.FuelConsumption < 0 || math.Abs(plane.FuelConsumption) <= fuelEpsilon {
		return
	}

	c.state.FuelBurnTimeRemain = plane.FuelOnboard / plane.FuelConsumption * 60 * 60
	c.state.FuelBurnTimeRemainAvailable.Update(cyc.sample.Clock)
}
