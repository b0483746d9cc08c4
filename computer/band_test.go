// computer/band_test.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"testing"
	"time"

	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/log"
	"github.com/soarium/glidecomp/math"
)

func bandComputer(stats *stubStats) (*Computer, *config.Settings) {
	set := config.Default()
	c := New(set, Collaborators{Stats: stats}, log.Discard())
	return c, &set
}

func TestWorkingBand(t *testing.T) {
	c, set := bandComputer(&stubStats{minWorking: 100, maxWorking: 2000})

	// Flying above the observed band raises the upper bound to the
	// current altitude.
	c.state.NavAltitude = 2500
	c.state.NavAltitudeAvailable.Update(testEpoch)
	c.calculateWorkingBand(&fixCycle{sample: &Sample{}, settings: set})

	if got := c.state.Common.HeightMinWorking; got != 100 {
		t.Errorf("min working height %v, want 100", got)
	}
	if got := c.state.Common.HeightMaxWorking; got != 2500 {
		t.Errorf("max working height %v, want 2500", got)
	}
	// (2500 - 300 safety - 100) / (2500 - 100)
	if got, want := c.state.Common.HeightFractionWorking, float32(2100.0/2400.0); math.Abs(got-want) > 1e-4 {
		t.Errorf("working fraction %v, want %v", got, want)
	}
}

func TestWorkingBandTerrainFloor(t *testing.T) {
	c, set := bandComputer(&stubStats{minWorking: 100, maxWorking: 2000})

	// Terrain raises the floor to base + arrival safety height.
	c.state.Terrain.TerrainBaseValid = true
	c.state.Terrain.TerrainBase = 600
	c.state.NavAltitude = 1500
	c.state.NavAltitudeAvailable.Update(testEpoch)
	c.calculateWorkingBand(&fixCycle{sample: &Sample{}, settings: set})

	if got := c.state.Common.HeightMinWorking; got != 900 {
		t.Errorf("min working height %v, want 900 (terrain base + safety)", got)
	}
	if got := c.state.Common.HeightMaxWorking; got != 2000 {
		t.Errorf("max working height %v, want 2000", got)
	}
}

func TestWorkingBandNoAltitude(t *testing.T) {
	c, set := bandComputer(&stubStats{minWorking: 100, maxWorking: 2000})

	c.calculateWorkingBand(&fixCycle{sample: &Sample{}, settings: set})
	if got := c.state.Common.HeightFractionWorking; got != 1 {
		t.Errorf("working fraction %v without an altitude, want 1", got)
	}
}

func TestWorkingFractionClamps(t *testing.T) {
	var st DerivedState
	st.Common.HeightMinWorking = 100
	st.Common.HeightMaxWorking = 2000

	if got := st.WorkingFraction(5000, 300); got != 1 {
		t.Errorf("fraction %v above the band, want 1", got)
	}
	if got := st.WorkingFraction(0, 300); got != 0 {
		t.Errorf("fraction %v below the band, want 0", got)
	}

	// Degenerate band.
	st.Common.HeightMaxWorking = 100
	if got := st.WorkingFraction(500, 300); got != 1 {
		t.Errorf("fraction %v with an empty band, want 1", got)
	}
}

func TestVarioScale(t *testing.T) {
	c, set := bandComputer(&stubStats{scalePos: 2.5, scaleNeg: -1.0})
	set.Polar.MacCready = 1.5
	set.Polar.BestLDSink = 0.6

	c.calculateVarioScale(&fixCycle{settings: set})
	if got := c.state.Common.VarioScalePositive; got != 2.5 {
		t.Errorf("positive scale %v, want observed 2.5", got)
	}
	if got := c.state.Common.VarioScaleNegative; got != -1.0 {
		t.Errorf("negative scale %v, want observed -1.0", got)
	}

	// With weak observations, the configured performance numbers bound
	// the scale instead.
	c2, set2 := bandComputer(&stubStats{scalePos: 0.5, scaleNeg: -0.2})
	set2.Polar.MacCready = 1.5
	set2.Polar.BestLDSink = 0.6

	c2.calculateVarioScale(&fixCycle{settings: set2})
	if got := c2.state.Common.VarioScalePositive; got != 1.5 {
		t.Errorf("positive scale %v, want MacCready 1.5", got)
	}
	if got := c2.state.Common.VarioScaleNegative; got != -0.6 {
		t.Errorf("negative scale %v, want -best-LD sink -0.6", got)
	}
}

func TestCloudBase(t *testing.T) {
	c, set := bandComputer(&stubStats{})

	s := &Sample{
		Clock:            testEpoch,
		Temperature:      25,
		TemperatureValid: true,
		Humidity:         50,
		HumidityValid:    true,
	}
	c.state.NavAltitude = 1000
	c.state.NavAltitudeAvailable.Update(testEpoch)

	c.calculateCloudBase(&fixCycle{sample: s, settings: set})
	if !c.state.CloudBaseAvailable.IsValid() {
		t.Fatal("cloud base not computed with temperature and humidity")
	}
	// Dewpoint 15 C, spread 10 C, 125 m per degree above 1000 m.
	if got := c.state.CloudBase; got != 2250 {
		t.Errorf("cloud base %v, want 2250", got)
	}

	// Missing humidity: previous estimate stands.
	s2 := &Sample{Clock: testEpoch, Temperature: 25, TemperatureValid: true}
	c.calculateCloudBase(&fixCycle{sample: s2, settings: set})
	if got := c.state.CloudBase; got != 2250 {
		t.Errorf("cloud base %v after dropout, want previous 2250", got)
	}
}

func TestFuelBurnTimeRemain(t *testing.T) {
	for _, tc := range []struct {
		name        string
		consumption float32
		onboard     float32
		want        float32
		computed    bool
	}{
		{"normal", 2.0, 10.0, 18000, true},
		{"zero consumption", 0, 10.0, 0, false},
		{"negative consumption", -1.0, 10.0, 0, false},
		{"tiny consumption", 1e-9, 10.0, 0, false},
		{"empty tank", 2.0, 0, 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, set := bandComputer(&stubStats{})
			set.Plane.FuelConsumption = tc.consumption
			set.Plane.FuelOnboard = tc.onboard

			c.calculateFuelBurnTimeRemain(&fixCycle{
				sample:   &Sample{Clock: testEpoch},
				settings: set,
			})

			if got := c.state.FuelBurnTimeRemainAvailable.IsValid(); got != tc.computed {
				t.Fatalf("estimate available = %v, want %v", got, tc.computed)
			}
			if tc.computed && c.state.FuelBurnTimeRemain != tc.want {
				t.Errorf("endurance %v s, want %v s", c.state.FuelBurnTimeRemain, tc.want)
			}
		})
	}
}

func TestExpire(t *testing.T) {
	var st DerivedState
	st.NavAltitudeAvailable.Update(testEpoch)
	st.WindAvailable.Update(testEpoch)

	st.Expire(testEpoch.Add(6 * time.Second))
	if st.NavAltitudeAvailable.IsValid() {
		t.Error("nav altitude still fresh after 6 s")
	}
	if !st.WindAvailable.IsValid() {
		t.Error("wind expired after 6 s; its window is 10 min")
	}

	st.Expire(testEpoch.Add(11 * time.Minute))
	if st.WindAvailable.IsValid() {
		t.Error("wind still fresh after 11 min")
	}
}
