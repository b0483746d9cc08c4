// airdata/airdata_test.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airdata

import (
	"testing"
	"time"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/math"
)

var epoch = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func altSample(i int, alt float32) *computer.Sample {
	return &computer.Sample{
		Time:             epoch.Add(time.Duration(i) * time.Second),
		TimeValid:        true,
		Clock:            epoch.Add(time.Duration(i) * time.Second),
		GPSAltitude:      alt,
		GPSAltitudeValid: true,
	}
}

func TestNavAltitudePrefersBaro(t *testing.T) {
	c := New(nil)
	set := config.Default()
	var st computer.DerivedState

	s := altSample(0, 1000)
	s.BaroAltitude, s.BaroAltitudeValid = 980, true
	c.ProcessBasic(s, &st, &set)

	if !st.NavAltitudeAvailable.IsValid() {
		t.Fatal("nav altitude not valid")
	}
	if st.NavAltitude != 980 {
		t.Errorf("nav altitude %v, want baro 980", st.NavAltitude)
	}
}

func TestGPSVario(t *testing.T) {
	c := New(nil)
	set := config.Default()
	var st computer.DerivedState

	c.ProcessBasic(altSample(0, 1000), &st, &set)
	if st.Climb.GPSVarioAvailable.IsValid() {
		t.Fatal("vario valid after a single altitude")
	}

	c.ProcessBasic(altSample(2, 1003), &st, &set)
	if !st.Climb.GPSVarioAvailable.IsValid() {
		t.Fatal("vario not valid after two altitudes")
	}
	if got, want := st.Climb.GPSVario, float32(1.5); math.Abs(got-want) > 1e-4 {
		t.Errorf("vario %v, want %v", got, want)
	}
}

func TestGPSVarioTimeWarp(t *testing.T) {
	c := New(nil)
	set := config.Default()
	var st computer.DerivedState

	c.ProcessBasic(altSample(10, 1000), &st, &set)
	// Backwards jump: differencing restarts instead of producing a
	// nonsense rate.
	c.ProcessBasic(altSample(5, 1500), &st, &set)
	if st.Climb.GPSVarioAvailable.IsValid() {
		t.Error("vario computed across a time warp")
	}

	c.ProcessBasic(altSample(6, 1502), &st, &set)
	if !st.Climb.GPSVarioAvailable.IsValid() {
		t.Fatal("vario did not restart after the warp")
	}
	if got, want := st.Climb.GPSVario, float32(2); math.Abs(got-want) > 1e-4 {
		t.Errorf("vario %v after restart, want %v", got, want)
	}
}

func speedSample(i int, speed float32) *computer.Sample {
	return &computer.Sample{
		Time:             epoch.Add(time.Duration(i) * time.Second),
		TimeValid:        true,
		Clock:            epoch.Add(time.Duration(i) * time.Second),
		GroundSpeed:      speed,
		GroundSpeedValid: true,
		Location:         geo.MakePoint(47, 11),
		LocationValid:    true,
	}
}

func TestFlyingDebounce(t *testing.T) {
	c := New(nil)
	set := config.Default() // 10 m/s threshold, 10 s on, 30 s off
	var st computer.DerivedState

	// Fast, but not yet for long enough.
	for i := 0; i < 10; i++ {
		c.FlightTimes(speedSample(i, 15), &st, &set)
		if st.Flight.Flying {
			t.Fatalf("flying after %d s above threshold, want none before 10 s", i)
		}
	}

	c.FlightTimes(speedSample(10, 15), &st, &set)
	if !st.Flight.Flying {
		t.Fatal("not flying after 10 s above takeoff speed")
	}
	if got, want := st.Flight.TakeoffTime, epoch; !got.Equal(want) {
		t.Errorf("takeoff time %v, want start of the fast period %v", got, want)
	}
	if !st.Flight.TakeoffLocationValid {
		t.Error("takeoff location not recorded")
	}

	// A brief slowdown does not land.
	c.FlightTimes(speedSample(11, 2), &st, &set)
	c.FlightTimes(speedSample(12, 15), &st, &set)
	if !st.Flight.Flying {
		t.Fatal("landed during a 1 s slowdown")
	}

	// A sustained stop does.
	for i := 13; i <= 43; i++ {
		c.FlightTimes(speedSample(i, 2), &st, &set)
	}
	if st.Flight.Flying {
		t.Fatal("still flying after 30 s below takeoff speed")
	}
	if got, want := st.Flight.LandingTime, epoch.Add(43*time.Second); !got.Equal(want) {
		t.Errorf("landing time %v, want %v", got, want)
	}
	if st.Flight.FlightTime <= 0 {
		t.Error("no flight time accumulated")
	}
}

func TestFlyingHoldsWithoutSpeed(t *testing.T) {
	c := New(nil)
	set := config.Default()
	var st computer.DerivedState
	st.Flight.Flying = true

	s := speedSample(0, 0)
	s.GroundSpeedValid = false
	c.FlightTimes(s, &st, &set)
	if !st.Flight.Flying {
		t.Error("flying flag dropped on a sample without ground speed")
	}
}

func trackSample(i int, track float32) *computer.Sample {
	return &computer.Sample{
		Time:       epoch.Add(time.Duration(i) * time.Second),
		TimeValid:  true,
		Clock:      epoch.Add(time.Duration(i) * time.Second),
		Track:      track,
		TrackValid: true,
	}
}

func TestCirclingDetection(t *testing.T) {
	c := New(nil)
	set := config.Default()
	var st computer.DerivedState

	// 12 degrees/s: well above the circling threshold. The flag needs
	// 5 s of sustained turning, which completes at the 7th sample (the
	// first can only record the track).
	for i := 0; i <= 6; i++ {
		c.ProcessVertical(trackSample(i, math.NormalizeHeading(12*float32(i))), &st, &set)
	}
	if !st.Climb.Circling {
		t.Fatal("not circling after 5 s at 12 degrees/s")
	}

	// Straighten out; the flag needs 5 s of straight flight to drop.
	track := math.NormalizeHeading(12 * 6)
	for i := 7; i <= 11; i++ {
		c.ProcessVertical(trackSample(i, track), &st, &set)
	}
	if !st.Climb.Circling {
		t.Fatal("circling dropped before 5 s of straight flight")
	}
	c.ProcessVertical(trackSample(12, track), &st, &set)
	if st.Climb.Circling {
		t.Error("still circling after sustained straight flight")
	}
}

func TestBruttoVarioPreference(t *testing.T) {
	c := New(nil)
	set := config.Default()
	var st computer.DerivedState

	st.Climb.GPSVario = 1.0
	st.Climb.GPSVarioAvailable.Update(epoch)

	s := trackSample(0, 0)
	s.TotalEnergyVario, s.TotalEnergyVarioValid = 2.5, true
	c.ProcessVertical(s, &st, &set)
	if st.Climb.BruttoVario != 2.5 {
		t.Errorf("brutto vario %v, want total-energy 2.5", st.Climb.BruttoVario)
	}

	s.TotalEnergyVarioValid = false
	c.ProcessVertical(s, &st, &set)
	if st.Climb.BruttoVario != 1.0 {
		t.Errorf("brutto vario %v, want GPS fallback 1.0", st.Climb.BruttoVario)
	}
}

type flatTerrain struct {
	elevation float32
	base      float32
}

func (ft flatTerrain) Elevation(p geo.Point) (float32, bool) { return ft.elevation, true }
func (ft flatTerrain) Base() (float32, bool)                 { return ft.base, true }

func TestTerrain(t *testing.T) {
	c := New(flatTerrain{elevation: 650, base: 400})
	set := config.Default()
	var st computer.DerivedState

	s := altSample(0, 1500)
	s.Location, s.LocationValid = geo.MakePoint(47, 11), true
	c.ProcessBasic(s, &st, &set)

	if !st.Terrain.TerrainValid {
		t.Fatal("terrain not valid with a terrain source")
	}
	if st.Terrain.TerrainAltitude != 650 {
		t.Errorf("terrain altitude %v, want 650", st.Terrain.TerrainAltitude)
	}
	if !st.Terrain.AltitudeAGLValid || st.Terrain.AltitudeAGL != 850 {
		t.Errorf("AGL %v (valid=%v), want 850", st.Terrain.AltitudeAGL, st.Terrain.AltitudeAGLValid)
	}
	if !st.Terrain.TerrainBaseValid || st.Terrain.TerrainBase != 400 {
		t.Errorf("terrain base %v, want 400", st.Terrain.TerrainBase)
	}
}
