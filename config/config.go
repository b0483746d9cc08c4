// config/config.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSafetyHeightArrival = 300 // meters
	DefaultTakeoffSpeed        = 10  // m/s
	DefaultTakeoffDuration     = 10 * time.Second
	DefaultLandingDuration     = 30 * time.Second
	DefaultStartRadius         = 1000 // meters
	DefaultFinishRadius        = 3000 // meters
	DefaultCheckpointInterval  = time.Minute
)

// Settings is the full set of computation settings. The computer reads an
// immutable snapshot of it once per cycle; nothing in the processing
// pipeline mutates it.
type Settings struct {
	// UTCOffset is added to GPS time to obtain local time.
	UTCOffset time.Duration `yaml:"utc_offset"`

	TeamCode TeamCodeSettings `yaml:"team_code"`
	Task     TaskSettings     `yaml:"task"`
	Plane    PlaneSettings    `yaml:"plane"`
	Polar    PolarSettings    `yaml:"polar"`
	Flying   FlyingSettings   `yaml:"flying"`

	Log        LogSettings        `yaml:"log"`
	FlightLog  FlightLogSettings  `yaml:"flight_log"`
	Checkpoint CheckpointSettings `yaml:"checkpoint"`
}

// TeamCodeSettings configures the team position tracker.
type TeamCodeSettings struct {
	// ReferenceWaypoint is the id of the waypoint team codes are encoded
	// against; negative means no reference is configured.
	ReferenceWaypoint int `yaml:"reference_waypoint"`

	// TargetID is the FLARM-style id of the teammate's traffic target, if
	// any; it takes precedence over a manually entered Code.
	TargetID string `yaml:"target_id"`

	// Code is a manually entered team code for the teammate.
	Code string `yaml:"code"`
}

// TaskSettings configures task progress computation.
type TaskSettings struct {
	// SafetyHeightArrival is the arrival safety margin in meters.
	SafetyHeightArrival float32 `yaml:"safety_height_arrival"`

	// Turnpoints lists the waypoint ids of the task, in order; the first
	// is the start and the last the finish.
	Turnpoints []int `yaml:"turnpoints"`

	StartRadius  float32 `yaml:"start_radius"`  // meters
	FinishRadius float32 `yaml:"finish_radius"` // meters
}

// PlaneSettings carries the glider's fuel parameters (for touring
// motor gliders; pure gliders leave these zero).
type PlaneSettings struct {
	FuelConsumption float32 `yaml:"fuel_consumption"` // volume per hour
	FuelOnboard     float32 `yaml:"fuel_onboard"`     // volume
}

// PolarSettings carries the performance numbers the vario scale depends on.
type PolarSettings struct {
	MacCready  float32 `yaml:"maccready"`    // m/s
	BestLDSink float32 `yaml:"best_ld_sink"` // m/s, positive
}

// FlyingSettings configures takeoff/landing detection.
type FlyingSettings struct {
	TakeoffSpeed    float32       `yaml:"takeoff_speed"` // m/s ground speed
	TakeoffDuration time.Duration `yaml:"takeoff_duration"`
	LandingDuration time.Duration `yaml:"landing_duration"`
}

type LogSettings struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type FlightLogSettings struct {
	Path string `yaml:"path"`
}

type CheckpointSettings struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns Settings with all defaults applied and no team code,
// task, or fuel configuration.
func Default() Settings {
	var s Settings
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.TeamCode.ReferenceWaypoint == 0 {
		s.TeamCode.ReferenceWaypoint = -1
	}
	if s.Task.SafetyHeightArrival == 0 {
		s.Task.SafetyHeightArrival = DefaultSafetyHeightArrival
	}
	if s.Task.StartRadius == 0 {
		s.Task.StartRadius = DefaultStartRadius
	}
	if s.Task.FinishRadius == 0 {
		s.Task.FinishRadius = DefaultFinishRadius
	}
	if s.Flying.TakeoffSpeed == 0 {
		s.Flying.TakeoffSpeed = DefaultTakeoffSpeed
	}
	if s.Flying.TakeoffDuration == 0 {
		s.Flying.TakeoffDuration = DefaultTakeoffDuration
	}
	if s.Flying.LandingDuration == 0 {
		s.Flying.LandingDuration = DefaultLandingDuration
	}
	if s.Checkpoint.Interval == 0 {
		s.Checkpoint.Interval = DefaultCheckpointInterval
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
}

// Load reads and validates a settings file.
func Load(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	// The zero value of ReferenceWaypoint must mean "unset" for
	// applyDefaults; id 0 is reserved in waypoint files for the same
	// reason.
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	s.applyDefaults()

	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.Polar.BestLDSink < 0 {
		return fmt.Errorf("polar.best_ld_sink must not be negative")
	}
	if s.Task.StartRadius < 0 || s.Task.FinishRadius < 0 {
		return fmt.Errorf("task radii must not be negative")
	}
	if len(s.Task.Turnpoints) == 1 {
		return fmt.Errorf("task needs at least a start and a finish turnpoint")
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: invalid log level", s.Log.Level)
	}
	return nil
}
