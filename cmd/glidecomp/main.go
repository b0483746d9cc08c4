// main.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function: it
// assembles the sub-computers, replays an NMEA trace through the
// pipeline, and periodically checkpoints the derived state.

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/soarium/glidecomp/airdata"
	"github.com/soarium/glidecomp/airspace"
	"github.com/soarium/glidecomp/checkpoint"
	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/flightlog"
	"github.com/soarium/glidecomp/log"
	"github.com/soarium/glidecomp/monitors"
	"github.com/soarium/glidecomp/nmea"
	"github.com/soarium/glidecomp/stats"
	"github.com/soarium/glidecomp/taskcomp"
	"github.com/soarium/glidecomp/traffic"
	"github.com/soarium/glidecomp/waypoint"
)

var (
	configFilename   = flag.String("config", "", "filename of YAML computation settings")
	replayFilename   = flag.String("replay", "", "filename of NMEA trace to replay")
	waypointFilename = flag.String("waypoints", "", "filename of CSV waypoint database")
	airspaceFilename = flag.String("airspace", "", "filename of YAML airspace zone definitions")
	replayRate       = flag.Float64("rate", 0, "replay speed multiplier; 0 replays without pacing")
	logLevel         = flag.String("loglevel", "", "logging level: debug, info, warn, error (overrides config)")
	resumeState      = flag.Bool("resume", true, "restore the derived state from the last checkpoint")
)

func main() {
	flag.Parse()

	if *replayFilename == "" {
		fmt.Fprintln(os.Stderr, "glidecomp: -replay is required")
		flag.Usage()
		os.Exit(1)
	}

	set := config.Default()
	if *configFilename != "" {
		var err error
		if set, err = config.Load(*configFilename); err != nil {
			fmt.Fprintf(os.Stderr, "glidecomp: %v\n", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		set.Log.Level = *logLevel
	}

	lg := log.New(set.Log.Level, set.Log.Dir)

	if err := run(set, lg); err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(set config.Settings, lg *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var waypoints computer.WaypointStore
	if *waypointFilename != "" {
		store, err := waypoint.Load(*waypointFilename)
		if err != nil {
			return fmt.Errorf("waypoints: %w", err)
		}
		waypoints = store
		lg.Info("loaded waypoints", "count", store.Len())
	}

	var warnings computer.WarningComputer
	if *airspaceFilename != "" {
		zones, err := loadZones(*airspaceFilename)
		if err != nil {
			return fmt.Errorf("airspace: %w", err)
		}
		warnings = airspace.New(zones, lg)
		lg.Info("loaded airspace zones", "count", len(zones))
	}

	var fixSink stats.FixSink
	if set.FlightLog.Path != "" {
		db, err := flightlog.Open(set.FlightLog.Path)
		if err != nil {
			return fmt.Errorf("flight log: %w", err)
		}
		defer db.Close()
		fixSink = db
	}

	notifier := monitors.LogNotifier{Logger: lg}
	co := computer.Collaborators{
		AirData:      airdata.New(nil),
		Task:         taskcomp.New(waypoints, lg),
		Stats:        stats.New(fixSink, lg),
		Warnings:     warnings,
		Monitors:     monitors.NewFixSet(notifier),
		IdleMonitors: monitors.NewIdleSet(notifier),
		Waypoints:    waypoints,
	}
	comp := computer.New(set, co, lg)

	if *resumeState && set.Checkpoint.Path != "" {
		st, saved, err := checkpoint.Load(set.Checkpoint.Path)
		if err != nil {
			lg.Warnf("checkpoint: %v", err)
		} else if st != nil {
			comp.RestoreState(st)
			lg.Info("restored checkpoint", "saved", saved)
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	if *configFilename != "" {
		eg.Go(func() error {
			return config.Watch(ctx, *configFilename, lg, comp.SetSettings)
		})
	}

	eg.Go(func() error {
		defer stop()
		return replay(ctx, comp, set, lg)
	})

	return eg.Wait()
}

// replay feeds the NMEA trace through the computer, pacing by sample
// timestamps when a rate is given.
func replay(ctx context.Context, comp *computer.Computer, set config.Settings, lg *log.Logger) error {
	f, err := os.Open(*replayFilename)
	if err != nil {
		return err
	}
	defer f.Close()

	parser := nmea.NewParser(traffic.NewStore(traffic.DefaultTTL))

	var lastSampleTime time.Time
	var lastCheckpoint time.Time
	var samples, badLines int

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		sample, err := parser.Feed(scanner.Text())
		if err != nil {
			badLines++
			lg.Debugf("%v", err)
			continue
		}
		if sample == nil {
			continue
		}

		if *replayRate > 0 && sample.TimeValid && !lastSampleTime.IsZero() {
			if dt := sample.Time.Sub(lastSampleTime); dt > 0 {
				pause(ctx, time.Duration(float64(dt) / *replayRate))
			}
		}
		if sample.TimeValid {
			lastSampleTime = sample.Time
		}
		samples++

		if comp.ProcessFix(sample, false) {
			comp.ProcessIdle(sample, false)
		}

		if set.Checkpoint.Path != "" && time.Since(lastCheckpoint) >= set.Checkpoint.Interval {
			if err := checkpoint.Save(set.Checkpoint.Path, comp.LatestCalculated()); err != nil {
				lg.Errorf("checkpoint: %v", err)
			}
			lastCheckpoint = time.Now()
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if set.Checkpoint.Path != "" {
		if err := checkpoint.Save(set.Checkpoint.Path, comp.LatestCalculated()); err != nil {
			lg.Errorf("checkpoint: %v", err)
		}
	}

	st := comp.LatestCalculated()
	lg.Info("replay finished",
		"samples", samples,
		"bad_lines", badLines,
		"flight_time", st.Flight.FlightTime,
		"task_finished", st.Task.TaskFinished)
	return nil
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func loadZones(path string) ([]airspace.Zone, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var zones []airspace.Zone
	if err := yaml.Unmarshal(b, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}
