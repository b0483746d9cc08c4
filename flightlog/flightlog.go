// flightlog/flightlog.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package flightlog persists flights and their logged fixes to a
// local SQLite database. It implements the fix sink the statistics
// collaborator hands rate-limited fixes to.
package flightlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soarium/glidecomp/computer"
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			flight_id         TEXT PRIMARY KEY,
			takeoff_time      TIMESTAMP,
			takeoff_lat       DOUBLE,
			takeoff_lon       DOUBLE,
			landing_time      TIMESTAMP,
			flight_seconds    DOUBLE
		);
		CREATE TABLE IF NOT EXISTS fixes (
			flight_id         TEXT,
			time              TIMESTAMP,
			lat               DOUBLE,
			lon               DOUBLE,
			nav_altitude      DOUBLE,
			gps_altitude      DOUBLE,
			baro_altitude     DOUBLE,
			ground_speed      DOUBLE,
			track             DOUBLE,
			vario             DOUBLE,
			circling          INTEGER,
			FOREIGN KEY(flight_id) REFERENCES flights(flight_id)
		);
		CREATE INDEX IF NOT EXISTS fixes_flight_time ON fixes(flight_id, time);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// Append stores one logged fix, creating the flight row on first use.
func (db *DB) Append(flightID string, s *computer.Sample, st *computer.DerivedState) error {
	if flightID == "" {
		return fmt.Errorf("append without a flight id")
	}

	_, err := db.Exec(`
		INSERT INTO flights (flight_id, takeoff_time, takeoff_lat, takeoff_lon)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(flight_id) DO NOTHING`,
		flightID, st.Flight.TakeoffTime,
		st.Flight.TakeoffLocation.Latitude(), st.Flight.TakeoffLocation.Longitude())
	if err != nil {
		return fmt.Errorf("flight row: %w", err)
	}

	var lat, lon float64
	if s.LocationValid {
		lat, lon = float64(s.Location.Latitude()), float64(s.Location.Longitude())
	}

	_, err = db.Exec(`
		INSERT INTO fixes (flight_id, time, lat, lon, nav_altitude,
			gps_altitude, baro_altitude, ground_speed, track, vario, circling)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		flightID, s.Time, lat, lon,
		st.NavAltitude, s.GPSAltitude, s.BaroAltitude,
		s.GroundSpeed, s.Track, st.Climb.BruttoVario, boolToInt(st.Climb.Circling))
	if err != nil {
		return fmt.Errorf("fix row: %w", err)
	}
	return nil
}

// CloseFlight records the landing on a flight's row.
func (db *DB) CloseFlight(flightID string, landingTime time.Time, flightSeconds float64) error {
	_, err := db.Exec(`
		UPDATE flights SET landing_time = ?, flight_seconds = ?
		WHERE flight_id = ?`,
		landingTime, flightSeconds, flightID)
	return err
}

// FixCount reports how many fixes a flight has logged.
func (db *DB) FixCount(flightID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM fixes WHERE flight_id = ?`, flightID).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
