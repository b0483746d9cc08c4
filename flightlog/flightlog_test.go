// flightlog/flightlog_test.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/geo"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "flightlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendAndCount(t *testing.T) {
	db := openTestDB(t)

	st := &computer.DerivedState{}
	st.Flight.TakeoffTime = time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC)
	st.Flight.TakeoffLocation = geo.MakePoint(47.5, 11.2)
	st.NavAltitude = 1250
	st.Climb.BruttoVario = 1.8
	st.Climb.Circling = true

	s := &computer.Sample{
		Time:          time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Location:      geo.MakePoint(47.6, 11.3),
		LocationValid: true,
		GroundSpeed:   28,
		Track:         135,
	}

	require.NoError(t, db.Append("flight-1", s, st))
	s.Time = s.Time.Add(4 * time.Second)
	require.NoError(t, db.Append("flight-1", s, st))

	n, err := db.FixCount("flight-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.FixCount("flight-2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// One flight row despite two appends.
	var flights int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM flights`).Scan(&flights))
	assert.Equal(t, 1, flights)
}

func TestAppendRequiresFlightID(t *testing.T) {
	db := openTestDB(t)
	err := db.Append("", &computer.Sample{}, &computer.DerivedState{})
	assert.Error(t, err)
}

func TestCloseFlight(t *testing.T) {
	db := openTestDB(t)

	st := &computer.DerivedState{}
	require.NoError(t, db.Append("flight-1", &computer.Sample{}, st))

	landing := time.Date(2025, 6, 15, 15, 30, 0, 0, time.UTC)
	require.NoError(t, db.CloseFlight("flight-1", landing, 9000))

	var seconds float64
	require.NoError(t, db.QueryRow(
		`SELECT flight_seconds FROM flights WHERE flight_id = ?`, "flight-1").Scan(&seconds))
	assert.Equal(t, 9000.0, seconds)
}
