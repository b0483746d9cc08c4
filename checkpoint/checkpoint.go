// checkpoint/checkpoint.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package checkpoint saves and restores the derived state across runs
// as zstd-compressed msgpack, so a restart mid-flight resumes with the
// working band, wind, and flight times intact.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/soarium/glidecomp/computer"
)

// fileVersion guards against loading checkpoints written by an
// incompatible state layout.
const fileVersion = 1

type envelope struct {
	Version int
	Saved   time.Time
	State   *computer.DerivedState
}

// Save writes the state atomically: to a temp file in the target
// directory, then renamed into place.
func Save(path string, st *computer.DerivedState) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".checkpoint-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return err
	}

	env := envelope{Version: fileVersion, Saved: time.Now(), State: st}
	if err := msgpack.NewEncoder(zw).Encode(env); err != nil {
		zw.Close()
		tmp.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Load reads a checkpoint. A missing file is not an error; it returns
// (nil, time.Time{}, nil) so callers can start fresh.
func Load(path string) (*computer.DerivedState, time.Time, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, nil
	} else if err != nil {
		return nil, time.Time{}, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer zr.Close()

	var env envelope
	if err := msgpack.NewDecoder(zr).Decode(&env); err != nil {
		return nil, time.Time{}, fmt.Errorf("%s: %w", path, err)
	}
	if env.Version != fileVersion {
		return nil, time.Time{}, fmt.Errorf("%s: checkpoint version %d, want %d",
			path, env.Version, fileVersion)
	}
	if env.State == nil {
		return nil, time.Time{}, fmt.Errorf("%s: empty checkpoint", path)
	}

	return env.State, env.Saved, nil
}
