// traffic/traffic.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package traffic maintains the set of nearby-traffic targets between
// samples. Target reports arrive irregularly and go stale quickly; the
// store ages each target out on its own TTL so a vanished glider stops
// appearing in new samples without any explicit removal message.
package traffic

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/soarium/glidecomp/computer"
)

const (
	// maxTargets bounds the store; FLARM-style receivers report at most
	// a few dozen targets.
	maxTargets = 64

	// DefaultTTL is how long a target survives without a fresh report.
	DefaultTTL = 4 * time.Second
)

// Store holds current traffic targets keyed by id.
type Store struct {
	targets *expirable.LRU[computer.TargetID, computer.Traffic]
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		targets: expirable.NewLRU[computer.TargetID, computer.Traffic](maxTargets, nil, ttl),
	}
}

// Upsert records a fresh report for a target, resetting its TTL.
func (s *Store) Upsert(t computer.Traffic) {
	s.targets.Add(t.ID, t)
}

// Snapshot returns the targets still current, in the store's eviction
// order, as the TrafficList to attach to a sample.
func (s *Store) Snapshot() computer.TrafficList {
	var tl computer.TrafficList
	for _, id := range s.targets.Keys() {
		if t, ok := s.targets.Get(id); ok {
			tl.List = append(tl.List, t)
		}
	}
	return tl
}

func (s *Store) Len() int {
	return s.targets.Len()
}

func (s *Store) Clear() {
	s.targets.Purge()
}
