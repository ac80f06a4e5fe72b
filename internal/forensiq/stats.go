package forensiq

import "sync/atomic"

// Stats keeps running totals of provider calls and their round-trip time.
// Each update is atomic; Calls and LatencyMillis read together may be
// momentarily out of step under concurrent Record calls.
type Stats struct {
	calls         atomic.Uint64
	latencyMillis atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Calls            uint64  `json:"calls"`
	LatencyMillis    uint64  `json:"latencyMillis"`
	AvgLatencyMillis float64 `json:"avgLatencyMillis"`
}

// Record counts one completed call that took elapsedMillis.
func (s *Stats) Record(elapsedMillis int64) {
	if elapsedMillis < 0 {
		elapsedMillis = 0
	}
	s.calls.Add(1)
	s.latencyMillis.Add(uint64(elapsedMillis))
}

// Calls returns the number of recorded calls.
func (s *Stats) Calls() uint64 { return s.calls.Load() }

// LatencyMillis returns the cumulative recorded latency.
func (s *Stats) LatencyMillis() uint64 { return s.latencyMillis.Load() }

// Snapshot reads both counters.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Calls:         s.calls.Load(),
		LatencyMillis: s.latencyMillis.Load(),
	}
	if snap.Calls > 0 {
		snap.AvgLatencyMillis = float64(snap.LatencyMillis) / float64(snap.Calls)
	}
	return snap
}

// Reset zeroes both counters. It is a maintenance operation; nothing in the
// client calls it.
func (s *Stats) Reset() {
	s.calls.Store(0)
	s.latencyMillis.Store(0)
}
