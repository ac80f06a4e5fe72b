package forensiq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Record(t *testing.T) {
	var s Stats
	for _, ms := range []int64{12, 30, 8} {
		s.Record(ms)
	}

	assert.Equal(t, uint64(3), s.Calls())
	assert.Equal(t, uint64(50), s.LatencyMillis())

	snap := s.Snapshot()
	assert.Equal(t, uint64(3), snap.Calls)
	assert.InDelta(t, 50.0/3.0, snap.AvgLatencyMillis, 0.0001)
}

func TestStats_NegativeClampedToZero(t *testing.T) {
	var s Stats
	s.Record(-7)
	assert.Equal(t, uint64(1), s.Calls())
	assert.Equal(t, uint64(0), s.LatencyMillis())
}

func TestStats_EmptySnapshot(t *testing.T) {
	var s Stats
	assert.Equal(t, StatsSnapshot{}, s.Snapshot())
}

func TestStats_Reset(t *testing.T) {
	var s Stats
	s.Record(5)
	s.Reset()
	assert.Equal(t, uint64(0), s.Calls())
	assert.Equal(t, uint64(0), s.LatencyMillis())
}

func TestStats_ConcurrentRecord(t *testing.T) {
	var s Stats
	const workers, perWorker = 32, 500

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Record(2)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(workers*perWorker), s.Calls())
	assert.Equal(t, uint64(2*workers*perWorker), s.LatencyMillis())
}
