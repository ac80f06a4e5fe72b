package circuitbreaker

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *fakeClock) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	b := New(threshold, cooldown)
	b.now = clk.Now
	return b, clk
}

func TestBreaker_ClosedAllows(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	if !b.Allow("api.forensiq.com") {
		t.Fatal("expected closed circuit to allow")
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	b.RecordFailure("p")
	b.RecordFailure("p")
	if !b.Allow("p") {
		t.Fatal("should allow below threshold")
	}

	b.RecordFailure("p")
	if b.Allow("p") {
		t.Fatal("should reject after 3 failures")
	}
	if got := b.State("p"); got != StateOpen {
		t.Fatalf("expected open, got %v", got)
	}
}

func TestBreaker_HalfOpenAdmitsOneProbe(t *testing.T) {
	b, clk := newTestBreaker(2, time.Second)

	b.RecordFailure("p")
	b.RecordFailure("p")
	if b.Allow("p") {
		t.Fatal("should be open")
	}

	clk.Advance(999 * time.Millisecond)
	if b.Allow("p") {
		t.Fatal("should stay open until cooldown passes")
	}

	clk.Advance(time.Millisecond)
	if !b.Allow("p") {
		t.Fatal("should admit a probe after cooldown")
	}
	if got := b.State("p"); got != StateHalfOpen {
		t.Fatalf("expected half_open, got %v", got)
	}
	if b.Allow("p") {
		t.Fatal("should reject a second call while probing")
	}
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	b, clk := newTestBreaker(2, time.Second)

	b.RecordFailure("p")
	b.RecordFailure("p")
	clk.Advance(time.Second)
	b.Allow("p")

	b.RecordSuccess("p")
	if got := b.State("p"); got != StateClosed {
		t.Fatalf("expected closed after probe success, got %v", got)
	}
	if b.Failures("p") != 0 {
		t.Fatalf("expected failure run cleared, got %d", b.Failures("p"))
	}
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b, clk := newTestBreaker(2, time.Second)

	b.RecordFailure("p")
	b.RecordFailure("p")
	clk.Advance(time.Second)
	b.Allow("p")

	b.RecordFailure("p")
	if got := b.State("p"); got != StateOpen {
		t.Fatalf("expected open after failed probe, got %v", got)
	}
	if b.Allow("p") {
		t.Fatal("reopened circuit should start a fresh cooldown")
	}
}

func TestBreaker_ReleasedProbeAdmitsAnother(t *testing.T) {
	b, clk := newTestBreaker(2, time.Second)

	b.RecordFailure("p")
	b.RecordFailure("p")
	clk.Advance(time.Second)
	if !b.Allow("p") {
		t.Fatal("should admit a probe after cooldown")
	}

	b.Release("p")
	if got := b.State("p"); got != StateOpen {
		t.Fatalf("expected open after released probe, got %v", got)
	}
	if !b.Allow("p") {
		t.Fatal("released probe should not restart the cooldown")
	}
}

func TestBreaker_ReleaseLeavesClosedRunAlone(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	b.RecordFailure("p")
	b.Release("p")
	b.Release("unknown")

	if got := b.Failures("p"); got != 1 {
		t.Fatalf("expected failure run of 1, got %d", got)
	}
	if got := b.State("p"); got != StateClosed {
		t.Fatalf("expected closed, got %v", got)
	}
}

func TestBreaker_SuccessResetsRun(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	b.RecordFailure("p")
	b.RecordFailure("p")
	b.RecordSuccess("p")
	b.RecordFailure("p")

	if !b.Allow("p") {
		t.Fatal("run was reset, circuit should still be closed")
	}
}

func TestBreaker_KeysAreIndependent(t *testing.T) {
	b, _ := newTestBreaker(2, time.Second)

	b.RecordFailure("a")
	b.RecordFailure("a")

	if b.Allow("a") {
		t.Fatal("a should be open")
	}
	if !b.Allow("b") {
		t.Fatal("b should be closed")
	}
	if b.State("unknown") != StateClosed {
		t.Fatal("unknown key should report closed")
	}
}

func TestBreaker_OnTransition(t *testing.T) {
	b, _ := newTestBreaker(2, time.Second)

	got := make(chan [2]State, 4)
	b.OnTransition(func(_ string, from, to State) {
		got <- [2]State{from, to}
	})

	b.RecordFailure("p")
	b.RecordFailure("p")

	select {
	case tr := <-got:
		if tr[0] != StateClosed || tr[1] != StateOpen {
			t.Fatalf("expected closed→open, got %v→%v", tr[0], tr[1])
		}
	case <-time.After(time.Second):
		t.Fatal("transition callback not called")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
