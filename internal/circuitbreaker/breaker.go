// Package circuitbreaker stops calling an upstream that keeps failing.
// Each key moves closed → open after a run of failures, open → half-open
// once the cooldown passes, and half-open → closed or back to open on the
// result of a single probe.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State is a circuit state.
type State int

const (
	StateClosed   State = iota // calls flow
	StateOpen                  // calls rejected until cooldown passes
	StateHalfOpen              // one probe in flight
)

// String returns the state name used in logs and metric labels.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bidguard",
	Subsystem: "circuitbreaker",
	Name:      "state_transitions_total",
	Help:      "Circuit breaker state transitions by upstream key, from-state, and to-state.",
}, []string{"key", "from_state", "to_state"})

func init() {
	prometheus.MustRegister(transitionsTotal)
}

type circuit struct {
	state    State
	failures int
	openedAt time.Time
}

// Breaker tracks one circuit per upstream key.
type Breaker struct {
	mu           sync.Mutex
	circuits     map[string]*circuit
	threshold    int
	cooldown     time.Duration
	now          func() time.Time
	onTransition func(key string, from, to State)
}

// New returns a breaker that opens a key after threshold consecutive
// failures and keeps it open for cooldown.
func New(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		circuits:  make(map[string]*circuit),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// OnTransition registers fn to run (in its own goroutine) on every state change.
func (b *Breaker) OnTransition(fn func(key string, from, to State)) {
	b.mu.Lock()
	b.onTransition = fn
	b.mu.Unlock()
}

// Allow reports whether a call to key may proceed. An open circuit whose
// cooldown has passed moves to half-open and admits exactly one probe.
func (b *Breaker) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		return true
	}
	switch c.state {
	case StateOpen:
		if b.now().Sub(c.openedAt) < b.cooldown {
			return false
		}
		b.setState(key, c, StateHalfOpen)
		return true
	case StateHalfOpen:
		return false
	default:
		return true
	}
}

// RecordSuccess clears the failure run and closes a half-open circuit.
func (b *Breaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		return
	}
	c.failures = 0
	if c.state != StateClosed {
		b.setState(key, c, StateClosed)
	}
}

// RecordFailure extends the failure run. A failed probe reopens the circuit
// immediately; a closed circuit opens once the run reaches the threshold.
func (b *Breaker) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		c = &circuit{}
		b.circuits[key] = c
	}
	c.failures++

	switch {
	case c.state == StateHalfOpen:
		c.openedAt = b.now()
		b.setState(key, c, StateOpen)
	case c.state == StateClosed && c.failures >= b.threshold:
		c.openedAt = b.now()
		b.setState(key, c, StateOpen)
	}
}

// Release ends a call that produced no verdict on the upstream, such as one
// the caller abandoned. The failure run is untouched. A half-open circuit
// returns to open with its original open time, so the next Allow admits a
// new probe.
func (b *Breaker) Release(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.circuits[key]; ok && c.state == StateHalfOpen {
		b.setState(key, c, StateOpen)
	}
}

// State returns the state of key. Unknown keys are closed.
func (b *Breaker) State(key string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.circuits[key]; ok {
		return c.state
	}
	return StateClosed
}

// Failures returns the current consecutive failure count for key.
func (b *Breaker) Failures(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.circuits[key]; ok {
		return c.failures
	}
	return 0
}

// setState must be called with b.mu held.
func (b *Breaker) setState(key string, c *circuit, to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	transitionsTotal.WithLabelValues(key, from.String(), to.String()).Inc()
	if fn := b.onTransition; fn != nil {
		go fn(key, from, to)
	}
}
