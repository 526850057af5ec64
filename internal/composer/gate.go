package composer

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long the placeholder covers the editor.
const DefaultSettleDelay = 2000 * time.Millisecond

// GateState is the readiness of the editor region.
type GateState int

const (
	Loading GateState = iota
	Ready
)

func (s GateState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// ReadyCause says what moved the gate to Ready.
type ReadyCause int

const (
	// Settled means the settling delay elapsed.
	Settled ReadyCause = iota
	// Signalled means the editor surface reported readiness first.
	Signalled
)

func (c ReadyCause) String() string {
	if c == Signalled {
		return "signalled"
	}
	return "settled"
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Gate is the editor readiness gate: Loading until the settling delay
// elapses, then Ready for good.
type Gate struct {
	mu      sync.Mutex
	state   GateState
	closed  bool
	timer   Timer
	onReady func(ReadyCause)
}

// NewGate starts a gate in Loading and arms its timer. onReady, if not nil,
// runs once on the transition, without the gate's lock held.
func NewGate(clock Clock, delay time.Duration, onReady func(ReadyCause)) *Gate {
	if clock == nil {
		clock = SystemClock
	}
	if delay <= 0 {
		delay = DefaultSettleDelay
	}

	g := &Gate{onReady: onReady}

	timer := clock.AfterFunc(delay, func() { g.transition(Settled) })
	g.mu.Lock()
	g.timer = timer
	g.mu.Unlock()

	return g
}

// State returns the current state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Ready reports whether the gate is open.
func (g *Gate) Ready() bool {
	return g.State() == Ready
}

// Signal moves the gate to Ready ahead of the timer. It reports whether this
// call performed the transition.
func (g *Gate) Signal() bool {
	return g.transition(Signalled)
}

// Close cancels the pending transition. After Close the gate never changes
// state, even if the timer callback is already running.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	if g.timer != nil {
		g.timer.Stop()
	}
}

func (g *Gate) transition(cause ReadyCause) bool {
	g.mu.Lock()
	if g.closed || g.state == Ready {
		g.mu.Unlock()
		return false
	}
	g.state = Ready
	if g.timer != nil {
		g.timer.Stop()
	}
	fn := g.onReady
	g.mu.Unlock()

	if fn != nil {
		fn(cause)
	}
	return true
}
