package liveness

import (
	"sync"
	"time"
)

// State is the liveness state of a monitored connection
type State int

const (
	StateAlive State = iota
	StateAwaitingPong
	StateDead
	StateStopped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateAwaitingPong:
		return "awaiting_pong"
	case StateDead:
		return "dead"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Transport is the minimal probe surface the monitor needs from a
// connection: send a ping and force the transport closed.
type Transport interface {
	WritePing(deadline time.Time) error
	ForceClose() error
}

// Monitor probes one connection for liveness.
type Monitor struct {
	transport     Transport
	probeInterval time.Duration
	ackWait       time.Duration
	onDead        func()

	mu         sync.Mutex
	state      State
	lastPongAt time.Time
	deathTimer *time.Timer
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewMonitor creates a monitor for the given transport. onDead runs exactly
// once, after the transport has been force-closed, when the ack wait
// expires or a probe write fails.
func NewMonitor(transport Transport, probeInterval, ackWait time.Duration, onDead func()) *Monitor {
	return &Monitor{
		transport:     transport,
		probeInterval: probeInterval,
		ackWait:       ackWait,
		onDead:        onDead,
		state:         StateAlive,
		lastPongAt:    time.Now(),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the probe loop in its own goroutine.
func (m *Monitor) Start() {
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe()
		case <-m.stopCh:
			return
		}
	}
}

// probe sends a ping and arms the bounded ack wait.
func (m *Monitor) probe() {
	m.mu.Lock()
	if m.state != StateAlive {
		m.mu.Unlock()
		return
	}
	m.state = StateAwaitingPong
	m.deathTimer = time.AfterFunc(m.ackWait, m.expire)
	m.mu.Unlock()

	if err := m.transport.WritePing(time.Now().Add(m.ackWait)); err != nil {
		// The probe never left: the connection is as good as dead and
		// waiting out the ack timer would only delay the reap.
		m.expire()
	}
}

// Pong records a heartbeat acknowledgment, cancelling the pending wait.
// Pongs arriving after the Dead transition are ignored.
func (m *Monitor) Pong() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingPong {
		return
	}
	if m.deathTimer != nil {
		m.deathTimer.Stop()
		m.deathTimer = nil
	}
	m.state = StateAlive
	m.lastPongAt = time.Now()
}

// expire moves the connection to Dead, stops probing, force-closes the
// transport and fires the death callback. Dead is terminal. Only an
// unresolved wait expires: if a pong won the race for the lock and already
// returned the state to Alive, the late expiry is ignored.
func (m *Monitor) expire() {
	m.mu.Lock()
	if m.state != StateAwaitingPong {
		m.mu.Unlock()
		return
	}
	m.state = StateDead
	if m.deathTimer != nil {
		m.deathTimer.Stop()
		m.deathTimer = nil
	}
	m.mu.Unlock()

	m.stopOnce.Do(func() { close(m.stopCh) })
	m.transport.ForceClose()
	if m.onDead != nil {
		m.onDead()
	}
}

// Stop cancels probing without marking the connection dead. Used on normal
// teardown; safe to call more than once and after a Dead transition.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state != StateDead {
		m.state = StateStopped
	}
	if m.deathTimer != nil {
		m.deathTimer.Stop()
		m.deathTimer = nil
	}
	m.mu.Unlock()

	m.stopOnce.Do(func() { close(m.stopCh) })
}

// State returns the current liveness state
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastPongAt returns the time of the last acknowledged probe
func (m *Monitor) LastPongAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPongAt
}
