// Package handshake implements the authentication state machine that gates
// whether audio may be sent to the transcription server.
package handshake

import (
	"sync"
	"time"

	"github.com/whisperdoc/dictation-shell/internal/telemetry"
)

// State is a handshake lifecycle stage.
type State int

const (
	// Locked is the initial state: no handshake has been initiated.
	Locked State = iota
	// Authenticating means a hello frame was sent and a response is pending.
	Authenticating
	// Authenticated means the server accepted the hello; audio may flow.
	Authenticated
	// Failed means authentication failed or the handshake timed out.
	Failed
	// Banned means the server closed the connection with a ban code.
	Banned
)

func (s State) String() string {
	switch s {
	case Locked:
		return "LOCKED"
	case Authenticating:
		return "AUTHENTICATING"
	case Authenticated:
		return "AUTHENTICATED"
	case Failed:
		return "FAILED"
	case Banned:
		return "BANNED"
	default:
		return "UNKNOWN"
	}
}

// DefaultTimeout is how long the machine waits in Authenticating before
// forcing a transition to Failed.
const DefaultTimeout = 15 * time.Second

// Listener is notified after every state change, with the new state.
type Listener func(State)

// Machine is the handshake state machine. It is safe for concurrent use;
// listeners and the timeout goroutine run without holding the internal lock.
type Machine struct {
	mu        sync.Mutex
	state     State
	timeout   time.Duration
	timer     *time.Timer
	listeners []Listener
	log       telemetry.Logger
}

// New builds a Machine in the Locked state with the given timeout. A zero
// timeout defaults to DefaultTimeout. A nil logger is replaced with a no-op.
func New(timeout time.Duration, log telemetry.Logger) *Machine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}
	return &Machine{
		state:   Locked,
		timeout: timeout,
		log:     log,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CanSendAudio reports whether the machine is Authenticated.
func (m *Machine) CanSendAudio() bool {
	return m.State() == Authenticated
}

// AddListener registers a callback invoked, in registration order, after
// every successful transition.
func (m *Machine) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// TransitionTo attempts to move the machine to newState. Invalid transitions
// are logged and ignored. Transitioning to the current state is a no-op.
func (m *Machine) TransitionTo(newState State) {
	m.mu.Lock()

	if m.state == newState {
		m.mu.Unlock()
		return
	}

	if !isValidTransition(m.state, newState) {
		m.log.Warn("invalid handshake transition: %s -> %s", m.state, newState)
		m.mu.Unlock()
		return
	}

	m.log.Info("handshake state: %s -> %s", m.state, newState)
	m.state = newState

	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)

	if newState == Authenticating {
		m.armTimeoutLocked()
	} else {
		m.cancelTimeoutLocked()
	}

	m.mu.Unlock()

	for _, l := range listeners {
		l(newState)
	}
}

// Reset cancels any pending timeout and returns the machine to Locked from
// any state, notifying listeners if the state changed.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.cancelTimeoutLocked()
	if m.state == Locked {
		m.mu.Unlock()
		return
	}
	m.log.Info("handshake state: %s -> %s", m.state, Locked)
	m.state = Locked
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l(Locked)
	}
}

func (m *Machine) armTimeoutLocked() {
	m.cancelTimeoutLocked()
	m.timer = time.AfterFunc(m.timeout, func() {
		m.mu.Lock()
		stillAuthenticating := m.state == Authenticating
		m.mu.Unlock()
		if stillAuthenticating {
			m.log.Warn("handshake timeout: no response from server after %s", m.timeout)
			m.TransitionTo(Failed)
		}
	})
}

func (m *Machine) cancelTimeoutLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func isValidTransition(from, to State) bool {
	if to == Banned {
		return true
	}
	switch from {
	case Locked:
		return to == Authenticating || to == Failed
	case Authenticating:
		return to == Authenticated || to == Failed
	case Authenticated:
		return to == Locked
	case Failed:
		return to == Locked
	case Banned:
		return to == Locked
	default:
		return false
	}
}
