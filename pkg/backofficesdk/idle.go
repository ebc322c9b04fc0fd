package backofficesdk

import (
	"sync"
	"time"

	"github.com/kantorkita/backoffice/pkg/clockx"
)

// IdleConfig configures inactivity detection.
type IdleConfig struct {
	// IdleTimeout is how long without activity before the warning fires.
	IdleTimeout time.Duration

	// WarningGrace is how long after the warning before logout is forced.
	WarningGrace time.Duration

	// OnWarning fires when IdleTimeout elapses without activity. It must not
	// block; activity detection keeps running during the warning period.
	OnWarning func()

	// OnTimeout fires when WarningGrace also elapses without activity.
	// It fires at most once per monitor.
	OnTimeout func()
}

type idleState int

const (
	idleArmed idleState = iota
	warningArmed
	idleStopped
)

// IdleMonitor is a two-state inactivity timer: idle-armed, then
// warning-armed, then a single forced timeout. Any activity signal returns
// it to idle-armed with the full timeout ahead.
type IdleMonitor struct {
	clock clockx.Clock
	cfg   IdleConfig

	mu        sync.Mutex
	state     idleState
	idleTimer clockx.Timer
	warnTimer clockx.Timer
}

// NewIdleMonitor starts inactivity detection immediately.
func NewIdleMonitor(clock clockx.Clock, cfg IdleConfig) *IdleMonitor {
	m := &IdleMonitor{
		clock: clock,
		cfg:   cfg,
		state: idleArmed,
	}
	m.idleTimer = clock.AfterFunc(cfg.IdleTimeout, m.idleExpired)
	return m
}

// Activity resets inactivity detection. During the warning period it cancels
// the pending forced logout and re-arms the idle timer from zero.
func (m *IdleMonitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case idleArmed:
		m.idleTimer.Reset(m.cfg.IdleTimeout)
	case warningArmed:
		m.warnTimer.Stop()
		m.state = idleArmed
		m.idleTimer.Reset(m.cfg.IdleTimeout)
	case idleStopped:
		// Session already ended; nothing to re-arm.
	}
}

// Stop cancels both timers. The monitor cannot be re-armed afterwards.
func (m *IdleMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = idleStopped
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	if m.warnTimer != nil {
		m.warnTimer.Stop()
	}
}

func (m *IdleMonitor) idleExpired() {
	m.mu.Lock()
	if m.state != idleArmed {
		m.mu.Unlock()
		return
	}
	m.state = warningArmed
	if m.warnTimer == nil {
		m.warnTimer = m.clock.AfterFunc(m.cfg.WarningGrace, m.warningExpired)
	} else {
		m.warnTimer.Reset(m.cfg.WarningGrace)
	}
	onWarning := m.cfg.OnWarning
	m.mu.Unlock()

	if onWarning != nil {
		onWarning()
	}
}

func (m *IdleMonitor) warningExpired() {
	m.mu.Lock()
	if m.state != warningArmed {
		m.mu.Unlock()
		return
	}
	m.state = idleStopped
	m.idleTimer.Stop()
	onTimeout := m.cfg.OnTimeout
	m.mu.Unlock()

	if onTimeout != nil {
		onTimeout()
	}
}
