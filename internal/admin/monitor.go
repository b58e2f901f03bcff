// Package admin keeps the pending moderation count fresh for admins.
package admin

import (
	"context"
	"sync"
	"time"

	"github.com/hellenika/hellenika/internal/auth"
	"github.com/hellenika/hellenika/internal/logging"
	"github.com/hellenika/hellenika/internal/model"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 30 * time.Second

// PendingSource lists unmoderated words.
type PendingSource interface {
	GetPendingWords(ctx context.Context) ([]model.Word, error)
}

// AuthSource is the auth state the monitor follows.
type AuthSource interface {
	State() auth.State
	Subscribe(fn func(auth.State)) (unsubscribe func())
}

// Monitor polls the pending word count while the signed-in user is an admin.
type Monitor struct {
	words    PendingSource
	auth     AuthSource
	interval time.Duration
	log      logging.Logger

	mu       sync.Mutex
	count    int
	polling  bool
	onChange func(count int)
}

// NewMonitor returns a monitor polling words every interval.
func NewMonitor(words PendingSource, a AuthSource, interval time.Duration, log logging.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Monitor{words: words, auth: a, interval: interval, log: log}
}

// OnChange sets a callback run after every successful fetch.
func (m *Monitor) OnChange(fn func(count int)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Count returns the last fetched pending count.  It is 0 for non-admins.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Polling reports whether a poll task is currently running.
func (m *Monitor) Polling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polling
}

// Refresh fetches the pending count now.  Callers use it after approving or
// rejecting so the count does not wait for the next tick.
func (m *Monitor) Refresh(ctx context.Context) error {
	words, err := m.words.GetPendingWords(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.count = len(words)
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(len(words))
	}
	return nil
}

// Watch follows the auth state until ctx ends.  While the user is an admin
// a poll task runs; it is cancelled and waited for as soon as the user
// stops being one.
func (m *Monitor) Watch(ctx context.Context) {
	states := make(chan auth.State, 1)
	unsubscribe := m.auth.Subscribe(func(s auth.State) {
		// Keep only the newest state; never block the publisher.
		for {
			select {
			case states <- s:
				return
			default:
			}
			select {
			case <-states:
			default:
			}
		}
	})
	defer unsubscribe()

	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	stop := func() {
		if cancel == nil {
			return
		}
		cancel()
		<-done
		cancel, done = nil, nil
		m.mu.Lock()
		m.count = 0
		m.polling = false
		m.mu.Unlock()
	}
	defer stop()

	apply := func(s auth.State) {
		switch {
		case s.IsAdmin() && cancel == nil:
			var taskCtx context.Context
			taskCtx, cancel = context.WithCancel(ctx)
			done = make(chan struct{})
			m.mu.Lock()
			m.polling = true
			m.mu.Unlock()
			go m.poll(taskCtx, done)
		case !s.IsAdmin():
			stop()
		}
	}

	apply(m.auth.State())
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-states:
			apply(s)
		}
	}
}

func (m *Monitor) poll(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
			m.log.Warnf("refresh pending count: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
