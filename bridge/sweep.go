package bridge

import (
	"context"
	"time"
)

// sweepInterval is how often idle sessions are looked for.
const sweepInterval = 5 * time.Second

// StartSweeper closes sessions that relayed nothing for longer than idle.
// It runs until ctx is done and is a no-op when already started or when
// idle is zero.
func (m *Manager) StartSweeper(ctx context.Context, idle time.Duration, now func() time.Time) {
	m.mu.Lock()
	if m.sweeperStarted || idle <= 0 {
		m.mu.Unlock()
		return
	}
	m.sweeperStarted = true
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(now(), idle)
			}
		}
	}()
}

// sweep closes every session idle since before now-idle and returns how
// many it closed.
func (m *Manager) sweep(now time.Time, idle time.Duration) int {
	closed := 0
	for _, s := range m.List() {
		if now.Sub(s.stats.LastActive()) > idle {
			s.Close()
			closed++
		}
	}
	return closed
}
