package bridge

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionStats counts the traffic of one session.
type SessionStats struct {
	FramesUp      int64
	FramesDown    int64
	BytesUp       int64
	BytesDown     int64
	InvalidFrames int64
	lastActive    int64 // unix nanos
}

func (s *SessionStats) addUp(n int, now time.Time) {
	atomic.AddInt64(&s.FramesUp, 1)
	atomic.AddInt64(&s.BytesUp, int64(n))
	s.touch(now)
}

func (s *SessionStats) addDown(n int, now time.Time) {
	atomic.AddInt64(&s.FramesDown, 1)
	atomic.AddInt64(&s.BytesDown, int64(n))
	s.touch(now)
}

func (s *SessionStats) incInvalid() { atomic.AddInt64(&s.InvalidFrames, 1) }

func (s *SessionStats) touch(now time.Time) { atomic.StoreInt64(&s.lastActive, now.UnixNano()) }

// LastActive is the time of the last relayed frame in either direction.
func (s *SessionStats) LastActive() time.Time {
	return time.Unix(0, atomic.LoadInt64(&s.lastActive))
}

// Snapshot returns a read-only copy for the admin API.
func (s *SessionStats) Snapshot() map[string]any {
	return map[string]any{
		"frames_up":      atomic.LoadInt64(&s.FramesUp),
		"frames_down":    atomic.LoadInt64(&s.FramesDown),
		"bytes_up":       atomic.LoadInt64(&s.BytesUp),
		"bytes_down":     atomic.LoadInt64(&s.BytesDown),
		"invalid_frames": atomic.LoadInt64(&s.InvalidFrames),
		"last_active":    s.LastActive().UTC().Format(time.RFC3339),
	}
}

// Metrics are the process-wide bridge collectors.
type Metrics struct {
	sessionsOpened prometheus.Counter
	sessionsClosed *prometheus.CounterVec
	activeSessions prometheus.Gauge
	frames         *prometheus.CounterVec
	bytes          *prometheus.CounterVec
	invalidFrames  prometheus.Counter
	dialErrors     prometheus.Counter
}

// NewMetrics registers the bridge collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "sessions_opened_total",
			Help:      "Websocket sessions accepted",
		}),
		sessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "sessions_closed_total",
			Help:      "Websocket sessions ended, by reason",
		}, []string{"reason"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "active_sessions",
			Help:      "Sessions currently relaying",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "frames_total",
			Help:      "Relayed frames by direction",
		}, []string{"direction"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "bytes_total",
			Help:      "Relayed frame bytes by direction",
		}, []string{"direction"}),
		invalidFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "invalid_frames_total",
			Help:      "Client messages dropped for a bad length prefix",
		}),
		dialErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "bridge",
			Name:      "upstream_dial_errors_total",
			Help:      "Failed upstream connection attempts",
		}),
	}
}

func (m *Metrics) frame(direction string, n int) {
	m.frames.WithLabelValues(direction).Inc()
	m.bytes.WithLabelValues(direction).Add(float64(n))
}
