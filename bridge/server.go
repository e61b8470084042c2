package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// ErrInvalidFrame marks a client message whose length prefix does not
// match its size.
var ErrInvalidFrame = errors.New("invalid frame")

// Config controls the relay.
type Config struct {
	Upstream     string
	MaxFrame     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
	IdleTimeout  time.Duration
	Admin        bool
}

// Server accepts websocket clients and relays each one to its own TCP
// connection to the game server. Client messages already carry the
// two-byte length prefix and go upstream unchanged; upstream frames go
// down one per binary message with the prefix removed.
type Server struct {
	cfg      Config
	manager  *Manager
	metrics  *Metrics
	gatherer prometheus.Gatherer
	log      *zap.SugaredLogger
	now      func() time.Time
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewServer builds a server whose metrics live in reg.
func NewServer(cfg Config, reg *prometheus.Registry, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = protocol.MaxFrameLength
	}
	ctx, cancel := context.WithCancel(context.Background())
	nd := &net.Dialer{Timeout: cfg.DialTimeout}
	return &Server{
		cfg:      cfg,
		manager:  NewManager(),
		metrics:  NewMetrics(reg),
		gatherer: reg,
		log:      log,
		now:      time.Now,
		dial:     nd.DialContext,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Manager exposes the session registry.
func (s *Server) Manager() *Manager { return s.manager }

// Start launches background work: the idle sweeper.
func (s *Server) Start() {
	s.manager.StartSweeper(s.ctx, s.cfg.IdleTimeout, s.now)
}

// Close ends every session and waits for the relays to finish. Requests
// arriving afterwards are refused.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.manager.CloseAll()
	s.wg.Wait()
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes()}
	s.Start()

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("bridge listening on %s, upstream %s", addr, s.cfg.Upstream)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.log.Info("bridge shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// HandleWS upgrades the request, dials the upstream and relays until
// either side closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "bridge shutting down", http.StatusServiceUnavailable)
		return
	}
	relaying := false
	defer func() {
		if !relaying {
			s.wg.Done()
		}
	}()

	up, err := s.dial(r.Context(), "tcp", s.cfg.Upstream)
	if err != nil {
		s.metrics.dialErrors.Inc()
		s.log.Warnw("upstream dial failed", "upstream", s.cfg.Upstream, "err", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = up.Close()
		s.log.Warnw("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	sess := s.manager.Add(r.RemoteAddr, s.cfg.Upstream, cancel, s.now())
	s.metrics.sessionsOpened.Inc()
	s.metrics.activeSessions.Inc()
	s.log.Infow("session opened", "session", sess.ID, "remote", r.RemoteAddr)

	relaying = true
	go func() {
		defer s.wg.Done()
		defer cancel()
		err := s.relay(ctx, sess, newClientConn(ws, s.cfg.ReadTimeout, s.cfg.WriteTimeout), up)
		s.manager.Remove(sess.ID)
		s.metrics.activeSessions.Dec()
		reason := closeReason(err)
		s.metrics.sessionsClosed.WithLabelValues(reason).Inc()
		s.log.Infow("session closed", "session", sess.ID, "reason", reason, "err", err,
			"stats", sess.stats.Snapshot())
	}()
}

// track registers a handler with the wait group unless Close has run.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// relay runs the session goroutines. The first to fail tears the
// whole session down.
func (s *Server) relay(ctx context.Context, sess *Session, c *ClientConn, up net.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		c.close()
		_ = up.Close()
		return gctx.Err()
	})

	// Upstream read errors close the queue rather than fail the group so
	// writePump can flush pending frames and send a close frame first.
	g.Go(func() error {
		defer close(c.send)
		for {
			frame, err := protocol.ReadFrame(up, s.cfg.MaxFrame)
			if err != nil {
				if !errors.Is(err, io.EOF) && gctx.Err() == nil {
					s.log.Warnw("upstream read failed", "session", sess.ID, "err", err)
				}
				return nil
			}
			sess.stats.addDown(len(frame), s.now())
			s.metrics.frame("down", len(frame))
			if err := c.enqueue(frame); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		return c.writePump(gctx)
	})

	g.Go(func() error {
		return c.readPump(s.cfg.MaxFrame+2, func(msg []byte) error {
			if err := checkPrefixed(msg); err != nil {
				sess.stats.incInvalid()
				s.metrics.invalidFrames.Inc()
				s.log.Warnw("client message dropped", "session", sess.ID, "err", err)
				return nil
			}
			sess.stats.addUp(len(msg)-2, s.now())
			s.metrics.frame("up", len(msg)-2)
			if s.cfg.WriteTimeout > 0 {
				_ = up.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			}
			if _, err := up.Write(msg); err != nil {
				return fmt.Errorf("upstream write: %w", err)
			}
			return nil
		})
	})

	return g.Wait()
}

// checkPrefixed verifies that msg is exactly one length-prefixed frame.
func checkPrefixed(msg []byte) error {
	if len(msg) < 4 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidFrame, len(msg))
	}
	if n := protocol.DecodeNumber(msg[:2]); n != len(msg)-2 {
		return fmt.Errorf("%w: prefix says %d, have %d", ErrInvalidFrame, n, len(msg)-2)
	}
	return nil
}

func closeReason(err error) string {
	switch {
	case errors.Is(err, errClosed), errors.Is(err, io.EOF):
		return "closed"
	case errors.Is(err, errSlowConsumer):
		return "slow_consumer"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
