package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes returns the HTTP surface of the bridge:
//
//	GET    /ws                    websocket relay
//	GET    /healthz               liveness
//	GET    /metrics               prometheus
//	GET    /admin/sessions        live sessions with traffic counters
//	DELETE /admin/sessions/{id}   close one session
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.HandleWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	if s.cfg.Admin {
		r.Route("/admin/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Delete("/{id}", s.handleCloseSession)
		})
	}
	return r
}

type sessionInfo struct {
	ID         string         `json:"id"`
	RemoteAddr string         `json:"remote_addr"`
	Upstream   string         `json:"upstream"`
	StartedAt  time.Time      `json:"started_at"`
	Stats      map[string]any `json:"stats"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list := s.manager.List()
	out := make([]sessionInfo, 0, len(list))
	for _, sess := range list {
		out = append(out, sessionInfo{
			ID:         sess.ID,
			RemoteAddr: sess.RemoteAddr,
			Upstream:   sess.Upstream,
			StartedAt:  sess.StartedAt,
			Stats:      sess.stats.Snapshot(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"sessions": out})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}
	sess.Close()
	s.log.Infow("session closed by admin", "session", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
