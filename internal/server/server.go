package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clanwake/internal/gate"
	"clanwake/internal/metrics"
	"clanwake/internal/models"
)

const defaultHistoryLimit = 200

// History exposes recorded keep-warm rounds.
type History interface {
	Latest() (models.WakeEntry, bool)
	HistoryN(n int) []models.WakeEntry
}

// Feed delivers keep-warm rounds as they are recorded.
type Feed interface {
	Subscribe() (<-chan models.WakeEntry, func())
}

// Server wraps HTTP serving of the readiness API.
type Server struct {
	httpServer   *http.Server
	history      History
	feed         Feed
	gate         *gate.Gate
	log          *zap.Logger
	historyLimit int
}

// New creates a configured HTTP server. feed may be nil when keep-warm is off.
func New(addr string, history History, feed Feed, g *gate.Gate, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:   &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		history:      history,
		feed:         feed,
		gate:         g,
		log:          log,
		historyLimit: defaultHistoryLimit,
	}
	s.registerRoutes(mux)
	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/ping", s.handlePing)
	mux.HandleFunc("/api/gate", s.handleGate)
	mux.HandleFunc("/api/status", s.handleLatest)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/readiness", s.handleReadiness)
	mux.HandleFunc("/api/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
}

// handlePing answers our own heartbeat so clanwake can itself be probed.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "pong")
}

func (s *Server) handleGate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gateStatus())
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	entry, ok := s.history.Latest()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"timestamp": nil,
			"checks":    []models.WakeCheck{},
		})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.history.HistoryN(limit))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	summary := metrics.ComputeReadiness(s.history.HistoryN(limit))
	if summary == nil {
		summary = []metrics.TargetReadiness{}
	}
	writeJSON(w, http.StatusOK, summary)
}

// gateStatus is the JSON view of the startup gate.
type gateStatus struct {
	Resolved  bool   `json:"resolved"`
	Ready     bool   `json:"ready"`
	Abandoned bool   `json:"abandoned,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Body      any    `json:"body,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) gateStatus() gateStatus {
	if s.gate == nil {
		return gateStatus{}
	}
	out, ok := s.gate.Outcome()
	if !ok {
		return gateStatus{}
	}
	status := gateStatus{
		Resolved:  true,
		Ready:     out.Ready,
		Abandoned: out.Abandoned,
		Attempts:  out.Attempts,
		ElapsedMS: out.Elapsed.Milliseconds(),
	}
	if out.Ready {
		status.Kind = string(out.Result.Kind)
		status.Body = out.Result.Value
	}
	if out.Err != nil {
		status.Error = out.Err.Error()
	}
	return status
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
