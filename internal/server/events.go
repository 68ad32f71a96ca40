package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clanwake/internal/models"
)

const eventsWriteTimeout = 5 * time.Second

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// Event types pushed over /api/ws.
const (
	EventSnapshot = "snapshot"
	EventGate     = "gate"
	EventWake     = "wake"
)

type event struct {
	Type  string            `json:"type"`
	Gate  *gateStatus       `json:"gate,omitempty"`
	Entry *models.WakeEntry `json:"entry,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.serveEvents(conn)
}

// serveEvents sends a snapshot, the gate resolution once it happens, then
// every keep-warm round until the client goes away.
func (s *Server) serveEvents(conn *websocket.Conn) {
	defer conn.Close()

	var entries <-chan models.WakeEntry
	if s.feed != nil {
		ch, unsubscribe := s.feed.Subscribe()
		defer unsubscribe()
		entries = ch
	}

	if err := writeEvent(conn, s.snapshotEvent()); err != nil {
		return
	}

	var gateDone <-chan struct{}
	if s.gate != nil {
		if _, resolved := s.gate.Outcome(); !resolved {
			gateDone = s.gate.Done()
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gateDone:
			gateDone = nil
			status := s.gateStatus()
			if err := writeEvent(conn, event{Type: EventGate, Gate: &status}); err != nil {
				return
			}
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := writeEvent(conn, event{Type: EventWake, Entry: &entry}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) snapshotEvent() event {
	status := s.gateStatus()
	ev := event{Type: EventSnapshot, Gate: &status}
	if latest, ok := s.history.Latest(); ok {
		ev.Entry = &latest
	}
	return ev
}

func writeEvent(conn *websocket.Conn, payload event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
	return conn.WriteJSON(payload)
}
