// internal/httpserver/ticker.go
//
// WebSocket countdown ticker for the room's wall display. Pushes the
// recomputed remaining time twice a second. The display never computes
// time itself, it only renders what the engine reports.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/escaperoom/go-server/internal/session"
)

// tickInterval matches the engine's own countdown poll granularity.
const tickInterval = 500 * time.Millisecond

// upgrader allows the configured client origin (same check as CORS).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	},
}

// tickMsg is one display frame.
type tickMsg struct {
	Phase            string `json:"phase"`
	RemainingSeconds int    `json:"remainingSeconds"`
	TimedOut         bool   `json:"timedOut"`
}

// handleTicker upgrades the connection and streams display frames until
// the client disconnects or the timer stops.
func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ticker upgrade")
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for range t.C {
		st := s.eng.Status()
		msg := tickMsg{
			Phase:            string(st.Phase),
			RemainingSeconds: st.RemainingSeconds,
			TimedOut:         st.TimedOut,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
		if st.Phase == session.PhaseStopped {
			return
		}
	}
}
