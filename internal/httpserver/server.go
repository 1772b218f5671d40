// internal/httpserver/server.go
//
// HTTP wiring for the escape-room backend. This is the presentation
// boundary: the front-of-house client renders forms and messages, the
// engine decides everything.
//
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Session endpoints: GET /session, POST /session/start, POST /session/resume.
//   - Card endpoints: POST /card/open, POST /card/submit.
//   - Countdown ticker (WebSocket): GET /session/ticker.
//   - Operator console (JWT-gated): mounted under /operator.
//   - Best-effort attempt audit rows in SQLite.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Player endpoints are unauthenticated: the physical room is the
//     access control. Only the operator console takes credentials.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/escaperoom/go-server/internal/card"
	"github.com/robalobadob/escaperoom/go-server/internal/engine"
)

// Server bundles router, progression engine, and DB handle.
type Server struct {
	r   *chi.Mux
	eng *engine.Engine
	db  *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(eng *engine.Engine, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), eng: eng, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"escaperoom-go","endpoints":["/health","GET /session","POST /session/start","POST /card/open","POST /card/submit","/operator/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Session lifecycle
	s.r.Get("/session", s.handleSession)
	s.r.Post("/session/start", s.handleStart)
	s.r.Post("/session/resume", s.handleResume)
	s.r.Get("/session/ticker", s.handleTicker)

	// Card actions
	s.r.Post("/card/open", s.handleOpen)
	s.r.Post("/card/submit", s.handleSubmit)

	// Operator console (JWT-gated)
	s.mountOperator()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ----------------------------- SESSION -------------------------------------

// sessionRes is the display snapshot plus, before the game starts,
// whether a crashed session is waiting to be resumed.
type sessionRes struct {
	Phase            string         `json:"phase"`
	RemainingSeconds int            `json:"remainingSeconds"`
	TimedOut         bool           `json:"timedOut"`
	BudgetMinutes    int            `json:"budgetMinutes"`
	Submitted        []int          `json:"submitted"`
	Resumable        *resumableInfo `json:"resumable,omitempty"`
}

type resumableInfo struct {
	StartedAt     int64 `json:"startedAt"` // epoch millis
	BudgetMinutes int   `json:"budgetMinutes"`
	Submitted     []int `json:"submitted"`
}

// handleSession reports the current session snapshot.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	st := s.eng.Status()
	res := sessionRes{
		Phase:            string(st.Phase),
		RemainingSeconds: st.RemainingSeconds,
		TimedOut:         st.TimedOut,
		BudgetMinutes:    st.BudgetMinutes,
		Submitted:        st.Submitted,
	}
	if rec, ok, err := s.eng.Resumable(r.Context()); err == nil && ok {
		res.Resumable = &resumableInfo{
			StartedAt:     rec.StartedAt.UnixMilli(),
			BudgetMinutes: rec.BudgetMinutes,
			Submitted:     rec.Submitted,
		}
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleStart begins a fresh game. Resuming is a separate, explicit act.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.StartGame(r.Context()); err != nil {
		log.Error().Err(err).Msg("start game")
		http.Error(w, `{"error":"start_failed"}`, http.StatusInternalServerError)
		return
	}
	st := s.eng.Status()
	_ = json.NewEncoder(w).Encode(sessionRes{
		Phase:            string(st.Phase),
		RemainingSeconds: st.RemainingSeconds,
		BudgetMinutes:    st.BudgetMinutes,
		Submitted:        st.Submitted,
	})
}

// resumeReq is the operator's answer to the resume prompt.
type resumeReq struct {
	Accept bool `json:"accept"`
}

// handleResume accepts or declines a resumable record.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var req resumeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.eng.Resume(r.Context(), req.Accept); err != nil {
		if errors.Is(err, engine.ErrNoRecord) {
			http.Error(w, `{"error":"no_resumable_session"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("resume session")
		http.Error(w, `{"error":"resume_failed"}`, http.StatusInternalServerError)
		return
	}
	st := s.eng.Status()
	_ = json.NewEncoder(w).Encode(sessionRes{
		Phase:            string(st.Phase),
		RemainingSeconds: st.RemainingSeconds,
		TimedOut:         st.TimedOut,
		BudgetMinutes:    st.BudgetMinutes,
		Submitted:        st.Submitted,
	})
}

// ------------------------------ CARDS ---------------------------------------

// openReq/Res payloads for POST /card/open.
type openReq struct {
	ID int `json:"id"`
}
type openRes struct {
	CardID       int    `json:"cardId"`
	Kind         string `json:"kind"` // "numeric" | "image"
	Fields       int    `json:"fields"`
	Min          int    `json:"min,omitempty"`
	Max          int    `json:"max,omitempty"` // -1 = no limit
	ImageSet     string `json:"imageSet,omitempty"`
	ImageCount   int    `json:"imageCount,omitempty"`
	Instructions string `json:"instructions"`
}

// handleOpen authorizes a card and returns its form shape for rendering.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.eng.OpenCard(req.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := openRes{
		CardID:       res.CardID,
		Kind:         string(res.Input.Kind),
		Fields:       res.Input.Fields,
		Instructions: res.Instructions,
	}
	switch res.Input.Kind {
	case card.KindNumeric:
		out.Min, out.Max = res.Input.Min, res.Input.Max
	case card.KindImage:
		out.ImageSet, out.ImageCount = res.Input.ImageSet, res.Input.ImageCount
	}
	_ = json.NewEncoder(w).Encode(out)
}

// submitReq/Res payloads for POST /card/submit.
type submitReq struct {
	ID     int      `json:"id"`
	Values []string `json:"values"`
}
type submitRes struct {
	Verdict          string   `json:"verdict"` // "correct" | "incorrect" | "incomplete"
	Message          string   `json:"message"`
	Collect          []string `json:"collect,omitempty"`
	Discard          []int    `json:"discard,omitempty"`
	Final            bool     `json:"final,omitempty"`
	TimedOut         bool     `json:"timedOut,omitempty"`
	RemainingSeconds int      `json:"remainingSeconds"`
}

// handleSubmit judges a submission and reports the outcome plus the
// post-verdict clock (penalties already applied).
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.eng.Submit(r.Context(), req.ID, req.Values)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.auditAttempt(req.ID, string(res.Verdict))
	remaining := 0
	if !res.Final {
		// Post-verdict clock: penalties already applied.
		remaining = s.eng.Status().RemainingSeconds
	}
	_ = json.NewEncoder(w).Encode(submitRes{
		Verdict:          string(res.Verdict),
		Message:          res.Message,
		Collect:          res.Collect,
		Discard:          res.Discard,
		Final:            res.Final,
		TimedOut:         res.TimedOut,
		RemainingSeconds: remaining,
	})
}

// auditAttempt records every judged submission (best effort, non-fatal).
func (s *Server) auditAttempt(cardID int, verdict string) {
	if s.db == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`INSERT INTO attempts (id, card_id, verdict, created_at) VALUES (?,?,?,?)`,
		uuid.NewString(), cardID, verdict, now); err != nil {
		log.Warn().Err(err).Int("card", cardID).Msg("insert attempt row")
	}
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Everything here is a player mistake, reported and recovered locally.
func writeEngineError(w http.ResponseWriter, err error) {
	var denied *engine.DeniedError
	switch {
	case errors.As(err, &denied):
		http.Error(w, `{"error":"dependency_denied","message":`+jsonString(denied.Message)+`}`, http.StatusForbidden)
	case errors.Is(err, engine.ErrCardNotFound):
		http.Error(w, `{"error":"card_not_found","message":"Please enter a valid card number"}`, http.StatusNotFound)
	case errors.Is(err, engine.ErrNotStarted):
		http.Error(w, `{"error":"not_started","message":"Start the game first"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("engine error")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// jsonString safely quotes a message for the hand-built error bodies.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
