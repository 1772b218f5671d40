// internal/httpserver/routes_operator.go
//
// The operator (game-master) console, mounted under /operator.
// Endpoints:
//   - POST /operator/login    → verify credentials, issue JWT cookie
//   - GET  /operator/session  → full session snapshot (gated)
//   - GET  /operator/attempts → recent attempt audit rows (gated)
//   - POST /operator/reset    → abandon the current session (gated)
//
// The operator account is bootstrapped from OPERATOR_USER and
// OPERATOR_PASSWORD at startup; with no password configured the console
// stays mounted but every login fails.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// mountOperator bootstraps the operator account and registers routes.
func (s *Server) mountOperator() {
	s.ensureOperator()

	s.r.Route("/operator", func(r chi.Router) {
		r.Post("/login", s.handleOperatorLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireOperator())
			r.Get("/session", s.handleOperatorSession)
			r.Get("/attempts", s.handleOperatorAttempts)
			r.Post("/reset", s.handleOperatorReset)
		})
	})
}

// ensureOperator upserts the configured operator credentials.
func (s *Server) ensureOperator() {
	if s.db == nil {
		return
	}
	user := getEnv("OPERATOR_USER", "operator")
	pass := os.Getenv("OPERATOR_PASSWORD")
	if pass == "" {
		log.Warn().Msg("OPERATOR_PASSWORD not set; operator console logins disabled")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("hash operator password")
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`INSERT INTO operators (username, password_hash, created_at) VALUES (?,?,?)
	                        ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash`,
		user, string(hash), now); err != nil {
		log.Error().Err(err).Msg("upsert operator")
	}
}

// loginReq is the operator credential payload.
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleOperatorLogin verifies credentials and sets the auth cookie.
func (s *Server) handleOperatorLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	hash, err := s.operatorHash(strings.TrimSpace(body.Username))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := signOperatorJWT(strings.TrimSpace(body.Username))
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, tok, exp)
	_ = json.NewEncoder(w).Encode(map[string]any{"username": body.Username, "token": tok})
}

// handleOperatorSession mirrors GET /session for the console.
func (s *Server) handleOperatorSession(w http.ResponseWriter, r *http.Request) {
	s.handleSession(w, r)
}

// handleOperatorReset abandons the current session entirely.
func (s *Server) handleOperatorReset(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Reset(r.Context()); err != nil {
		log.Error().Err(err).Msg("reset session")
		http.Error(w, `{"error":"reset_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Msg("session reset by operator")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleOperatorAttempts returns the most recent audit rows.
func (s *Server) handleOperatorAttempts(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		_ = json.NewEncoder(w).Encode([]any{})
		return
	}
	rows, err := s.db.Query(`SELECT id, card_id, verdict, created_at
	                         FROM attempts ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type attemptRow struct {
		ID        string `json:"id"`
		CardID    int    `json:"cardId"`
		Verdict   string `json:"verdict"`
		CreatedAt string `json:"createdAt"`
	}
	out := []attemptRow{}
	for rows.Next() {
		var a attemptRow
		if err := rows.Scan(&a.ID, &a.CardID, &a.Verdict, &a.CreatedAt); err == nil {
			out = append(out, a)
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}

// operatorHash loads the stored bcrypt hash for a username.
func (s *Server) operatorHash(username string) (string, error) {
	if s.db == nil {
		return "", sql.ErrNoRows
	}
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM operators WHERE lower(username)=lower(?)`, username).Scan(&hash)
	return hash, err
}

// ---------------------------- auth middleware ------------------------------

// ctxOperatorKey is the context key type for the authenticated operator.
type ctxOperatorKey struct{}

// requireOperator enforces a valid JWT and injects the operator name.
func (s *Server) requireOperator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			username, _ := claims["username"].(string)
			if username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure the operator account still exists
			if _, err := s.operatorHash(username); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxOperatorKey{}, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------ JWT & cookies ------------------------------

// signOperatorJWT creates an HS256 JWT with a configurable expiry
// (OPERATOR_JWT_EXPIRES_HOURS; default 12, one shift).
func signOperatorJWT(username string) (string, time.Time, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	hours := 12
	if v := os.Getenv("OPERATOR_JWT_EXPIRES_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hours = n
		}
	}
	exp := time.Now().Add(time.Duration(hours) * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "escaperoom_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "escaperoom_token")); err == nil {
		return c.Value
	}
	return ""
}
