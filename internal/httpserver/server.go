// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the MatchDay Guesser backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/teams", "/debug/refdata".
//   - Play endpoints (device-scoped): mounted under the device middleware.
//   - Device identity: a long-lived signed cookie identifying the browser,
//     so per-date progress survives across requests without user accounts.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the device cookie works).
//   - The device middleware mints a token on first contact and verifies it on
//     every later request; a tampered token is replaced, not rejected.

package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/store"
)

// Server bundles the router and the persistence adapter.
type Server struct {
	r  *chi.Mux
	st store.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store) *Server {
	s := &Server{r: chi.NewRouter(), st: st}

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
		_, _ = w.Write([]byte(`{"service":"matchday-go","endpoints":["/health","/teams","GET /match","GET /state","POST /guess","GET /archive","GET /share","/settings"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Team table for the guess form.
	s.r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(refdata.ListTeams())
	})

	// Play endpoints — every route is scoped to the device cookie.
	s.mountPlay(s.r.With(s.withDevice()))

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: reference table counts
	s.r.Get("/debug/refdata", func(w http.ResponseWriter, r *http.Request) {
		t, m := refdata.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"teams": t, "matches": m})
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
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------------------------- device identity -------------------------------

const deviceCookieName = "matchday_device"

// ctxDeviceKey is the context key type for the device identifier.
type ctxDeviceKey struct{}

// withDevice ensures every request carries a stable device identifier.
// A valid signed cookie is reused; anything else gets a fresh identity.
// It never rejects a request: a new device simply starts with no history.
func (s *Server) withDevice() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := s.deviceFromCookie(r)
			if id == "" {
				id = genID()
				tok, exp, err := signDeviceToken(id)
				if err != nil {
					log.Error().Err(err).Msg("sign device token")
					http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
					return
				}
				setDeviceCookie(w, tok, exp)
			}
			ctx := context.WithValue(r.Context(), ctxDeviceKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// deviceID returns the identifier injected by withDevice.
func deviceID(r *http.Request) string {
	id, _ := r.Context().Value(ctxDeviceKey{}).(string)
	return id
}

// deviceFromCookie parses and verifies the device cookie, returning the
// embedded identifier or "" when missing/invalid.
func (s *Server) deviceFromCookie(r *http.Request) string {
	c, err := r.Cookie(deviceCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(getEnv("DEVICE_SECRET", "dev_secret_change_me")), nil
	})
	if err != nil || !tok.Valid {
		return ""
	}
	id, _ := claims["device"].(string)
	return id
}

// signDeviceToken creates an HS256 JWT carrying the device id.
// Long-lived on purpose: losing it means losing local progress.
func signDeviceToken(id string) (string, time.Time, error) {
	exp := time.Now().Add(365 * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"device": id,
		"exp":    exp.Unix(),
		"iat":    time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(getEnv("DEVICE_SECRET", "dev_secret_change_me")))
	return ss, exp, err
}

// setDeviceCookie writes the device token cookie with security attributes
// mirroring the client origin setup (SameSite=None requires Secure).
func setDeviceCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// ------------------------------- small util --------------------------------

// genID creates a URL-safe, crypto-random identifier. 16 bytes encode to
// exactly 22 base64url chars without padding.
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
