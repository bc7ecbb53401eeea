// apps/go-server/internal/httpserver/routes_play.go
//
// HTTP routes for daily play. All endpoints are scoped to the device cookie
// and, except /settings, to a calendar date:
//   - GET  /match     → the public puzzle view for a date (image, no answer)
//   - GET  /state     → session + recomputed feedback for each past guess
//   - POST /guess     → submit a structured guess
//   - POST /reset     → discard one date's progress
//   - GET  /archive   → published matches up to today with per-device status
//   - GET  /share     → emoji-grid share text for a finished date
//   - GET  /settings  → units preference; PUT /settings updates it
//
// The "current date" is resolved once per request (query param, else today
// in UTC) and passed down explicitly; nothing below this layer reads the
// clock. Feedback is always recomputed from the stored guesses, never
// persisted, so replays stay consistent with past transitions.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/game"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/geo"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/store"
)

// playServer wraps dependencies for the play endpoints.
type playServer struct {
	st store.Store
}

// mountPlay registers all play routes on the device-scoped router.
func (s *Server) mountPlay(r chi.Router) {
	p := &playServer{st: s.st}
	r.Get("/match", p.handleMatch)
	r.Get("/state", p.handleState)
	r.Post("/guess", p.handleGuess)
	r.Post("/reset", p.handleReset)
	r.Get("/archive", p.handleArchive)
	r.Get("/share", p.handleShare)
	r.Get("/settings", p.handleGetSettings)
	r.Put("/settings", p.handlePutSettings)
}

// requestDate resolves the date a request targets: explicit ?date=YYYY-MM-DD
// or today (UTC). Malformed dates fall back to today.
func requestDate(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			return d
		}
	}
	return refdata.DateKey(time.Now())
}

// loadOrNewSession fetches the device's session for a date, creating a
// fresh playing session when nothing (readable) is stored.
func (p *playServer) loadOrNewSession(r *http.Request, date string) *game.Session {
	sess, ok, err := p.st.LoadState(r.Context(), deviceID(r), date)
	if err != nil {
		// Storage trouble degrades to playing without persistence.
		log.Warn().Err(err).Str("date", date).Msg("load state")
	}
	if !ok || sess == nil {
		return game.NewSession(date)
	}
	return sess
}

// unitsFor returns the device's units preference, defaulting to km.
func (p *playServer) unitsFor(r *http.Request) store.Unit {
	u, ok, err := p.st.LoadUnits(r.Context(), deviceID(r))
	if err != nil {
		log.Warn().Err(err).Msg("load units")
	}
	if !ok {
		return store.UnitKm
	}
	return u
}

// displayDistance converts a km distance into the preferred unit.
func displayDistance(km float64, u store.Unit) float64 {
	if u == store.UnitMiles {
		return geo.ToMiles(km)
	}
	return km
}

// -----------------------------------------------------------------------------
// GET /match

// matchRes is the public puzzle view. The answer fields stay server-side
// until the session is finished (see /state).
type matchRes struct {
	Date      string `json:"date"`
	ImageID   string `json:"imageId,omitempty"`
	Available bool   `json:"available"`
}

// handleMatch reports whether a puzzle exists for the date and its image.
// No match configured is not an error: the date is simply unavailable.
func (p *playServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	date := requestDate(r)
	m, ok := refdata.GetMatch(date)
	if !ok {
		_ = json.NewEncoder(w).Encode(matchRes{Date: date, Available: false})
		return
	}
	_ = json.NewEncoder(w).Encode(matchRes{Date: m.Date, ImageID: m.ImageID, Available: true})
}

// -----------------------------------------------------------------------------
// GET /state

// feedbackView is the engine feedback plus the presentation-tier "close"
// flags: a wrong team whose ground is within game.CloseDistanceKm of the
// true one renders as warm rather than cold.
type feedbackView struct {
	game.Feedback
	HomeClose bool `json:"homeClose"`
	AwayClose bool `json:"awayClose"`
}

// viewFeedback derives the close flags from the raw km distances, then
// converts the distances into the preferred unit.
func viewFeedback(fb game.Feedback, u store.Unit) feedbackView {
	v := feedbackView{
		Feedback:  fb,
		HomeClose: fb.HomeTeam != game.VerdictCorrect && fb.HomeDistance > 0 && fb.HomeDistance < game.CloseDistanceKm,
		AwayClose: fb.AwayTeam != game.VerdictCorrect && fb.AwayDistance > 0 && fb.AwayDistance < game.CloseDistanceKm,
	}
	v.HomeDistance = displayDistance(fb.HomeDistance, u)
	v.AwayDistance = displayDistance(fb.AwayDistance, u)
	return v
}

// guessView pairs a recorded guess with its recomputed feedback.
type guessView struct {
	Guess    game.Guess   `json:"guess"`
	Feedback feedbackView `json:"feedback"`
}

// answerView reveals the match once the session is finished.
type answerView struct {
	HomeTeamID int    `json:"homeTeamId"`
	AwayTeamID int    `json:"awayTeamId"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	Result     string `json:"result"`
	Year       int    `json:"year"`
}

// stateRes is returned by /state and (without answer) by /guess.
type stateRes struct {
	Date       string      `json:"date"`
	Status     game.Status `json:"status"`
	Guesses    []guessView `json:"guesses"`
	MaxGuesses int         `json:"maxGuesses"`
	Units      store.Unit  `json:"units"`
	Answer     *answerView `json:"answer,omitempty"`
}

// handleState returns the session for a date with per-guess feedback.
func (p *playServer) handleState(w http.ResponseWriter, r *http.Request) {
	date := requestDate(r)
	m, ok := refdata.GetMatch(date)
	if !ok {
		http.Error(w, `{"error":"no_match_for_date"}`, http.StatusNotFound)
		return
	}
	sess := p.loadOrNewSession(r, date)
	_ = json.NewEncoder(w).Encode(p.stateView(date, sess, m, p.unitsFor(r)))
}

// stateView assembles the response, recomputing feedback and converting
// distances into the device's preferred unit.
func (p *playServer) stateView(date string, sess *game.Session, m refdata.Match, u store.Unit) stateRes {
	views := make([]guessView, 0, len(sess.Guesses))
	for _, g := range sess.Guesses {
		fb := game.Evaluate(g, m, refdata.GetTeam)
		views = append(views, guessView{Guess: g, Feedback: viewFeedback(fb, u)})
	}
	res := stateRes{
		Date:       date,
		Status:     sess.Status,
		Guesses:    views,
		MaxGuesses: game.MaxGuesses,
		Units:      u,
	}
	if sess.Status != game.StatusPlaying {
		res.Answer = &answerView{
			HomeTeamID: m.HomeTeamID,
			AwayTeamID: m.AwayTeamID,
			HomeTeam:   teamName(m.HomeTeamID),
			AwayTeam:   teamName(m.AwayTeamID),
			Result:     m.Result.Label(),
			Year:       m.Year,
		}
	}
	return res
}

// teamName resolves a team name, substituting a placeholder for unknown
// ids. Presentation-tier concern only; the engine never needs names.
func teamName(id int) string {
	if t, ok := refdata.GetTeam(id); ok {
		return t.Name
	}
	return "Unknown"
}

// -----------------------------------------------------------------------------
// POST /guess

// guessReq is the request payload for /guess.
type guessReq struct {
	Date       string         `json:"date"`
	HomeTeamID int            `json:"homeTeamId"`
	AwayTeamID int            `json:"awayTeamId"`
	Result     refdata.Result `json:"result"`
	Year       int            `json:"year"`
}

// guessRes is the response payload for /guess.
type guessRes struct {
	Applied  bool          `json:"applied"`
	Feedback *feedbackView `json:"feedback,omitempty"`
	State    stateRes      `json:"state"`
}

// handleGuess validates and applies a guess for the target date.
// - Rejects structurally invalid guesses before they touch the session.
// - A submission against a finished session is a no-op (Applied=false).
// - Session save failures do not block gameplay; they are logged and the
//   updated state is still returned.
func (p *playServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	date := req.Date
	if date == "" {
		date = requestDate(r)
	}
	m, ok := refdata.GetMatch(date)
	if !ok {
		http.Error(w, `{"error":"no_match_for_date"}`, http.StatusNotFound)
		return
	}

	g := game.Guess{HomeTeamID: req.HomeTeamID, AwayTeamID: req.AwayTeamID, Result: req.Result, Year: req.Year}
	if err := g.Validate(refdata.GetTeam); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	sess := p.loadOrNewSession(r, date)
	fb, applied := sess.SubmitGuess(g, m, refdata.GetTeam)
	if applied {
		if err := p.st.SaveState(r.Context(), deviceID(r), date, sess); err != nil {
			log.Warn().Err(err).Str("date", date).Msg("save state")
		}
	}

	u := p.unitsFor(r)
	res := guessRes{Applied: applied, State: p.stateView(date, sess, m, u)}
	if applied {
		v := viewFeedback(fb, u)
		res.Feedback = &v
	}
	_ = json.NewEncoder(w).Encode(res)
}

// -----------------------------------------------------------------------------
// POST /reset

// handleReset discards the device's progress for one date. The next /state
// call reinitializes a fresh playing session.
func (p *playServer) handleReset(w http.ResponseWriter, r *http.Request) {
	date := requestDate(r)
	if err := p.st.ClearState(r.Context(), deviceID(r), date); err != nil {
		log.Error().Err(err).Str("date", date).Msg("clear state")
		http.Error(w, `{"error":"reset_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// -----------------------------------------------------------------------------
// GET /archive

// archiveEntry is one browsable past puzzle with the device's status.
type archiveEntry struct {
	Date   string `json:"date"`
	Status string `json:"status"` // unplayed | playing | won | lost
}

// handleArchive lists matches dated up to today (inclusive), oldest first.
// Future puzzles stay hidden.
func (p *playServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	today := refdata.DateKey(time.Now())
	entries := []archiveEntry{}
	for _, m := range refdata.ListMatches(today) {
		status := "unplayed"
		if sess, ok, err := p.st.LoadState(r.Context(), deviceID(r), m.Date); err == nil && ok {
			status = string(sess.Status)
		}
		entries = append(entries, archiveEntry{Date: m.Date, Status: status})
	}
	_ = json.NewEncoder(w).Encode(entries)
}

// -----------------------------------------------------------------------------
// GET /share

// handleShare returns the emoji-grid share text for a finished date as
// plain text. An unfinished or unplayed date is a conflict.
func (p *playServer) handleShare(w http.ResponseWriter, r *http.Request) {
	date := requestDate(r)
	m, ok := refdata.GetMatch(date)
	if !ok {
		http.Error(w, `{"error":"no_match_for_date"}`, http.StatusNotFound)
		return
	}
	sess, ok, err := p.st.LoadState(r.Context(), deviceID(r), date)
	if err != nil || !ok || sess.Status == game.StatusPlaying {
		http.Error(w, `{"error":"not_finished"}`, http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(game.ShareText(sess, m, refdata.GetTeam)))
}

// -----------------------------------------------------------------------------
// /settings

// settingsRes carries the device preferences.
type settingsRes struct {
	Units store.Unit `json:"units"`
}

// handleGetSettings returns the device's units preference (default km).
func (p *playServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(settingsRes{Units: p.unitsFor(r)})
}

// handlePutSettings updates the units preference.
func (p *playServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRes
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if !req.Units.Valid() {
		http.Error(w, `{"error":"invalid_units"}`, http.StatusBadRequest)
		return
	}
	if err := p.st.SaveUnits(r.Context(), deviceID(r), req.Units); err != nil {
		log.Error().Err(err).Msg("save units")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(settingsRes{Units: req.Units})
}
