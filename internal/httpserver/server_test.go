package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/store"
)

// newTestServer spins up the full router on the embedded reference data
// with an in-memory store, plus a cookie-carrying client so the device
// identity persists across requests like a browser would.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	require.NoError(t, refdata.Init())

	srv := New(store.NewMemoryStore())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	if out != nil && res.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

// The embedded match for 2024-06-03: Manchester United (6) v Bayern (5),
// home win, year 1999.
const testDate = "2024-06-03"

var winningGuess = map[string]any{
	"date": testDate, "homeTeamId": 6, "awayTeamId": 5, "result": 1, "year": 1999,
}

func TestHealth(t *testing.T) {
	ts, c := newTestServer(t)
	res := doJSON(t, c, http.MethodGet, ts.URL+"/health", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestTeamsList(t *testing.T) {
	ts, c := newTestServer(t)
	var teams []refdata.Team
	res := doJSON(t, c, http.MethodGet, ts.URL+"/teams", nil, &teams)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, teams)
}

func TestMatchAvailability(t *testing.T) {
	ts, c := newTestServer(t)

	var m struct {
		Date      string `json:"date"`
		ImageID   string `json:"imageId"`
		Available bool   `json:"available"`
	}
	res := doJSON(t, c, http.MethodGet, ts.URL+"/match?date="+testDate, nil, &m)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, m.Available)
	assert.Equal(t, testDate, m.Date)
	assert.NotEmpty(t, m.ImageID)

	res = doJSON(t, c, http.MethodGet, ts.URL+"/match?date=1999-01-01", nil, &m)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, m.Available)
}

func TestStateUnknownDate(t *testing.T) {
	ts, c := newTestServer(t)
	res := doJSON(t, c, http.MethodGet, ts.URL+"/state?date=1999-01-01", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

type stateBody struct {
	Date    string `json:"date"`
	Status  string `json:"status"`
	Guesses []struct {
		Feedback struct {
			HomeTeam     string  `json:"homeTeam"`
			AwayTeam     string  `json:"awayTeam"`
			Result       string  `json:"result"`
			Year         string  `json:"year"`
			HomeDistance float64 `json:"homeDistance"`
			AwayDistance float64 `json:"awayDistance"`
			HomeClose    bool    `json:"homeClose"`
			AwayClose    bool    `json:"awayClose"`
		} `json:"feedback"`
	} `json:"guesses"`
	MaxGuesses int    `json:"maxGuesses"`
	Units      string `json:"units"`
	Answer     *struct {
		HomeTeam string `json:"homeTeam"`
		AwayTeam string `json:"awayTeam"`
		Result   string `json:"result"`
		Year     int    `json:"year"`
	} `json:"answer"`
}

type guessBody struct {
	Applied  bool `json:"applied"`
	Feedback *struct {
		HomeTeam  string `json:"homeTeam"`
		Year      string `json:"year"`
		HomeClose bool   `json:"homeClose"`
		AwayClose bool   `json:"awayClose"`
	} `json:"feedback"`
	State stateBody `json:"state"`
}

func TestGuessFlowToWin(t *testing.T) {
	ts, c := newTestServer(t)

	var st stateBody
	res := doJSON(t, c, http.MethodGet, ts.URL+"/state?date="+testDate, nil, &st)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "playing", st.Status)
	assert.Empty(t, st.Guesses)
	assert.Equal(t, 6, st.MaxGuesses)
	assert.Nil(t, st.Answer)

	// Wrong guess first: Liverpool v Arsenal, draw, 2001.
	var gr guessBody
	res = doJSON(t, c, http.MethodPost, ts.URL+"/guess",
		map[string]any{"date": testDate, "homeTeamId": 2, "awayTeamId": 10, "result": 0, "year": 2001}, &gr)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, gr.Applied)
	require.NotNil(t, gr.Feedback)
	assert.Equal(t, "incorrect", gr.Feedback.HomeTeam)
	assert.Equal(t, "close-lower", gr.Feedback.Year) // 2001 vs 1999 → overshot by 2
	assert.Equal(t, "playing", gr.State.Status)
	assert.Len(t, gr.State.Guesses, 1)
	assert.Greater(t, gr.State.Guesses[0].Feedback.HomeDistance, 0.0)

	// Winning guess.
	res = doJSON(t, c, http.MethodPost, ts.URL+"/guess", winningGuess, &gr)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, gr.Applied)
	assert.Equal(t, "won", gr.State.Status)
	require.NotNil(t, gr.State.Answer)
	assert.Equal(t, "Manchester United", gr.State.Answer.HomeTeam)
	assert.Equal(t, 1999, gr.State.Answer.Year)

	// Further submissions are no-ops. Reset gr so the nil-feedback
	// assertion observes this response rather than stale decoded state.
	gr = guessBody{}
	res = doJSON(t, c, http.MethodPost, ts.URL+"/guess", winningGuess, &gr)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, gr.Applied)
	assert.Nil(t, gr.Feedback)
	assert.Len(t, gr.State.Guesses, 2)
	assert.Equal(t, "won", gr.State.Status)
}

func TestGuessToLoss(t *testing.T) {
	ts, c := newTestServer(t)
	wrong := map[string]any{"date": testDate, "homeTeamId": 1, "awayTeamId": 2, "result": 2, "year": 1980}

	var gr guessBody
	for i := 1; i <= 6; i++ {
		res := doJSON(t, c, http.MethodPost, ts.URL+"/guess", wrong, &gr)
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.True(t, gr.Applied, "guess %d", i)
	}
	assert.Equal(t, "lost", gr.State.Status)
	assert.Len(t, gr.State.Guesses, 6)
	require.NotNil(t, gr.State.Answer, "answer revealed after loss")

	res := doJSON(t, c, http.MethodPost, ts.URL+"/guess", wrong, &gr)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, gr.Applied)
	assert.Len(t, gr.State.Guesses, 6)
}

func TestGuessValidation(t *testing.T) {
	ts, c := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"unknown team", map[string]any{"date": testDate, "homeTeamId": 999, "awayTeamId": 5, "result": 1, "year": 1999}, http.StatusBadRequest},
		{"bad result", map[string]any{"date": testDate, "homeTeamId": 6, "awayTeamId": 5, "result": 9, "year": 1999}, http.StatusBadRequest},
		{"missing year", map[string]any{"date": testDate, "homeTeamId": 6, "awayTeamId": 5, "result": 1}, http.StatusBadRequest},
		{"no match for date", map[string]any{"date": "1999-01-01", "homeTeamId": 6, "awayTeamId": 5, "result": 1, "year": 1999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := doJSON(t, c, http.MethodPost, ts.URL+"/guess", tt.body, nil)
			assert.Equal(t, tt.code, res.StatusCode)
		})
	}

	// Rejected guesses never enter the history.
	var st stateBody
	doJSON(t, c, http.MethodGet, ts.URL+"/state?date="+testDate, nil, &st)
	assert.Empty(t, st.Guesses)
}

func TestResetClearsProgress(t *testing.T) {
	ts, c := newTestServer(t)

	var gr guessBody
	doJSON(t, c, http.MethodPost, ts.URL+"/guess",
		map[string]any{"date": testDate, "homeTeamId": 1, "awayTeamId": 2, "result": 0, "year": 2000}, &gr)
	require.Len(t, gr.State.Guesses, 1)

	res := doJSON(t, c, http.MethodPost, ts.URL+"/reset?date="+testDate, nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var st stateBody
	doJSON(t, c, http.MethodGet, ts.URL+"/state?date="+testDate, nil, &st)
	assert.Equal(t, "playing", st.Status)
	assert.Empty(t, st.Guesses)
}

func TestArchivePerDeviceStatus(t *testing.T) {
	ts, c := newTestServer(t)

	var gr guessBody
	doJSON(t, c, http.MethodPost, ts.URL+"/guess", winningGuess, &gr)
	require.Equal(t, "won", gr.State.Status)

	var entries []struct {
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	res := doJSON(t, c, http.MethodGet, ts.URL+"/archive", nil, &entries)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, entries)

	byDate := map[string]string{}
	for _, e := range entries {
		byDate[e.Date] = e.Status
	}
	assert.Equal(t, "won", byDate[testDate])
	assert.Equal(t, "unplayed", byDate["2024-06-04"])

	// A different device sees its own blank slate.
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &http.Client{Jar: jar}
	res = doJSON(t, other, http.MethodGet, ts.URL+"/archive", nil, &entries)
	require.Equal(t, http.StatusOK, res.StatusCode)
	for _, e := range entries {
		assert.Equal(t, "unplayed", e.Status)
	}
}

func TestShareText(t *testing.T) {
	ts, c := newTestServer(t)

	// Unfinished → conflict.
	res := doJSON(t, c, http.MethodGet, ts.URL+"/share?date="+testDate, nil, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	var gr guessBody
	doJSON(t, c, http.MethodPost, ts.URL+"/guess", winningGuess, &gr)
	require.Equal(t, "won", gr.State.Status)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/share?date="+testDate, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "MatchDay Guesser "+testDate+"\n1/6\n\n"))
	assert.Contains(t, text, "🟩🟩🟩🟩")
}

func TestSettingsRoundTrip(t *testing.T) {
	ts, c := newTestServer(t)

	var s struct {
		Units string `json:"units"`
	}
	res := doJSON(t, c, http.MethodGet, ts.URL+"/settings", nil, &s)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "km", s.Units, "units default to km")

	res = doJSON(t, c, http.MethodPut, ts.URL+"/settings", map[string]string{"units": "miles"}, &s)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "miles", s.Units)

	res = doJSON(t, c, http.MethodGet, ts.URL+"/settings", nil, &s)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "miles", s.Units)

	res = doJSON(t, c, http.MethodPut, ts.URL+"/settings", map[string]string{"units": "furlongs"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCloseTeamFlags(t *testing.T) {
	ts, c := newTestServer(t)

	// Home guessed as Liverpool: Anfield sits ~45 km from Old Trafford,
	// inside the 50 km warm band. Away guessed as Barcelona, ~1000 km
	// from Bayern's ground.
	var gr guessBody
	doJSON(t, c, http.MethodPost, ts.URL+"/guess",
		map[string]any{"date": testDate, "homeTeamId": 2, "awayTeamId": 4, "result": 1, "year": 1999}, &gr)
	require.Len(t, gr.State.Guesses, 1)

	fb := gr.State.Guesses[0].Feedback
	assert.Equal(t, "incorrect", fb.HomeTeam)
	assert.True(t, fb.HomeClose)
	assert.Equal(t, "incorrect", fb.AwayTeam)
	assert.False(t, fb.AwayClose)

	// The band is judged in km even when the device prefers miles.
	doJSON(t, c, http.MethodPut, ts.URL+"/settings", map[string]string{"units": "miles"}, nil)
	var st stateBody
	doJSON(t, c, http.MethodGet, ts.URL+"/state?date="+testDate, nil, &st)
	require.Len(t, st.Guesses, 1)
	assert.True(t, st.Guesses[0].Feedback.HomeClose)
	assert.False(t, st.Guesses[0].Feedback.AwayClose)

	// A correct team is never flagged close.
	doJSON(t, c, http.MethodPost, ts.URL+"/guess", winningGuess, &gr)
	require.NotNil(t, gr.Feedback)
	assert.False(t, gr.Feedback.HomeClose)
	assert.False(t, gr.Feedback.AwayClose)
}

func TestGenID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		id := genID()
		assert.Len(t, id, 22)
		assert.NotContains(t, id, "=")
		assert.False(t, seen[id], "ids must not repeat")
		seen[id] = true
	}
}

func TestMilesConversionInState(t *testing.T) {
	ts, c := newTestServer(t)

	var gr guessBody
	doJSON(t, c, http.MethodPost, ts.URL+"/guess",
		map[string]any{"date": testDate, "homeTeamId": 2, "awayTeamId": 5, "result": 1, "year": 1999}, &gr)
	require.Len(t, gr.State.Guesses, 1)
	kmDist := gr.State.Guesses[0].Feedback.HomeDistance
	require.Greater(t, kmDist, 0.0)

	doJSON(t, c, http.MethodPut, ts.URL+"/settings", map[string]string{"units": "miles"}, nil)

	var st stateBody
	doJSON(t, c, http.MethodGet, ts.URL+"/state?date="+testDate, nil, &st)
	require.Len(t, st.Guesses, 1)
	assert.InDelta(t, kmDist/1.609344, st.Guesses[0].Feedback.HomeDistance, 0.01)
}
