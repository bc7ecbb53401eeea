// apps/go-server/internal/refdata/refdata.go
//
// Reference data for the MatchDay Guesser: the team table (with stadium
// coordinates) and the daily match list.
//
// Responsibilities:
//   - Load both tables from environment-provided files or fall back to the
//     embedded defaults in the assets package.
//   - Maintain id/date-keyed maps for O(1) lookups.
//   - Supply accessors: GetTeam, GetMatch, ListMatches, Stats.
//
// Initialization behavior (Init):
//   1. If TEAMS_FILE / MATCHES_FILE are set, load the corresponding table
//      from that path (either may be overridden independently).
//   2. Otherwise fall back to the embedded teams.json / matches.json.
//
// Constraints:
//   • Tables are immutable after Init; accessors return copies of slices
//     but share the underlying (never mutated) structs.
//   • One match per date; duplicate dates in the source keep the first entry.
//   • Initialization is run once (sync.Once).

package refdata

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/matchday-guesser/apps/go-server/assets"
)

// Team is one row of the team table. Identity is by ID.
type Team struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Result encodes the 3-way match outcome.
type Result int

const (
	ResultDraw    Result = 0
	ResultHomeWin Result = 1
	ResultAwayWin Result = 2
)

// Label returns the display name for a result code.
// Unknown codes fall back to "Draw", matching the original client.
func (r Result) Label() string {
	switch r {
	case ResultHomeWin:
		return "Home Win"
	case ResultAwayWin:
		return "Away Win"
	default:
		return "Draw"
	}
}

// Match is the daily answer: the secret fixture for one calendar date.
type Match struct {
	Date       string `json:"date"` // YYYY-MM-DD, unique key
	HomeTeamID int    `json:"homeTeamId"`
	AwayTeamID int    `json:"awayTeamId"`
	Result     Result `json:"result"`
	Year       int    `json:"year"`
	ImageID    string `json:"imageId"`
}

var (
	initOnce   sync.Once
	teams      map[int]Team
	matches    map[string]Match
	matchList  []Match // sorted by date ascending
	initialErr error
)

// Init loads the reference tables exactly once.
// Returns an error if either table ends up empty.
func Init() error {
	initOnce.Do(func() {
		teamsRaw, err := readTable("TEAMS_FILE", assets.TeamsJSON)
		if err != nil {
			initialErr = err
			return
		}
		matchesRaw, err := readTable("MATCHES_FILE", assets.MatchesJSON)
		if err != nil {
			initialErr = err
			return
		}

		var teamRows []Team
		if err := json.Unmarshal(teamsRaw, &teamRows); err != nil {
			initialErr = err
			return
		}
		var matchRows []Match
		if err := json.Unmarshal(matchesRaw, &matchRows); err != nil {
			initialErr = err
			return
		}

		teams = make(map[int]Team, len(teamRows))
		for _, t := range teamRows {
			teams[t.ID] = t
		}

		matches = make(map[string]Match, len(matchRows))
		matchList = make([]Match, 0, len(matchRows))
		for _, m := range matchRows {
			if _, dup := matches[m.Date]; dup {
				continue
			}
			matches[m.Date] = m
			matchList = append(matchList, m)
		}
		sort.Slice(matchList, func(i, j int) bool { return matchList[i].Date < matchList[j].Date })

		if len(teams) == 0 {
			initialErr = errors.New("refdata: team table is empty")
			return
		}
		if len(matches) == 0 {
			initialErr = errors.New("refdata: match table is empty")
		}
	})
	return initialErr
}

// readTable returns the file named by env var key, or the embedded fallback.
func readTable(envKey string, embedded func() ([]byte, error)) ([]byte, error) {
	if path := os.Getenv(envKey); path != "" {
		return os.ReadFile(path)
	}
	return embedded()
}

// GetTeam looks up a team by id.
func GetTeam(id int) (Team, bool) {
	t, ok := teams[id]
	return t, ok
}

// ListTeams returns all teams ordered by id ascending.
func ListTeams() []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetMatch looks up the match for a date key (YYYY-MM-DD).
func GetMatch(date string) (Match, bool) {
	m, ok := matches[date]
	return m, ok
}

// ListMatches returns all matches ordered by date ascending.
// If upTo is non-empty, matches dated after it are excluded (archive view).
func ListMatches(upTo string) []Match {
	out := make([]Match, 0, len(matchList))
	for _, m := range matchList {
		if upTo != "" && m.Date > upTo {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Stats returns counts of loaded rows: (teams, matches).
func Stats() (teamCount int, matchCount int) {
	return len(teams), len(matches)
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
