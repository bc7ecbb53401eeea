// apps/go-server/internal/game/types.go
//
// Core type definitions for the MatchDay Guesser engine.
// Defines:
//   - Verdict: per-field result of a guess (correct/incorrect/year bands).
//   - Guess: one structured guess (two teams, a result, a year).
//   - Feedback: the derived per-field verdicts for a (Guess, Match) pair.
//   - Session: state for a single date's in-progress or finished game.

package game

import "github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"

// Verdict is the evaluation result for a single guess field.
// Team and result fields only ever use "correct"/"incorrect"; the year
// field additionally signals direction and a ±2 "close" band.
type Verdict string

const (
	VerdictCorrect     Verdict = "correct"
	VerdictIncorrect   Verdict = "incorrect"
	VerdictHigher      Verdict = "higher"       // true year is above the guess, not close
	VerdictLower       Verdict = "lower"        // true year is below the guess, not close
	VerdictCloseHigher Verdict = "close-higher" // true year is above, within the close band
	VerdictCloseLower  Verdict = "close-lower"  // true year is below, within the close band
)

// Status is the coarse session state.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Guess is one player submission. Immutable once recorded.
type Guess struct {
	HomeTeamID int            `json:"homeTeamId"`
	AwayTeamID int            `json:"awayTeamId"`
	Result     refdata.Result `json:"result"`
	Year       int            `json:"year"`
}

// Feedback is the per-field verdict comparing a guess to the answer.
// Derived, never persisted: recomputed on demand from (Guess, Match).
// Distances are kilometers; 0 when the guessed team is the true team.
type Feedback struct {
	HomeTeam     Verdict `json:"homeTeam"`
	AwayTeam     Verdict `json:"awayTeam"`
	Result       Verdict `json:"result"`
	Year         Verdict `json:"year"`
	HomeDistance float64 `json:"homeDistance"`
	AwayDistance float64 `json:"awayDistance"`
}

// Session holds the guess history and status for one date.
type Session struct {
	Guesses        []Guess `json:"guesses"`
	Status         Status  `json:"gameStatus"`
	LastPlayedDate string  `json:"lastPlayedDate"` // YYYY-MM-DD the session belongs to
}

// TeamLookup resolves a team id against the reference table.
// Injected so the engine stays a pure function of its inputs.
type TeamLookup func(id int) (refdata.Team, bool)
