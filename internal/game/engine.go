// apps/go-server/internal/game/engine.go
//
// Feedback engine and state machine for a single MatchDay Guesser session.
// Responsibilities:
//   - Create new sessions for a date (6 guesses, empty history).
//   - Evaluate a guess against the secret match: per-field verdicts plus
//     a great-circle distance proximity signal for the two team fields.
//   - Track state transitions: playing → won/lost.
//
// Notes:
//   - Evaluate is a pure function: recomputing feedback from a stored guess
//     always reproduces the value used to decide past transitions.
//   - Team lookups are injected (TeamLookup); a missing team never fails
//     evaluation — the distance just stays 0 and the id comparison decides.
//
// Package-level rule constants are kept here for clarity.
package game

import (
	"errors"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/geo"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"
)

const (
	// MaxGuesses is the per-date guess budget.
	MaxGuesses = 6

	// yearCloseBand is the ± tolerance for the "close" year verdicts.
	yearCloseBand = 2

	// CloseDistanceKm is the display threshold under which a wrong team is
	// rendered as "close". The engine reports raw distances; this constant
	// is consumed at the presentation boundary only.
	CloseDistanceKm = 50.0
)

// NewSession constructs a fresh playing session for the given date key.
func NewSession(date string) *Session {
	return &Session{
		Guesses:        []Guess{},
		Status:         StatusPlaying,
		LastPlayedDate: date,
	}
}

// Evaluate compares a guess to the answer and returns per-field feedback.
//
// Field rules:
//   - homeTeam/awayTeam: correct iff the guessed id equals the answer's id.
//   - result: correct iff the 3-way codes match (no proximity for a categorical).
//   - year: correct on exact match; within ±2 the verdict is close-higher or
//     close-lower (direction points at the true year); beyond ±2 it is
//     higher or lower.
//   - homeDistance/awayDistance: 0 when the team is correct, otherwise the
//     haversine distance between the guessed and true grounds in km.
func Evaluate(g Guess, answer refdata.Match, lookup TeamLookup) Feedback {
	fb := Feedback{
		HomeTeam: verdictEq(g.HomeTeamID == answer.HomeTeamID),
		AwayTeam: verdictEq(g.AwayTeamID == answer.AwayTeamID),
		Result:   verdictEq(g.Result == answer.Result),
		Year:     yearVerdict(g.Year - answer.Year),
	}
	if fb.HomeTeam != VerdictCorrect {
		fb.HomeDistance = teamDistance(g.HomeTeamID, answer.HomeTeamID, lookup)
	}
	if fb.AwayTeam != VerdictCorrect {
		fb.AwayDistance = teamDistance(g.AwayTeamID, answer.AwayTeamID, lookup)
	}
	return fb
}

// verdictEq maps an equality check to correct/incorrect.
func verdictEq(ok bool) Verdict {
	if ok {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// yearVerdict classifies diff = guessYear − answerYear.
// Positive diff means the guess overshot, so the true year is lower.
func yearVerdict(diff int) Verdict {
	switch {
	case diff == 0:
		return VerdictCorrect
	case diff > 0 && diff <= yearCloseBand:
		return VerdictCloseLower
	case diff < 0 && diff >= -yearCloseBand:
		return VerdictCloseHigher
	case diff > 0:
		return VerdictLower
	default:
		return VerdictHigher
	}
}

// teamDistance returns the km distance between two teams' grounds.
// Missing ids degrade to 0; the verdict already carries the mismatch.
func teamDistance(guessedID, trueID int, lookup TeamLookup) float64 {
	guessed, ok1 := lookup(guessedID)
	truth, ok2 := lookup(trueID)
	if !ok1 || !ok2 {
		return 0
	}
	return geo.Distance(guessed.Lat, guessed.Lon, truth.Lat, truth.Lon)
}

// Perfect reports whether every feedback field is correct (a winning guess).
func Perfect(fb Feedback) bool {
	return fb.HomeTeam == VerdictCorrect &&
		fb.AwayTeam == VerdictCorrect &&
		fb.Result == VerdictCorrect &&
		fb.Year == VerdictCorrect
}

// SubmitGuess appends a guess and advances the state machine.
//
// Precondition: Status must be playing. When it is not, the call is a
// no-op: no state change, applied=false, zero feedback. The append and the
// status transition happen together — never one without the other.
//
// Transitions:
//   - All four fields correct → won (regardless of remaining budget).
//   - Else, 6th guess recorded → lost.
//   - Else → still playing.
func (s *Session) SubmitGuess(g Guess, answer refdata.Match, lookup TeamLookup) (fb Feedback, applied bool) {
	if s.Status != StatusPlaying || len(s.Guesses) >= MaxGuesses {
		return Feedback{}, false
	}

	fb = Evaluate(g, answer, lookup)
	s.Guesses = append(s.Guesses, g)

	if Perfect(fb) {
		s.Status = StatusWon
	} else if len(s.Guesses) >= MaxGuesses {
		s.Status = StatusLost
	}
	return fb, true
}

// Validate rejects structurally invalid guesses before they reach the
// state machine, so they never enter the persisted history.
func (g Guess) Validate(lookup TeamLookup) error {
	if _, ok := lookup(g.HomeTeamID); !ok {
		return errors.New("unknown home team")
	}
	if _, ok := lookup(g.AwayTeamID); !ok {
		return errors.New("unknown away team")
	}
	if g.Result < refdata.ResultDraw || g.Result > refdata.ResultAwayWin {
		return errors.New("invalid result code")
	}
	if g.Year <= 0 {
		return errors.New("invalid year")
	}
	return nil
}
