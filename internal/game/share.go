// apps/go-server/internal/game/share.go
//
// Share-text rendering: the fixed-width emoji grid players paste into chat.
// One row per guess, four columns (home, away, result, year), preceded by
// the puzzle name + date and a "guesses/6" line.

package game

import (
	"fmt"
	"strings"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"
)

const shareTitle = "MatchDay Guesser"

// ShareText renders the session's emoji grid for the given answer.
// Feedback is recomputed per guess, so the grid always reflects the same
// verdicts the player saw during play.
func ShareText(s *Session, answer refdata.Match, lookup TeamLookup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n%d/%d\n\n", shareTitle, answer.Date, len(s.Guesses), MaxGuesses)
	for i, g := range s.Guesses {
		if i > 0 {
			b.WriteByte('\n')
		}
		fb := Evaluate(g, answer, lookup)
		b.WriteString(shareIcon(fb.HomeTeam))
		b.WriteString(shareIcon(fb.AwayTeam))
		b.WriteString(shareIcon(fb.Result))
		b.WriteString(shareIcon(fb.Year))
	}
	return b.String()
}

// shareIcon maps a verdict to its square:
// green = correct, yellow = close band, red = everything else.
func shareIcon(v Verdict) string {
	switch v {
	case VerdictCorrect:
		return "🟩"
	case VerdictCloseHigher, VerdictCloseLower:
		return "🟨"
	default:
		return "🟥"
	}
}
