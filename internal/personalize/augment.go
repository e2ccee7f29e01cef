package personalize

import (
	"fmt"
	"strings"

	"github.com/coldreach/email-generator/internal/model"
)

// maxInsertIndex is the zero-based line index the extra sentence lands on
// when the body is long enough.
const maxInsertIndex = 3

// PhraseCandidates returns the four context sentences available for r.
func PhraseCandidates(r model.Recipient) []string {
	return []string{
		fmt.Sprintf("I've been following %s's recent work and was impressed by the direction you're taking.", r.Company),
		fmt.Sprintf("Many teams we speak with struggle with %s, and we've found a practical way to address it.", orDefault(r.PainPoint, FallbackChallenges)),
		fmt.Sprintf("Companies in the %s space are moving quickly, and timing matters.", orDefault(r.Industry, FallbackIndustry)),
		fmt.Sprintf("Tackling %s early can make a real difference for %s.", orDefault(r.PainPoint, FallbackIndustryChallenges), r.Company),
	}
}

// Augment inserts one randomly chosen context sentence into body.
func Augment(body string, r model.Recipient, rnd Rand) string {
	return InsertLine(body, pick(rnd, PhraseCandidates(r)))
}

// InsertLine inserts line at index min(3, lineCount-1) of body's
// newline-separated lines.
func InsertLine(body, line string) string {
	lines := strings.Split(body, "\n")
	at := min(maxInsertIndex, len(lines)-1)

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, line)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n")
}
