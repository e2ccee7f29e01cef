package personalize

import (
	"fmt"

	"github.com/coldreach/email-generator/internal/model"
)

// Fallback strings used when an optional recipient field is empty.
const (
	FallbackIndustryChallenges = "your industry challenges"
	FallbackChallenges         = "challenges"
	FallbackBusinessGoals      = "your business goals"
	FallbackIndustry           = "industry"
)

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// SubjectCandidates returns the five subject lines available for r.
func SubjectCandidates(r model.Recipient) []string {
	return []string{
		fmt.Sprintf("Quick question about %s", orDefault(r.PainPoint, FallbackIndustryChallenges)),
		fmt.Sprintf("%s, an idea for %s", r.Name, r.Company),
		fmt.Sprintf("Helping %s with %s", r.Company, orDefault(r.PainPoint, FallbackBusinessGoals)),
		fmt.Sprintf("A better way to tackle %s", orDefault(r.PainPoint, FallbackChallenges)),
		fmt.Sprintf("What's next for %s leaders", orDefault(r.Industry, FallbackIndustry)),
	}
}

// Subject picks one candidate uniformly at random.
func Subject(r model.Recipient, rnd Rand) string {
	return pick(rnd, SubjectCandidates(r))
}
