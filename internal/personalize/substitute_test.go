package personalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coldreach/email-generator/internal/model"
)

func fullRecipient() model.Recipient {
	return model.Recipient{
		Name:      "Ana",
		Company:   "Acme",
		Position:  "CTO",
		Email:     "ana@acme.test",
		Industry:  "logistics",
		PainPoint: "late deliveries",
	}
}

func TestSubstitute_AllFieldsFilled(t *testing.T) {
	var b strings.Builder
	for _, field := range model.RecipientFields {
		b.WriteString(Placeholder(field))
		b.WriteString(" | ")
	}

	out := Substitute(b.String(), fullRecipient())

	assert.Empty(t, Unresolved(out))
	assert.Equal(t, "Ana | Acme | CTO | ana@acme.test | logistics | late deliveries | ", out)
}

func TestSubstitute_EmptyFieldKeepsToken(t *testing.T) {
	r := fullRecipient()
	r.PainPoint = ""
	content := "Fix {{recipient.painPoint}} at {{recipient.company}}; again {{recipient.painPoint}}."

	out := Substitute(content, r)

	assert.Equal(t, "Fix {{recipient.painPoint}} at Acme; again {{recipient.painPoint}}.", out)
	assert.Equal(t, []string{model.FieldPainPoint}, Unresolved(out))
	assert.Equal(t, out, Substitute(out, r), "re-running substitution must not touch unfilled tokens")
}

func TestSubstitute_ReplacesEveryOccurrence(t *testing.T) {
	content := "{{recipient.name}} {{recipient.name}}\n{{recipient.name}}"

	out := Substitute(content, model.Recipient{Name: "Bo"})

	assert.Equal(t, "Bo Bo\nBo", out)
}

func TestSubstitute_ValuesAreLiteral(t *testing.T) {
	tests := []struct {
		name    string
		company string
	}{
		{name: "dollar back-reference", company: "$1 co"},
		{name: "backslash", company: `a\b`},
		{name: "regex metacharacters", company: "(.*)+?[x]"},
		{name: "token-looking value", company: "{{recipient.name}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Substitute("At {{recipient.company}}, {{recipient.name}}.", model.Recipient{
				Name:    "Ana",
				Company: tt.company,
			})
			assert.Equal(t, "At "+tt.company+", Ana.", out)
		})
	}
}

func TestSubstitute_UnknownAndCaseMismatchedTokensPassThrough(t *testing.T) {
	content := "{{recipient.phone}} {{recipient.Name}} {{ recipient.name }} {{sender.name}}"

	out := Substitute(content, fullRecipient())

	assert.Equal(t, content, out)
}

func TestSubstitute_RawValuesAreNotTrimmed(t *testing.T) {
	out := Substitute("[{{recipient.name}}]", model.Recipient{Name: "  Ana "})

	assert.Equal(t, "[  Ana ]", out)
}

func TestSubstitute_EndToEndExample(t *testing.T) {
	content := "Hi {{recipient.name}}, {{recipient.company}} impressed me. {{recipient.painPoint}}."
	r := model.Recipient{Name: "Ana", Company: "Acme", PainPoint: ""}

	out := Substitute(content, r)

	assert.Equal(t, "Hi Ana, Acme impressed me. {{recipient.painPoint}}.", out)
}

func TestSubstitute_Deterministic(t *testing.T) {
	content := "Hi {{recipient.name}} from {{recipient.company}} ({{recipient.industry}})"
	r := model.Recipient{Name: "Ana", Company: "Acme"}

	first := Substitute(content, r)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Substitute(content, r))
	}
}
