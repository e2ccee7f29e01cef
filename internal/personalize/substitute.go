package personalize

import (
	"strings"

	"github.com/coldreach/email-generator/internal/model"
)

// Placeholder returns the literal token for a recipient field.
func Placeholder(field string) string {
	return "{{recipient." + field + "}}"
}

// Substitute replaces every {{recipient.<field>}} token whose field value is
// non-empty. Tokens for empty fields and for fields outside the fixed set are
// left verbatim. Values are inserted literally in a single pass, so a value
// that itself looks like a token is never expanded again.
func Substitute(content string, r model.Recipient) string {
	var pairs []string
	for _, field := range model.RecipientFields {
		value, _ := r.Field(field)
		if value == "" {
			continue
		}
		pairs = append(pairs, Placeholder(field), value)
	}
	if len(pairs) == 0 {
		return content
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// Unresolved lists the fixed-set fields whose tokens remain in text.
func Unresolved(text string) []string {
	var fields []string
	for _, field := range model.RecipientFields {
		if strings.Contains(text, Placeholder(field)) {
			fields = append(fields, field)
		}
	}
	return fields
}
