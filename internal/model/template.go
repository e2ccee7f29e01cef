package model

import (
	"strings"
	"time"
)

// Template is a named, tagged block of placeholder-bearing text.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a copy that shares no slices with t.
func (t Template) Clone() Template {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// Preview flattens newlines and truncates the content to maxLength runes.
func (t Template) Preview(maxLength int) string {
	var b strings.Builder
	newline := false
	for _, r := range t.Content {
		if r == '\n' {
			if !newline {
				b.WriteByte(' ')
			}
			newline = true
			continue
		}
		newline = false
		b.WriteRune(r)
	}
	flat := b.String()
	runes := []rune(flat)
	if maxLength <= 0 || len(runes) <= maxLength {
		return flat
	}
	return string(runes[:maxLength]) + "..."
}

// CreateTemplateRequest is the request to author a new template.
type CreateTemplateRequest struct {
	Name    string   `json:"name"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// NormalizeTags trims every tag and drops empty ones.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// TemplateSummary is a template as shown in listings.
type TemplateSummary struct {
	Template
	Preview string `json:"preview"`
}

// ListTemplatesResponse is the response for listing templates.
type ListTemplatesResponse struct {
	Templates []TemplateSummary `json:"templates"`
	Total     int               `json:"total"`
}

// SearchTemplatesRequest is the request to find templates by description.
type SearchTemplatesRequest struct {
	Description string `json:"description"`
	Limit       int    `json:"limit,omitempty"`
}

// SearchTemplatesResponse is the response for a template search.
type SearchTemplatesResponse struct {
	Templates []Template `json:"templates"`
}
