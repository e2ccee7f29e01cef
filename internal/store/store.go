// Package store holds email templates.
package store

import (
	"context"
	"time"

	"github.com/coldreach/email-generator/internal/model"
)

// Store is the template store collaborator. Templates are immutable once
// added; adding an existing ID fails with model.ErrTemplateExists.
type Store interface {
	Add(ctx context.Context, t model.Template) error
	Get(ctx context.Context, id string) (model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
}

// SeedTemplates returns the built-in templates, stamped with createdAt.
func SeedTemplates(createdAt time.Time) []model.Template {
	return []model.Template{
		{
			ID:   "1",
			Name: "Value Proposition",
			Content: "Hi {{recipient.name}},\n\n" +
				"I noticed that {{recipient.company}} has been making waves in the {{recipient.industry}} industry. " +
				"I wanted to reach out because our solution has helped similar companies increase their efficiency by 30%.\n\n" +
				"Would you be interested in a quick 15-minute call to discuss how we might be able to help {{recipient.company}} with {{recipient.painPoint}}?\n\n" +
				"Best regards,\n[Your Name]",
			Tags:      []string{"value", "proposition", "general"},
			CreatedAt: createdAt,
		},
		{
			ID:   "2",
			Name: "Follow-up After Event",
			Content: "Hi {{recipient.name}},\n\n" +
				"It was great connecting at the recent industry conference. I particularly enjoyed our conversation about the challenges in {{recipient.industry}}.\n\n" +
				"I thought more about the {{recipient.painPoint}} you mentioned and wanted to share some thoughts on how our solution might help {{recipient.company}}.\n\n" +
				"Would you be open to a brief follow-up discussion?\n\n" +
				"Best regards,\n[Your Name]",
			Tags:      []string{"follow-up", "event", "networking"},
			CreatedAt: createdAt,
		},
		{
			ID:   "3",
			Name: "Referral Introduction",
			Content: "Hi {{recipient.name}},\n\n" +
				"I hope this email finds you well. I was recently speaking with [Mutual Connection], who suggested I reach out to you regarding {{recipient.painPoint}}.\n\n" +
				"At [Your Company], we've helped several companies in the {{recipient.industry}} industry address similar challenges. " +
				"I'd love to share how we might be able to help {{recipient.company}} as well.\n\n" +
				"Would you be available for a quick call next week?\n\n" +
				"Best regards,\n[Your Name]",
			Tags:      []string{"referral", "introduction", "mutual connection"},
			CreatedAt: createdAt,
		},
	}
}
