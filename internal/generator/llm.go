package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/llm"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/personalize"
	"github.com/coldreach/email-generator/pkg/logger"
)

const systemPrompt = `You write concise, friendly B2B cold emails.
Rewrite the draft you are given so it reads naturally for the recipient.
Keep any text of the form {{recipient.<field>}} exactly as written.
Reply with the subject on the first line as "Subject: <subject>", then a blank line, then the email body.`

// LLM generates emails by prompting a language model with the substituted
// template.
type LLM struct {
	client llm.Client
	model  string
	rnd    personalize.Rand
	clock  Clock
	log    *logger.Logger
}

// NewLLM creates an LLM-backed generator.
func NewLLM(client llm.Client, modelName string, log *logger.Logger) *LLM {
	if log == nil {
		log = logger.NewNop()
	}
	return &LLM{
		client: client,
		model:  modelName,
		rnd:    personalize.DefaultRand(),
		log:    log,
	}
}

// Name returns the generator name.
func (g *LLM) Name() string {
	return "llm:" + g.client.Name()
}

// Generate substitutes the template, asks the model to polish it and parses
// the reply. A reply without a subject line gets a synthesized subject.
func (g *LLM) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	draft := personalize.Substitute(req.Template.Content, req.Recipient)

	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model:  g.model,
		System: systemPrompt,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: buildPrompt(draft, req)},
		},
		MaxTokens:   req.Settings.MaxTokens,
		Temperature: req.Settings.Temperature,
	})
	if err != nil {
		return nil, &model.TransportError{Op: "complete with " + g.client.Name(), Err: err}
	}

	subject, body := splitSubject(resp.Content)
	if body == "" {
		return nil, fmt.Errorf("%w: empty completion", model.ErrMalformedResponse)
	}
	if subject == "" {
		g.log.Debug("completion has no subject line, synthesizing one",
			zap.String("model", resp.Model),
		)
		subject = personalize.Subject(req.Recipient, g.rnd)
	}

	tokens := resp.TotalTokens()
	if tokens <= 0 {
		tokens = 1
	}

	return &model.GenerationResponse{
		Subject: subject,
		Content: body,
		Metadata: model.ResponseMetadata{
			TokensUsed:  tokens,
			GeneratedAt: g.clock.now(),
		},
	}, nil
}

func buildPrompt(draft string, req *model.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("Draft:\n")
	b.WriteString(draft)
	b.WriteString("\n\nRecipient:\n")
	for _, field := range model.RecipientFields {
		if v, _ := req.Recipient.Field(field); v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", field, v)
		}
	}
	if req.CustomInstructions != "" {
		b.WriteString("\nAdditional instructions:\n")
		b.WriteString(req.CustomInstructions)
		b.WriteString("\n")
	}
	return b.String()
}

// splitSubject separates a leading "Subject:" line from the body.
func splitSubject(text string) (subject, body string) {
	text = strings.TrimSpace(text)
	first, rest, found := strings.Cut(text, "\n")
	if !found {
		first, rest = text, ""
	}
	if s, ok := strings.CutPrefix(strings.TrimSpace(first), "Subject:"); ok {
		return strings.TrimSpace(s), strings.TrimSpace(rest)
	}
	return "", text
}
