package generator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/personalize"
	"github.com/coldreach/email-generator/pkg/logger"
)

// Bounds of the simulated token usage, [MinTokens, MaxTokens).
const (
	MinTokens = 100
	MaxTokens = 300
)

// Default simulated processing delay.
const (
	DefaultDelayMin = 2 * time.Second
	DefaultDelayMax = 3 * time.Second
)

// Local synthesizes responses without any network dependency.
type Local struct {
	rnd      personalize.Rand
	clock    Clock
	delayMin time.Duration
	delayMax time.Duration
	log      *logger.Logger
}

// LocalOption configures a Local generator.
type LocalOption func(*Local)

// WithRand sets the random source used for subject, phrase and token draws.
func WithRand(rnd personalize.Rand) LocalOption {
	return func(l *Local) { l.rnd = rnd }
}

// WithClock sets the clock used to stamp generatedAt.
func WithClock(c Clock) LocalOption {
	return func(l *Local) { l.clock = c }
}

// WithDelay sets the simulated processing delay range. Zero disables it.
func WithDelay(lo, hi time.Duration) LocalOption {
	return func(l *Local) {
		if hi < lo {
			hi = lo
		}
		l.delayMin, l.delayMax = lo, hi
	}
}

// WithLocalLogger sets the logger.
func WithLocalLogger(log *logger.Logger) LocalOption {
	return func(l *Local) { l.log = log }
}

// NewLocal creates an offline generator.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		rnd:      personalize.DefaultRand(),
		delayMin: DefaultDelayMin,
		delayMax: DefaultDelayMax,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the generator name.
func (l *Local) Name() string {
	return "local"
}

// Generate substitutes the template, augments the body with one context
// line, picks a subject and assembles the response. It only fails when ctx
// ends during the simulated delay.
func (l *Local) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}

	body := personalize.Substitute(req.Template.Content, req.Recipient)
	if missing := personalize.Unresolved(body); len(missing) > 0 {
		l.log.Debug("template has unresolved placeholders",
			zap.String("template_id", req.Template.ID),
			zap.Strings("placeholders", missing),
		)
	}

	return &model.GenerationResponse{
		Subject: personalize.Subject(req.Recipient, l.rnd),
		Content: personalize.Augment(body, req.Recipient, l.rnd),
		Metadata: model.ResponseMetadata{
			TokensUsed:  MinTokens + l.rnd.IntN(MaxTokens-MinTokens),
			GeneratedAt: l.clock.now(),
		},
	}, nil
}

func (l *Local) wait(ctx context.Context) error {
	d := l.delayMin
	if spread := l.delayMax - l.delayMin; spread > 0 {
		d += time.Duration(l.rnd.IntN(int(spread)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
