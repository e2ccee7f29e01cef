package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/pkg/logger"
)

// DefaultRemoteTimeout bounds a single generation call.
const DefaultRemoteTimeout = 60 * time.Second

// responseSchema describes the payload a generation API must return.
var responseSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["subject", "content", "metadata"],
	"properties": {
		"subject": {"type": "string"},
		"content": {"type": "string"},
		"metadata": {
			"type": "object",
			"required": ["tokensUsed", "generatedAt"],
			"properties": {
				"tokensUsed": {"type": "integer", "minimum": 1},
				"generatedAt": {"type": "string", "format": "date-time"}
			}
		}
	}
}`)

// RemoteConfig configures a Remote generator.
type RemoteConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration

	// Strict rejects payloads that do not match the expected shape with
	// model.ErrMalformedResponse instead of passing absent fields through.
	Strict bool
}

// Remote forwards generation requests to an HTTP generation API.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
	log    *logger.Logger
}

type remoteResponse struct {
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	Metadata *struct {
		TokensUsed  int    `json:"tokensUsed"`
		GeneratedAt string `json:"generatedAt"`
	} `json:"metadata"`
}

// NewRemote creates a remote generator. A nil client gets one with
// cfg.Timeout.
func NewRemote(cfg RemoteConfig, client *http.Client, log *logger.Logger) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Remote{cfg: cfg, client: client, log: log}
}

// Name returns the generator name.
func (r *Remote) Name() string {
	return "remote"
}

// Generate posts the full request to the generation API and returns what it
// reports. A per-request settings API key takes precedence over the
// configured one; without either no call is made.
func (r *Remote) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	const op = "generate email"

	apiKey := req.Settings.APIKey
	if apiKey == "" {
		apiKey = r.cfg.APIKey
	}
	if apiKey == "" {
		return nil, model.ErrConfigurationMissing
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.TransportError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return r.decode(body)
}

func (r *Remote) decode(body []byte) (*model.GenerationResponse, error) {
	if r.cfg.Strict {
		if err := validateShape(body); err != nil {
			return nil, err
		}
	}

	var wire remoteResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}

	out := &model.GenerationResponse{
		Subject: wire.Subject,
		Content: wire.Content,
	}
	if wire.Metadata == nil {
		r.log.Warn("generation response has no metadata")
		return out, nil
	}

	out.Metadata.TokensUsed = wire.Metadata.TokensUsed
	if wire.Metadata.GeneratedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, wire.Metadata.GeneratedAt)
		if err != nil {
			r.log.Warn("generation response has unparseable generatedAt",
				zap.String("generated_at", wire.Metadata.GeneratedAt),
				zap.Error(err),
			)
		} else {
			out.Metadata.GeneratedAt = ts
		}
	}
	return out, nil
}

func validateShape(body []byte) error {
	result, err := gojsonschema.Validate(responseSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, errs)
	}
	return nil
}

// IsRetryable reports whether err came from the transport and a caller could
// reasonably try again. The generator itself never retries.
func IsRetryable(err error) bool {
	var te *model.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == 0 || te.StatusCode == http.StatusTooManyRequests || te.StatusCode >= 500
}
