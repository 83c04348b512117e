// Package ollama implements the provider contract against a local Ollama
// endpoint using its native API client.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/archan-project/archan/internal/config"
	"github.com/archan-project/archan/internal/provider"
)

const retryInterval = time.Second

// Provider talks to one Ollama host. Safe for concurrent use.
type Provider struct {
	client *api.Client
	cfg    *config.Config
	log    *zap.Logger
}

// New creates a Provider for the configured host.
func New(cfg *config.Config, log *zap.Logger) (*Provider, error) {
	if cfg == nil {
		panic("cfg is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	parsed, err := url.Parse(cfg.Provider.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Provider.Host, err)
	}

	return &Provider{
		client: api.NewClient(parsed, http.DefaultClient),
		cfg:    cfg,
		log:    log,
	}, nil
}

// Chat implements provider.Provider. Each attempt runs under the configured
// request timeout; transient failures are retried up to the configured
// attempt count with a short pause between attempts.
func (p *Provider) Chat(ctx context.Context, req *provider.ChatRequest) (string, error) {
	attempts := p.cfg.Provider.RetryAttempts

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			p.log.Warn("retrying model call",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryInterval):
			}
		}

		content, err := p.chatOnce(ctx, req)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			// The caller cancelled; don't reinterpret that as unavailability.
			return "", ctx.Err()
		}
		lastErr = err
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %d attempts: %v", provider.ErrRequestTimeout, attempts, lastErr)
	}
	return "", fmt.Errorf("%w after %d attempts: %v", provider.ErrUnavailable, attempts, lastErr)
}

func (p *Provider) chatOnce(ctx context.Context, req *provider.ChatRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Provider.RequestTimeout)*time.Second)
	defer cancel()

	stream := false
	apiReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: toAPIMessages(req.Messages),
		Stream:   &stream,
		Options:  p.modelOptions(req.Model),
	}
	if req.ForceJSON {
		apiReq.Format = json.RawMessage(`"json"`)
	}

	var content string
	err := p.client.Chat(callCtx, apiReq, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// modelOptions maps the configured sampling parameters for the model, if
// any, to Ollama's options payload.
func (p *Provider) modelOptions(model string) map[string]any {
	opts, ok := p.cfg.Provider.Models[model]
	if !ok {
		return nil
	}
	return map[string]any{
		"temperature": opts.Temperature,
		"top_k":       opts.TopK,
		"top_p":       opts.TopP,
		"num_ctx":     opts.ContextSize,
	}
}

// Ping implements provider.Provider.
func (p *Provider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.client.List(ctx); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	return nil
}

// ListModels implements provider.Provider.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, len(resp.Models))
	for i, m := range resp.Models {
		names[i] = m.Name
	}
	return names, nil
}

func toAPIMessages(messages []provider.Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, m := range messages {
		out[i] = api.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
