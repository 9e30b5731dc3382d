package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/metrics"
)

// FallbackClient tries the primary provider, then the secondary exactly once.
// It never returns an error: callers substitute default content on "".
type FallbackClient struct {
	primary   port.CompletionProvider
	secondary port.CompletionProvider
	timeout   time.Duration
	logger    *zap.Logger
}

func NewFallbackClient(primary, secondary port.CompletionProvider, timeout time.Duration, logger *zap.Logger) *FallbackClient {
	return &FallbackClient{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
		logger:    logger,
	}
}

// Enabled reports whether at least one provider is configured.
func (c *FallbackClient) Enabled() bool {
	return c != nil && (c.primary != nil || c.secondary != nil)
}

func (c *FallbackClient) GenerateText(ctx context.Context, prompt string) string {
	return c.generate(ctx, prompt)
}

// GenerateJSONLike has the same contract as GenerateText. The caller locates
// the JSON payload with ExtractJSON.
func (c *FallbackClient) GenerateJSONLike(ctx context.Context, prompt string) string {
	return c.generate(ctx, prompt)
}

func (c *FallbackClient) generate(ctx context.Context, prompt string) string {
	if !c.Enabled() {
		return ""
	}
	for i, p := range []port.CompletionProvider{c.primary, c.secondary} {
		if p == nil {
			continue
		}
		text, err := c.call(ctx, p, prompt)
		if err == nil {
			metrics.LLMRequestsTotal.WithLabelValues(p.Name(), "success").Inc()
			return text
		}
		metrics.LLMRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
		if i == 0 {
			c.logger.Warn("primary language model failed, falling back", zap.String("provider", p.Name()), zap.Error(err))
		} else {
			c.logger.Warn("secondary language model failed", zap.String("provider", p.Name()), zap.Error(err))
		}
	}
	return ""
}

func (c *FallbackClient) call(ctx context.Context, p port.CompletionProvider, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	text, err := p.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
