package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/service"
)

// Drafter turns drafting prompts into document text. It layers caching,
// rate limiting, and retries over a Client.
type Drafter struct {
	client      Client
	cache       *draftCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewDrafter creates a drafter for the configured provider.
func NewDrafter(cfg Config, logger *slog.Logger) (*Drafter, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewDrafterWithClient(client, cfg, logger), nil
}

// NewDrafterWithClient creates a drafter around an existing client.
func NewDrafterWithClient(client Client, cfg Config, logger *slog.Logger) *Drafter {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Drafter{
		client:      client,
		cache:       newDraftCache(cfg.CacheTTL),
		logger:      common.LoggerOrDefault(logger),
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// Draft returns the model's document text for the request.
func (d *Drafter) Draft(ctx context.Context, req Request) (string, error) {
	key := cacheKey(req)
	if text, found := d.cache.get(key); found {
		d.logger.Debug("draft cache hit")
		return text, nil
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		if err := d.rateLimiter.wait(ctx); err != nil {
			return common.Permanent(err)
		}

		resp, err := d.client.Complete(ctx, req)
		if err != nil {
			return err
		}

		text = cleanDraft(resp.Text)
		if text == "" {
			return fmt.Errorf("empty draft from model")
		}

		d.logger.Debug("draft generated",
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens)
		return nil
	}, d.retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to draft document: %w", err)
	}

	d.cache.set(key, text)
	return text, nil
}

// Close releases background resources.
func (d *Drafter) Close() {
	d.cache.Close()
	d.rateLimiter.Close()
}

// cleanDraft strips a markdown code fence the model may wrap its answer in.
func cleanDraft(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
