package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chain tries completers in order (primary model first, then fallbacks),
// each up to 1+retries times. The first success wins. When every attempt
// fails the last error is returned, still wrapping ErrTimeout or ErrProvider.
type Chain struct {
	links   []Completer
	names   []string
	retries int
	logger  *slog.Logger
}

// NewChain creates a Chain. names label links in log output and may be
// shorter than links.
func NewChain(logger *slog.Logger, retries int, links []Completer, names ...string) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{links: links, names: names, retries: max(retries, 0), logger: logger}
}

// Complete implements Completer.
func (c *Chain) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(c.links) == 0 {
		return "", fmt.Errorf("%w: no completers configured", ErrProvider)
	}

	var lastErr error
	for i, link := range c.links {
		for attempt := 0; attempt <= c.retries; attempt++ {
			if err := ctx.Err(); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return "", fmt.Errorf("%w: %w", ErrTimeout, err)
				}
				return "", fmt.Errorf("%w: %w", ErrProvider, err)
			}
			out, err := link.Complete(ctx, messages)
			if err == nil {
				if i > 0 {
					c.logger.Warn("completion served by fallback", "link", c.name(i))
				}
				return out, nil
			}
			lastErr = err
			c.logger.Warn("completion attempt failed",
				"link", c.name(i),
				"attempt", attempt+1,
				"timeout", errors.Is(err, ErrTimeout),
				"error", err,
			)
		}
	}
	if !IsFailure(lastErr) {
		lastErr = fmt.Errorf("%w: %w", ErrProvider, lastErr)
	}
	return "", lastErr
}

func (c *Chain) name(i int) string {
	if i < len(c.names) && c.names[i] != "" {
		return c.names[i]
	}
	return fmt.Sprintf("#%d", i)
}
