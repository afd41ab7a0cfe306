package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Client tries its providers in order and returns the first success.
// It holds only read-only configuration and is safe for concurrent use.
type Client struct {
	log       zerolog.Logger
	providers []Provider
}

// NewClient creates a client over providers in priority order.
func NewClient(log zerolog.Logger, providers ...Provider) *Client {
	ps := make([]Provider, len(providers))
	copy(ps, providers)
	return &Client{log: log, providers: ps}
}

// Providers returns provider names in priority order.
func (c *Client) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// BestMove queries providers one at a time. A failed provider is never retried
// within the same call. When every provider fails the error is an
// *AllProvidersFailedError.
func (c *Client) BestMove(ctx context.Context, req Request) (*Result, error) {
	var attempts *multierror.Error

	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			attempts = multierror.Append(attempts, fmt.Errorf("canceled before provider %s: %w", p.Name(), err))
			break
		}

		start := time.Now()
		res, err := p.Query(ctx, req)
		if err == nil {
			err = validResult(p.Name(), res)
		}
		if err != nil {
			attempts = multierror.Append(attempts, err)
			ev := c.log.Warn().
				Err(err).
				Str("provider", p.Name()).
				Int("attempt", i+1).
				Int("of", len(c.providers)).
				Dur("elapsed", time.Since(start))
			var pe *ProviderError
			if errors.As(err, &pe) {
				ev = ev.Str("kind", string(pe.Kind))
			}
			ev.Msg("engine provider failed")
			continue
		}

		c.log.Debug().
			Str("provider", p.Name()).
			Str("best_move", res.BestMove).
			Str("score", res.Score.String()).
			Int("depth", res.Depth).
			Int("lines", len(res.Lines)).
			Dur("elapsed", time.Since(start)).
			Msg("engine provider succeeded")
		return res, nil
	}

	failed := &AllProvidersFailedError{Attempts: attempts}
	c.log.Error().
		Str("fen", req.Position).
		Int("providers", len(c.providers)).
		Err(failed).
		Msg("all engine providers failed")
	return nil, failed
}

// validResult rejects results that break the Result invariants.
func validResult(provider string, res *Result) error {
	if res == nil || len(res.Lines) == 0 {
		return providerErr(provider, KindNoLines, fmt.Errorf("empty result"))
	}
	if res.BestMove != res.Lines[0].Move || res.Score != res.Lines[0].Score {
		return providerErr(provider, KindIncomplete, fmt.Errorf("best move does not match first line"))
	}
	return nil
}
