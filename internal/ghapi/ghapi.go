// Package ghapi provides a GitHub API preflight for remote ingestions.
//
// The check mirrors what an operator would do by hand when ingestion starts
// failing with auth errors: look at the rate limit before blaming the tool.
// It is purely diagnostic; a failed or exhausted check never blocks the
// ingestion itself.
package ghapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// preflightTimeout bounds the diagnostic call so it cannot delay ingestion
// noticeably.
const preflightTimeout = 5 * time.Second

// Client wraps the GitHub API client.
type Client struct {
	gh *github.Client
}

// NewClient creates a client, authenticated when a token is provided.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{gh: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{gh: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// RateLimit returns the core API rate limit: remaining calls, the total
// limit, and the reset time.
func (c *Client) RateLimit(ctx context.Context) (remaining, limit int, reset time.Time, err error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("fetching rate limit: %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return 0, 0, time.Time{}, fmt.Errorf("rate limit response missing core resource")
	}
	return core.Remaining, core.Limit, core.Reset.Time, nil
}

// Preflight logs the current rate-limit state and warns when the limit is
// exhausted. Errors are swallowed: the ingestion tool reports its own
// failures through stderr.
func (c *Client) Preflight(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	remaining, limit, reset, err := c.RateLimit(ctx)
	if err != nil {
		slog.Debug("rate limit preflight skipped", "error", err)
		return
	}

	if remaining == 0 {
		slog.Warn("GitHub API rate limit exhausted", "limit", limit, "resets_at", reset)
		return
	}
	slog.Debug("GitHub API rate limit ok", "remaining", remaining, "limit", limit)
}
