// Package gateway provides social post gateway implementations and the
// caller-side throttling wrapper the synchronizer talks through.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/kenbot/inventory-sync/internal/postsync"
	"github.com/kenbot/inventory-sync/internal/types"
)

// Throttle defaults. The gateway's published limits are coarse, so the
// defaults stay well under them.
const (
	DefaultRPS            = 2.0
	DefaultBurst          = 1
	DefaultMaxRetries     = 3
	DefaultBackoffInitial = 2 * time.Second
	DefaultBackoffMax     = 20 * time.Second
	DefaultCallTimeout    = 30 * time.Second
)

// ThrottledConfig tunes the throttling wrapper.
type ThrottledConfig struct {
	RPS            float64
	Burst          int
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	CallTimeout    time.Duration
}

// Throttled wraps a Gateway with a token-bucket rate limit, a per-call
// timeout, and bounded retries with exponential backoff on transient errors.
// Exhausted retries surface as a TransientError for that unit of work only.
type Throttled struct {
	inner          postsync.Gateway
	limiter        *rate.Limiter
	maxRetries     int
	backoffInitial time.Duration
	backoffMax     time.Duration
	callTimeout    time.Duration
}

// NewThrottled wraps inner with throttling and retry behavior.
func NewThrottled(inner postsync.Gateway, cfg ThrottledConfig) *Throttled {
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = DefaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Throttled{
		inner:          inner,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		maxRetries:     cfg.MaxRetries,
		backoffInitial: cfg.BackoffInitial,
		backoffMax:     cfg.BackoffMax,
		callTimeout:    cfg.CallTimeout,
	}
}

// Create publishes a new post through the throttle.
func (t *Throttled) Create(ctx context.Context, text string, photos []string) (string, error) {
	var postID string
	err := t.call(ctx, "create post", func(callCtx context.Context) error {
		var err error
		postID, err = t.inner.Create(callCtx, text, photos)
		return err
	})
	return postID, err
}

// Update rewrites an existing post's text through the throttle.
func (t *Throttled) Update(ctx context.Context, postID, text string) error {
	return t.call(ctx, "update post", func(callCtx context.Context) error {
		return t.inner.Update(callCtx, postID, text)
	})
}

// ListRecent lists recent posts through the throttle.
func (t *Throttled) ListRecent(ctx context.Context, limit int) ([]postsync.Post, error) {
	var posts []postsync.Post
	err := t.call(ctx, "list recent posts", func(callCtx context.Context) error {
		var err error
		posts, err = t.inner.ListRecent(callCtx, limit)
		return err
	})
	return posts, err
}

func (t *Throttled) call(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := t.backoffInitial

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s canceled while waiting for rate limit: %w", op, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !types.IsTransient(err) {
			return err
		}
		if attempt == t.maxRetries {
			break
		}

		sleep := backoff + time.Duration(rand.Int63n(int64(backoff/4)+1))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled during backoff: %w", op, ctx.Err())
		case <-time.After(sleep):
		}
		backoff *= 2
		if backoff > t.backoffMax {
			backoff = t.backoffMax
		}
	}

	return &types.TransientError{
		Op:    fmt.Sprintf("%s (retries exhausted after %d attempts)", op, t.maxRetries+1),
		Cause: lastErr,
	}
}
