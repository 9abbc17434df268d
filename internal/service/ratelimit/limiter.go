// Package ratelimit implements sliding-window request counting over the
// shared key-value store. Two instances guard the chat endpoint: a coarse
// per-IP window protecting shared infrastructure and a fine per-session
// window protecting individual conversations (e.g. clients behind one NAT).
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/civilmastersolution/cms-backend/internal/kv"
)

// Limiter tracks request timestamps per identity in the KV store.
type Limiter struct {
	store  kv.Store
	prefix string
	logger *slog.Logger

	// For time mocking in tests
	now func() time.Time
}

// Option configures the limiter
type Option func(*Limiter)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// WithTimeFunc sets a custom time function (for testing)
func WithTimeFunc(fn func() time.Time) Option {
	return func(l *Limiter) {
		l.now = fn
	}
}

// New creates a limiter whose keys are namespaced by prefix so independent
// scopes (ip, session) never collide in the shared store.
func New(store kv.Store, prefix string, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		prefix: prefix,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Allow prunes timestamps older than window for identity, rejects if the
// remaining count has reached max (without recording the attempt), and
// otherwise records now and accepts. The window is stored pruned either way.
func (l *Limiter) Allow(ctx context.Context, identity string, window time.Duration, max int) (bool, error) {
	key := l.key(identity)
	now := l.now()
	cutoff := now.Add(-window)

	var stamps []int64
	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read rate window for %s: %w", identity, err)
	}
	if found {
		if err := json.Unmarshal(raw, &stamps); err != nil {
			// A corrupt window is discarded rather than blocking traffic.
			l.logger.Warn("discarding corrupt rate window",
				slog.String("key", key),
				slog.String("error", err.Error()))
			stamps = nil
		}
	}

	kept := stamps[:0]
	for _, ts := range stamps {
		if time.Unix(ts, 0).After(cutoff) {
			kept = append(kept, ts)
		}
	}

	allowed := len(kept) < max
	if allowed {
		kept = append(kept, now.Unix())
	}

	raw, err = json.Marshal(kept)
	if err != nil {
		return false, fmt.Errorf("failed to encode rate window: %w", err)
	}
	if err := l.store.Set(ctx, key, raw, window); err != nil {
		return false, fmt.Errorf("failed to store rate window for %s: %w", identity, err)
	}

	return allowed, nil
}

func (l *Limiter) key(identity string) string {
	return l.prefix + ":" + identity
}
