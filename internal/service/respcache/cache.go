// Package respcache memoizes fully generated chat answers for a short TTL so
// repeated questions never reach the budget tracker or the paid API.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/civilmastersolution/cms-backend/internal/kv"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// DefaultTTL is how long a cached answer stays valid.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "chatresp:"

// Cache stores answers keyed by a language-namespaced hash of the question
// text. The language namespace guards against a cross-language collision
// serving an answer in the wrong language.
type Cache struct {
	store kv.Store
	ttl   time.Duration
}

// Option configures the cache
type Option func(*Cache)

// WithTTL overrides the answer time-to-live
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// New creates a response cache backed by the given store.
func New(store kv.Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		ttl:   DefaultTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached answer for question, if present and unexpired.
func (c *Cache) Get(ctx context.Context, question string, lang models.Language) (string, bool, error) {
	raw, found, err := c.store.Get(ctx, c.key(question, lang))
	if err != nil {
		return "", false, fmt.Errorf("failed to read response cache: %w", err)
	}
	if !found {
		return "", false, nil
	}
	return string(raw), true, nil
}

// Put stores answer under the question's key for the configured TTL.
func (c *Cache) Put(ctx context.Context, question string, lang models.Language, answer string) error {
	if err := c.store.Set(ctx, c.key(question, lang), []byte(answer), c.ttl); err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

func (c *Cache) key(question string, lang models.Language) string {
	sum := sha256.Sum256([]byte(question))
	return keyPrefix + string(lang) + ":" + hex.EncodeToString(sum[:16])
}
