// Package session owns the per-client conversational state: history, the
// per-session question window, the message counter, and the idle timeout.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/civilmastersolution/cms-backend/internal/kv"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

const (
	// DefaultIdleTimeout is how long a session may sit idle before it is
	// reset to a fresh empty state.
	DefaultIdleTimeout = time.Hour

	// DefaultStoreTTL is how long a session record lives in the store. It
	// exceeds the idle timeout so expiry is always observed as a reset, not
	// a silent eviction mid-conversation.
	DefaultStoreTTL = 24 * time.Hour

	keyPrefix = "chatsession:"
)

// Manager loads, resets, and persists chat sessions in the KV store.
type Manager struct {
	store       kv.Store
	idleTimeout time.Duration
	storeTTL    time.Duration
	logger      *slog.Logger

	// For time mocking in tests
	now func() time.Time
}

// Option configures the manager
type Option func(*Manager)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIdleTimeout sets the idle reset threshold
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idleTimeout = d
	}
}

// WithTimeFunc sets a custom time function (for testing)
func WithTimeFunc(fn func() time.Time) Option {
	return func(m *Manager) {
		m.now = fn
	}
}

// NewManager creates a session manager backed by the given store.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		idleTimeout: DefaultIdleTimeout,
		storeTTL:    DefaultStoreTTL,
		logger:      slog.Default(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// GetOrInit returns the session for id, creating an empty one if none
// exists. A session idle longer than the timeout is replaced wholesale with
// a fresh one: history, timestamps, and counter all cleared.
func (m *Manager) GetOrInit(ctx context.Context, id string) (*models.ChatSession, error) {
	now := m.now()

	raw, found, err := m.store.Get(ctx, keyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if !found {
		return m.fresh(now), nil
	}

	var sess models.ChatSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		m.logger.Warn("discarding corrupt session record", slog.String("session_id", id))
		return m.fresh(now), nil
	}

	if now.Unix()-sess.LastActivity > int64(m.idleTimeout/time.Second) {
		m.logger.Debug("session idle timeout, resetting",
			slog.String("session_id", id),
			slog.Int("previous_count", sess.MessageCount))
		return m.fresh(now), nil
	}

	return &sess, nil
}

// Touch marks an accepted chat turn: bumps the message counter, records the
// question timestamp in the per-session rate window, and refreshes
// last-activity.
func (m *Manager) Touch(sess *models.ChatSession) {
	now := m.now()
	sess.QuestionTimestamps = append(sess.QuestionTimestamps, now.Unix())
	sess.LastActivity = now.Unix()
	sess.MessageCount++
}

// PruneWindow drops question timestamps older than window and returns the
// remaining count.
func (m *Manager) PruneWindow(sess *models.ChatSession, window time.Duration) int {
	cutoff := m.now().Add(-window).Unix()
	kept := sess.QuestionTimestamps[:0]
	for _, ts := range sess.QuestionTimestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	sess.QuestionTimestamps = kept
	return len(kept)
}

// Append records a completed exchange in the session history.
func (m *Manager) Append(sess *models.ChatSession, question, answer string) {
	sess.History = append(sess.History, models.Exchange{Question: question, Answer: answer})
}

// Save persists the session under id.
func (m *Manager) Save(ctx context.Context, id string, sess *models.ChatSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	if err := m.store.Set(ctx, keyPrefix+id, raw, m.storeTTL); err != nil {
		return fmt.Errorf("failed to store session %s: %w", id, err)
	}
	return nil
}

func (m *Manager) fresh(now time.Time) *models.ChatSession {
	return &models.ChatSession{
		History:            []models.Exchange{},
		QuestionTimestamps: []int64{},
		LastActivity:       now.Unix(),
	}
}
