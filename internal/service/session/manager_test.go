package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilmastersolution/cms-backend/internal/kv"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	mgr := NewManager(kv.NewMemoryStore(),
		WithTimeFunc(func() time.Time { return now }))
	return mgr, &now
}

func TestGetOrInitCreatesEmptySession(t *testing.T) {
	mgr, now := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)

	assert.Empty(t, sess.History)
	assert.Empty(t, sess.QuestionTimestamps)
	assert.Zero(t, sess.MessageCount)
	assert.Equal(t, now.Unix(), sess.LastActivity)
}

func TestSaveAndReload(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)

	mgr.Touch(sess)
	mgr.Append(sess, "What is SFRC?", "Steel fiber reinforced concrete.")
	require.NoError(t, mgr.Save(ctx, "abc", sess))

	reloaded, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.MessageCount)
	require.Len(t, reloaded.History, 1)
	assert.Equal(t, "What is SFRC?", reloaded.History[0].Question)
}

func TestIdleTimeoutResetsSession(t *testing.T) {
	mgr, now := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)
	mgr.Touch(sess)
	mgr.Append(sess, "q", "a")
	require.NoError(t, mgr.Save(ctx, "abc", sess))

	// One second past the idle timeout: full reset
	*now = now.Add(time.Hour + time.Second)

	reloaded, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, reloaded.History)
	assert.Empty(t, reloaded.QuestionTimestamps)
	assert.Zero(t, reloaded.MessageCount)
	assert.Equal(t, now.Unix(), reloaded.LastActivity)
}

func TestIdleBoundaryNotReset(t *testing.T) {
	mgr, now := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)
	mgr.Touch(sess)
	require.NoError(t, mgr.Save(ctx, "abc", sess))

	// Exactly at the threshold the session survives; reset requires strictly
	// more than the idle timeout.
	*now = now.Add(time.Hour)

	reloaded, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.MessageCount)
}

func TestPruneWindow(t *testing.T) {
	mgr, now := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)

	mgr.Touch(sess)
	*now = now.Add(30 * time.Second)
	mgr.Touch(sess)
	*now = now.Add(40 * time.Second)

	// First timestamp is now 70s old, second 40s old
	count := mgr.PruneWindow(sess, time.Minute)
	assert.Equal(t, 1, count)
	assert.Len(t, sess.QuestionTimestamps, 1)
}

func TestTouchIncrementsMonotonically(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		mgr.Touch(sess)
		assert.Equal(t, i, sess.MessageCount)
	}
}

func TestCorruptSessionReplaced(t *testing.T) {
	store := kv.NewMemoryStore()
	now := time.Now()
	mgr := NewManager(store, WithTimeFunc(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "chatsession:abc", []byte("{broken"), 0))

	sess, err := mgr.GetOrInit(ctx, "abc")
	require.NoError(t, err)
	assert.Zero(t, sess.MessageCount)
}
