package respcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilmastersolution/cms-backend/internal/kv"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

func TestPutGet(t *testing.T) {
	cache := New(kv.NewMemoryStore())
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "What is SFRC?", models.LangEnglish)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Put(ctx, "What is SFRC?", models.LangEnglish, "Steel fiber reinforced concrete."))

	answer, found, err := cache.Get(ctx, "What is SFRC?", models.LangEnglish)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Steel fiber reinforced concrete.", answer)
}

func TestKeyIsExactText(t *testing.T) {
	cache := New(kv.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "What is SFRC?", models.LangEnglish, "A"))

	// A hit requires byte-identical question text
	_, found, err := cache.Get(ctx, "what is sfrc?", models.LangEnglish)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLanguageNamespacing(t *testing.T) {
	cache := New(kv.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "SFRC", models.LangEnglish, "english answer"))

	_, found, err := cache.Get(ctx, "SFRC", models.LangThai)
	require.NoError(t, err)
	assert.False(t, found, "identical text under a different language must miss")

	answer, found, err := cache.Get(ctx, "SFRC", models.LangEnglish)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "english answer", answer)
}

func TestExpiry(t *testing.T) {
	store := kv.NewMemoryStore()
	now := time.Now()
	store.SetTimeFunc(func() time.Time { return now })

	cache := New(store, WithTTL(5*time.Minute))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "q", models.LangEnglish, "a"))

	now = now.Add(5*time.Minute + time.Second)

	_, found, err := cache.Get(ctx, "q", models.LangEnglish)
	require.NoError(t, err)
	assert.False(t, found, "entry past its TTL must not be served")
}
