package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

func TestLeadStore_CreateDefaults(t *testing.T) {
	db := newTestDB(t)
	store := NewLeadStore(db)
	ctx := context.Background()

	lead := &models.Lead{
		FullName:     "Somchai J.",
		EmailAddress: "somchai@example.co.th",
		ProductName:  "Steel Fiber",
	}
	require.NoError(t, store.Create(ctx, lead))
	require.NotZero(t, lead.ID)

	got, err := store.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadPending, got.Status)
	assert.False(t, got.RequestTime.IsZero())
}

func TestLeadStore_ListByStatus(t *testing.T) {
	db := newTestDB(t)
	store := NewLeadStore(db)
	ctx := context.Background()

	first := &models.Lead{FullName: "A", EmailAddress: "a@example.com"}
	second := &models.Lead{FullName: "B", EmailAddress: "b@example.com"}
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	require.NoError(t, store.UpdateStatus(ctx, first.ID, models.LeadComplete))

	pending, err := store.List(ctx, models.LeadPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "B", pending[0].FullName)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLeadStore_UpdateStatusMissing(t *testing.T) {
	db := newTestDB(t)
	store := NewLeadStore(db)

	err := store.UpdateStatus(context.Background(), 12345, models.LeadComplete)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeadStore_Delete(t *testing.T) {
	db := newTestDB(t)
	store := NewLeadStore(db)
	ctx := context.Background()

	lead := &models.Lead{FullName: "C", EmailAddress: "c@example.com"}
	require.NoError(t, store.Create(ctx, lead))

	require.NoError(t, store.Delete(ctx, lead.ID))
	_, err := store.Get(ctx, lead.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
