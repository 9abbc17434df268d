package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

func TestAdminStore_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewAdminStore(db)
	ctx := context.Background()

	admin := &models.Admin{
		Username:     "cms-admin",
		Email:        "admin@civilmastersolution.com",
		PasswordHash: "$2a$10$fakehashfortest",
	}
	require.NoError(t, store.Create(ctx, admin))
	require.NotZero(t, admin.ID)

	got, err := store.GetByUsername(ctx, "cms-admin")
	require.NoError(t, err)
	assert.Equal(t, admin.Email, got.Email)
	assert.Equal(t, admin.PasswordHash, got.PasswordHash)
}

func TestAdminStore_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	store := NewAdminStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Admin{Username: "dup", PasswordHash: "h1"}))

	err := store.Create(ctx, &models.Admin{Username: "dup", PasswordHash: "h2"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAdminStore_GetMissing(t *testing.T) {
	db := newTestDB(t)
	store := NewAdminStore(db)

	_, err := store.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminStore_UpdatePassword(t *testing.T) {
	db := newTestDB(t)
	store := NewAdminStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Admin{Username: "rotate", PasswordHash: "old"}))
	require.NoError(t, store.UpdatePassword(ctx, "rotate", "new"))

	got, err := store.GetByUsername(ctx, "rotate")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
}

func TestAdminStore_Delete(t *testing.T) {
	db := newTestDB(t)
	store := NewAdminStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Admin{Username: "bye", PasswordHash: "h"}))
	require.NoError(t, store.Delete(ctx, "bye"))

	_, err := store.GetByUsername(ctx, "bye")
	assert.ErrorIs(t, err, ErrNotFound)
}
