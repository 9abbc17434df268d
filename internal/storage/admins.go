package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// AdminStore handles back-office user persistence
type AdminStore struct {
	db       *DB
	timeFunc func() time.Time
}

// NewAdminStore creates a new admin store
func NewAdminStore(db *DB) *AdminStore {
	return &AdminStore{db: db, timeFunc: time.Now}
}

// Create inserts a new admin. The password must already be hashed.
func (s *AdminStore) Create(ctx context.Context, admin *models.Admin) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = s.timeFunc().UTC()
	}

	query := `INSERT INTO admins (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, admin.Username, admin.Email, admin.PasswordHash, admin.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	admin.ID, err = res.LastInsertId()
	return err
}

// GetByUsername retrieves an admin by username
func (s *AdminStore) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM admins WHERE username = ?`

	var admin models.Admin
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&admin.ID, &admin.Username, &admin.Email, &admin.PasswordHash, &admin.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return &admin, nil
}

// UpdatePassword replaces an admin's password hash
func (s *AdminStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE admins SET password_hash = ? WHERE username = ?`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes an admin
func (s *AdminStore) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}

	return requireRowAffected(res)
}
