package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// LeadStore handles inbound inquiry persistence
type LeadStore struct {
	db       *DB
	timeFunc func() time.Time
}

// NewLeadStore creates a new lead store
func NewLeadStore(db *DB) *LeadStore {
	return &LeadStore{db: db, timeFunc: time.Now}
}

const leadColumns = `id, full_name, email_address, contact_number, company_name, country, comments, product_name, status, request_time`

// Create inserts a new lead, defaulting status to pending
func (s *LeadStore) Create(ctx context.Context, lead *models.Lead) error {
	if lead.Status == "" {
		lead.Status = models.LeadPending
	}
	if lead.RequestTime.IsZero() {
		lead.RequestTime = s.timeFunc().UTC()
	}

	query := `
		INSERT INTO leads (full_name, email_address, contact_number, company_name, country, comments, product_name, status, request_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		lead.FullName, lead.EmailAddress, lead.ContactNumber, lead.CompanyName,
		lead.Country, lead.Comments, lead.ProductName, lead.Status, lead.RequestTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	lead.ID, err = res.LastInsertId()
	return err
}

// Get retrieves a lead by ID
func (s *LeadStore) Get(ctx context.Context, id int64) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = ?`

	lead, err := scanLead(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return lead, err
}

// List returns leads newest first, optionally filtered by status
func (s *LeadStore) List(ctx context.Context, status models.LeadStatus) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var args []any

	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY request_time DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lead)
	}

	return out, rows.Err()
}

// UpdateStatus transitions a lead's handling state
func (s *LeadStore) UpdateStatus(ctx context.Context, id int64, status models.LeadStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes a lead
func (s *LeadStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	return requireRowAffected(res)
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var lead models.Lead

	err := row.Scan(&lead.ID, &lead.FullName, &lead.EmailAddress, &lead.ContactNumber,
		&lead.CompanyName, &lead.Country, &lead.Comments, &lead.ProductName,
		&lead.Status, &lead.RequestTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	return &lead, nil
}
