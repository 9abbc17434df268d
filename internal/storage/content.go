package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// PartnershipStore handles partner persistence
type PartnershipStore struct {
	db *DB
}

// NewPartnershipStore creates a new partnership store
func NewPartnershipStore(db *DB) *PartnershipStore {
	return &PartnershipStore{db: db}
}

// List returns all partnerships in insertion order
func (s *PartnershipStore) List(ctx context.Context) ([]models.Partnership, error) {
	query := `SELECT id, partner_name, partner_image FROM partnerships ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list partnerships: %w", err)
	}
	defer rows.Close()

	var out []models.Partnership
	for rows.Next() {
		var p models.Partnership
		var images string
		if err := rows.Scan(&p.ID, &p.Name, &images); err != nil {
			return nil, fmt.Errorf("failed to scan partnership: %w", err)
		}
		p.Images = json.RawMessage(images)
		out = append(out, p)
	}

	return out, rows.Err()
}

// Get retrieves a partnership by ID
func (s *PartnershipStore) Get(ctx context.Context, id int64) (*models.Partnership, error) {
	query := `SELECT id, partner_name, partner_image FROM partnerships WHERE id = ?`

	var p models.Partnership
	var images string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &images)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}

	p.Images = json.RawMessage(images)
	return &p, nil
}

// Create inserts a new partnership and sets its ID
func (s *PartnershipStore) Create(ctx context.Context, p *models.Partnership) error {
	query := `INSERT INTO partnerships (partner_name, partner_image) VALUES (?, ?)`

	res, err := s.db.ExecContext(ctx, query, p.Name, rawOrEmptyArray(p.Images))
	if err != nil {
		return fmt.Errorf("failed to create partnership: %w", err)
	}

	p.ID, err = res.LastInsertId()
	return err
}

// Update replaces a partnership's fields
func (s *PartnershipStore) Update(ctx context.Context, p *models.Partnership) error {
	query := `UPDATE partnerships SET partner_name = ?, partner_image = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, p.Name, rawOrEmptyArray(p.Images), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update partnership: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes a partnership
func (s *PartnershipStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM partnerships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete partnership: %w", err)
	}

	return requireRowAffected(res)
}

// CustomerStore handles reference-customer persistence
type CustomerStore struct {
	db *DB
}

// NewCustomerStore creates a new customer store
func NewCustomerStore(db *DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// List returns all customers in insertion order
func (s *CustomerStore) List(ctx context.Context) ([]models.Customer, error) {
	query := `SELECT id, customer_name, customer_image FROM customers ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		var images string
		if err := rows.Scan(&c.ID, &c.Name, &images); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.Images = json.RawMessage(images)
		out = append(out, c)
	}

	return out, rows.Err()
}

// Get retrieves a customer by ID
func (s *CustomerStore) Get(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT id, customer_name, customer_image FROM customers WHERE id = ?`

	var c models.Customer
	var images string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &images)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	c.Images = json.RawMessage(images)
	return &c, nil
}

// Create inserts a new customer and sets its ID
func (s *CustomerStore) Create(ctx context.Context, c *models.Customer) error {
	query := `INSERT INTO customers (customer_name, customer_image) VALUES (?, ?)`

	res, err := s.db.ExecContext(ctx, query, c.Name, rawOrEmptyArray(c.Images))
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	c.ID, err = res.LastInsertId()
	return err
}

// Update replaces a customer's fields
func (s *CustomerStore) Update(ctx context.Context, c *models.Customer) error {
	query := `UPDATE customers SET customer_name = ?, customer_image = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, c.Name, rawOrEmptyArray(c.Images), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes a customer
func (s *CustomerStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	return requireRowAffected(res)
}

// rawOrEmptyArray stores JSON columns as text, defaulting empty values to an
// empty array so reads always yield valid JSON.
func rawOrEmptyArray(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "[]"
	}
	return string(raw)
}

// requireRowAffected maps a zero-row write to ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
