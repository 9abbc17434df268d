package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// ProductStore handles product catalog persistence
type ProductStore struct {
	db *DB
}

// NewProductStore creates a new product store
func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, product_name, product_image, product_description, success, benefit, performance, comments, position`

// List returns all products ordered by display position
func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

// Get retrieves a product by ID
func (s *ProductStore) Get(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByName retrieves a product by its display name
func (s *ProductStore) GetByName(ctx context.Context, name string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_name = ?`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts a new product and sets its ID
func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (product_name, product_image, product_description, success, benefit, performance, comments, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		p.Name, rawOrEmptyArray(p.Images), p.Description,
		rawOrEmptyArray(p.Success), rawOrEmptyArray(p.Benefit), rawOrEmptyArray(p.Performance),
		p.Comments, p.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	p.ID, err = res.LastInsertId()
	return err
}

// Update replaces a product's fields
func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET product_name = ?, product_image = ?, product_description = ?,
		    success = ?, benefit = ?, performance = ?, comments = ?, position = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		p.Name, rawOrEmptyArray(p.Images), p.Description,
		rawOrEmptyArray(p.Success), rawOrEmptyArray(p.Benefit), rawOrEmptyArray(p.Performance),
		p.Comments, p.Position, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes a product
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var images, success, benefit, performance string

	err := row.Scan(&p.ID, &p.Name, &images, &p.Description, &success, &benefit, &performance, &p.Comments, &p.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Images = json.RawMessage(images)
	p.Success = json.RawMessage(success)
	p.Benefit = json.RawMessage(benefit)
	p.Performance = json.RawMessage(performance)
	return &p, nil
}
