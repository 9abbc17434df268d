package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// ProjectStore handles project-reference persistence
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a new project store
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, project_name, project_image, location, site_area, date_time, contractor, layout_type, is_favorite, position`

// List returns all project references ordered by display position
func (s *ProjectStore) List(ctx context.Context) ([]models.ProjectReference, error) {
	query := `SELECT ` + projectColumns + ` FROM project_references ORDER BY position, id`
	return s.query(ctx, query)
}

// ListFavorites returns the projects flagged for the landing-page carousel
func (s *ProjectStore) ListFavorites(ctx context.Context) ([]models.ProjectReference, error) {
	query := `SELECT ` + projectColumns + ` FROM project_references WHERE is_favorite = 1 ORDER BY position, id`
	return s.query(ctx, query)
}

func (s *ProjectStore) query(ctx context.Context, query string, args ...any) ([]models.ProjectReference, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectReference
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

// Get retrieves a project reference by ID
func (s *ProjectStore) Get(ctx context.Context, id int64) (*models.ProjectReference, error) {
	query := `SELECT ` + projectColumns + ` FROM project_references WHERE id = ?`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts a new project reference and sets its ID
func (s *ProjectStore) Create(ctx context.Context, p *models.ProjectReference) error {
	query := `
		INSERT INTO project_references (project_name, project_image, location, site_area, date_time, contractor, layout_type, is_favorite, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		p.Name, rawOrEmptyArray(p.Images), p.Location, p.SiteArea, p.DateTime,
		p.Contractor, p.LayoutType, p.IsFavorite, p.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	p.ID, err = res.LastInsertId()
	return err
}

// Update replaces a project reference's fields
func (s *ProjectStore) Update(ctx context.Context, p *models.ProjectReference) error {
	query := `
		UPDATE project_references
		SET project_name = ?, project_image = ?, location = ?, site_area = ?,
		    date_time = ?, contractor = ?, layout_type = ?, is_favorite = ?, position = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		p.Name, rawOrEmptyArray(p.Images), p.Location, p.SiteArea, p.DateTime,
		p.Contractor, p.LayoutType, p.IsFavorite, p.Position, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return requireRowAffected(res)
}

// SetFavorite flips the carousel flag on a single project
func (s *ProjectStore) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE project_references SET is_favorite = ? WHERE id = ?`, favorite, id)
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes a project reference
func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_references WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return requireRowAffected(res)
}

func scanProject(row rowScanner) (*models.ProjectReference, error) {
	var p models.ProjectReference
	var images string

	err := row.Scan(&p.ID, &p.Name, &images, &p.Location, &p.SiteArea, &p.DateTime,
		&p.Contractor, &p.LayoutType, &p.IsFavorite, &p.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p.Images = json.RawMessage(images)
	return &p, nil
}
