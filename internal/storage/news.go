package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// NewsStore handles news persistence
type NewsStore struct {
	db       *DB
	timeFunc func() time.Time
}

// NewNewsStore creates a new news store
func NewNewsStore(db *DB) *NewsStore {
	return &NewsStore{db: db, timeFunc: time.Now}
}

const newsColumns = `id, news_title, news_image, keyword, content, created_at, updated_at`

// List returns all news items, newest first
func (s *NewsStore) List(ctx context.Context) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	var out []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}

	return out, rows.Err()
}

// Get retrieves a news item by ID
func (s *NewsStore) Get(ctx context.Context, id int64) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE id = ?`

	n, err := scanNews(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return n, err
}

// Create inserts a news item and sets its ID and timestamps
func (s *NewsStore) Create(ctx context.Context, n *models.News) error {
	now := s.timeFunc().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	query := `
		INSERT INTO news (news_title, news_image, keyword, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		n.Title, rawOrEmptyArray(n.Images), rawOrEmptyArray(n.Keywords), rawOrEmptyArray(n.Content),
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create news: %w", err)
	}

	n.ID, err = res.LastInsertId()
	return err
}

// Update replaces a news item's fields and bumps updated_at
func (s *NewsStore) Update(ctx context.Context, n *models.News) error {
	n.UpdatedAt = s.timeFunc().UTC()

	query := `
		UPDATE news
		SET news_title = ?, news_image = ?, keyword = ?, content = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		n.Title, rawOrEmptyArray(n.Images), rawOrEmptyArray(n.Keywords), rawOrEmptyArray(n.Content),
		n.UpdatedAt, n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update news: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes a news item
func (s *NewsStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete news: %w", err)
	}

	return requireRowAffected(res)
}

func scanNews(row rowScanner) (*models.News, error) {
	var n models.News
	var images, keywords, content string

	err := row.Scan(&n.ID, &n.Title, &images, &keywords, &content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan news: %w", err)
	}

	n.Images = json.RawMessage(images)
	n.Keywords = json.RawMessage(keywords)
	n.Content = json.RawMessage(content)
	return &n, nil
}

// ArticleStore handles article persistence
type ArticleStore struct {
	db       *DB
	timeFunc func() time.Time
}

// NewArticleStore creates a new article store
func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db, timeFunc: time.Now}
}

const articleColumns = `id, article_title, article_image, keyword, content, category, created_at, updated_at`

// List returns all articles, newest first
func (s *ArticleStore) List(ctx context.Context) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var out []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}

	return out, rows.Err()
}

// Get retrieves an article by ID
func (s *ArticleStore) Get(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

	a, err := scanArticle(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Create inserts an article and sets its ID and timestamps
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) error {
	now := s.timeFunc().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO articles (article_title, article_image, keyword, content, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		a.Title, rawOrEmptyArray(a.Images), rawOrEmptyArray(a.Keywords), rawOrEmptyArray(a.Content),
		a.Category, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}

	a.ID, err = res.LastInsertId()
	return err
}

// Update replaces an article's fields and bumps updated_at
func (s *ArticleStore) Update(ctx context.Context, a *models.Article) error {
	a.UpdatedAt = s.timeFunc().UTC()

	query := `
		UPDATE articles
		SET article_title = ?, article_image = ?, keyword = ?, content = ?, category = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		a.Title, rawOrEmptyArray(a.Images), rawOrEmptyArray(a.Keywords), rawOrEmptyArray(a.Content),
		a.Category, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}

	return requireRowAffected(res)
}

// Delete removes an article
func (s *ArticleStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	return requireRowAffected(res)
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	var images, keywords, content string

	err := row.Scan(&a.ID, &a.Title, &images, &keywords, &content, &a.Category, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	a.Images = json.RawMessage(images)
	a.Keywords = json.RawMessage(keywords)
	a.Content = json.RawMessage(content)
	return &a, nil
}
