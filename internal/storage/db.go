package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't handle concurrent writes well
	db.SetMaxIdleConns(1)

	return &DB{db}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationPartnerships,
		migrationCustomers,
		migrationProducts,
		migrationProjectReferences,
		migrationNews,
		migrationArticles,
		migrationLeads,
		migrationAdmins,
		migrationIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

const migrationPartnerships = `
CREATE TABLE IF NOT EXISTS partnerships (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	partner_name TEXT NOT NULL,
	partner_image TEXT NOT NULL DEFAULT '[]'
);
`

const migrationCustomers = `
CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_name TEXT NOT NULL,
	customer_image TEXT NOT NULL DEFAULT '[]'
);
`

const migrationProducts = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_name TEXT NOT NULL,
	product_image TEXT NOT NULL DEFAULT '[]',
	product_description TEXT NOT NULL DEFAULT '',
	success TEXT NOT NULL DEFAULT '[]',
	benefit TEXT NOT NULL DEFAULT '[]',
	performance TEXT NOT NULL DEFAULT '[]',
	comments TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0
);
`

const migrationProjectReferences = `
CREATE TABLE IF NOT EXISTS project_references (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_name TEXT NOT NULL,
	project_image TEXT NOT NULL DEFAULT '[]',
	location TEXT NOT NULL DEFAULT '',
	site_area TEXT NOT NULL DEFAULT '',
	date_time TEXT NOT NULL DEFAULT '',
	contractor TEXT NOT NULL DEFAULT '',
	layout_type INTEGER NOT NULL DEFAULT 1,
	is_favorite INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0
);
`

const migrationNews = `
CREATE TABLE IF NOT EXISTS news (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	news_title TEXT NOT NULL,
	news_image TEXT NOT NULL DEFAULT '[]',
	keyword TEXT NOT NULL DEFAULT '[]',
	content TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationArticles = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	article_title TEXT NOT NULL,
	article_image TEXT NOT NULL DEFAULT '[]',
	keyword TEXT NOT NULL DEFAULT '[]',
	content TEXT NOT NULL DEFAULT '[]',
	category TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationLeads = `
CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name TEXT NOT NULL,
	email_address TEXT NOT NULL,
	contact_number TEXT NOT NULL DEFAULT '',
	company_name TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	comments TEXT NOT NULL DEFAULT '',
	product_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	request_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationAdmins = `
CREATE TABLE IF NOT EXISTS admins (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationIndexes = `
CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);
CREATE INDEX IF NOT EXISTS idx_projects_position ON project_references(position);
CREATE INDEX IF NOT EXISTS idx_projects_favorite ON project_references(is_favorite);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_request_time ON leads(request_time);
CREATE INDEX IF NOT EXISTS idx_news_created_at ON news(created_at);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
`
