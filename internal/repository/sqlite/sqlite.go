package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/Houeta/recom-feed/internal/models"
	_ "github.com/mattn/go-sqlite3" // database/sql driver
)

// CatalogRepository is a ranked product catalog stored in a database.
type CatalogRepository interface {
	FetchRecommendations(ctx context.Context, userID string) ([]models.Product, error)
	ReplaceCatalog(ctx context.Context, products []models.Product) error
	Close() error
}

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. It holds a reference to the database
// and a logger instance for logging operations.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens the database at storagePath and makes sure the schema exists.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	// Open (or create if it doesn't exist) the database file.
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Check if the connection is actually established.
	if err = dtb.PingContext(ctx); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	// Perform the initial schema migration.
	if err = initSchema(ctx, dtb); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest wraps an existing handle without running migrations.
func NewForTest(dtb *sql.DB) *Repository {
	return &Repository{db: dtb, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY NOT NULL,
		title TEXT NOT NULL,
		price REAL NOT NULL CHECK (price >= 0),
		image TEXT NOT NULL DEFAULT '',
		like_count INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		relevance_score REAL NOT NULL CHECK (relevance_score BETWEEN 0 AND 1),
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comments (
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		author TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (product_id, id)
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
