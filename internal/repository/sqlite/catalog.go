package sqlite

import (
	"context"
	"fmt"

	"github.com/Houeta/recom-feed/internal/models"
	"github.com/Houeta/recom-feed/internal/repository"
)

// FetchRecommendations returns the stored catalog ranked by relevance.
// The catalog is not personalised, so userID is only logged.
func (r *Repository) FetchRecommendations(ctx context.Context, userID string) ([]models.Product, error) {
	const opn = "repository.sqlite.FetchRecommendations"

	// 1. Get all products in ranked order
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, price, image, like_count, relevance_score FROM products "+
			"ORDER BY relevance_score DESC, position ASC")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get products: %w", opn, err)
	}
	defer rows.Close()

	var products []models.Product
	index := map[string]int{}
	for rows.Next() {
		var p models.Product
		if err = rows.Scan(&p.ID, &p.Title, &p.Price, &p.Image, &p.LikeCount, &p.RelevanceScore); err != nil {
			return nil, fmt.Errorf("%s: failed to scan product: %w", opn, err)
		}
		p.Comments = []models.Comment{}
		index[p.ID] = len(products)
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%s: %w", opn, repository.ErrCatalogEmpty)
	}

	// 2. Attach comments in insertion order
	crows, err := r.db.QueryContext(ctx, "SELECT product_id, id, author, text FROM comments ORDER BY product_id, id")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get comments: %w", opn, err)
	}
	defer crows.Close()

	for crows.Next() {
		var (
			productID string
			c         models.Comment
		)
		if err = crows.Scan(&productID, &c.ID, &c.Author, &c.Text); err != nil {
			return nil, fmt.Errorf("%s: failed to scan comment: %w", opn, err)
		}
		if i, ok := index[productID]; ok {
			products[i].Comments = append(products[i].Comments, c)
		}
	}

	if err = crows.Err(); err != nil {
		return nil, fmt.Errorf("%s: comment rows iteration error: %w", opn, err)
	}

	r.log.DebugContext(ctx, "Loaded catalog", "op", opn, "user", userID, "count", len(products))

	return products, nil
}

// ReplaceCatalog atomically replaces the stored catalog using a transaction.
func (r *Repository) ReplaceCatalog(ctx context.Context, products []models.Product) error {
	const opn = "repository.sqlite.ReplaceCatalog"

	// 1. begin transaction
	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit only returns sql.ErrTxDone

	// 2. Completely clear the tables to record the new catalog.
	if _, err = tx.ExecContext(ctx, "DELETE FROM comments"); err != nil {
		return fmt.Errorf("%s: failed to delete old comments: %w", opn, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("%s: failed to delete old products: %w", opn, err)
	}

	// 3. Prepare statements for the insertion of the new catalog.
	productStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO products (id, title, price, image, like_count, relevance_score, position) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%s: failed to prepare product statement: %w", opn, err)
	}
	defer productStmt.Close()

	commentStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO comments (product_id, id, author, text) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%s: failed to prepare comment statement: %w", opn, err)
	}
	defer commentStmt.Close()

	// 4. Insert each product followed by its comments.
	for pos, p := range products {
		if _, err = productStmt.ExecContext(ctx,
			p.ID, p.Title, p.Price, p.Image, p.LikeCount, p.RelevanceScore, pos); err != nil {
			return fmt.Errorf("%s: failed to insert product %s: %w", opn, p.ID, err)
		}
		for _, c := range p.Comments {
			if _, err = commentStmt.ExecContext(ctx, p.ID, c.ID, c.Author, c.Text); err != nil {
				return fmt.Errorf("%s: failed to insert comment %d of %s: %w", opn, c.ID, p.ID, err)
			}
		}
	}

	// 5. If all operations went through without errors - confirm the transaction.
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	r.log.InfoContext(ctx, "Catalog replaced", "op", opn, "count", len(products))

	return nil
}
