// Package catalog defines the recommendation source contract and its static implementations.
package catalog

import (
	"context"
	"sort"

	"github.com/Houeta/recom-feed/internal/models"
)

// Source supplies products for a user. Implementations must return the list
// already ranked by relevance score, highest first.
type Source interface {
	FetchRecommendations(ctx context.Context, userID string) ([]models.Product, error)
}

// SourceFunc adapts an ordinary function to the Source interface.
type SourceFunc func(ctx context.Context, userID string) ([]models.Product, error)

// FetchRecommendations calls f(ctx, userID).
func (f SourceFunc) FetchRecommendations(ctx context.Context, userID string) ([]models.Product, error) {
	return f(ctx, userID)
}

// SortByRelevance orders products by descending relevance score.
// Products with equal scores keep their relative order.
func SortByRelevance(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].RelevanceScore > products[j].RelevanceScore
	})
}
