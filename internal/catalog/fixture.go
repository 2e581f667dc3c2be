package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Houeta/recom-feed/internal/models"
	"gopkg.in/yaml.v3"
)

// Fixture is a static Source that simulates a ranking backend.
type Fixture struct {
	log      *slog.Logger
	latency  time.Duration
	products []models.Product
}

// NewFixture creates a Fixture serving the given products after latency.
// A nil products slice serves the built-in sample catalog.
func NewFixture(log *slog.Logger, latency time.Duration, products []models.Product) *Fixture {
	if products == nil {
		products = SampleProducts()
	}

	return &Fixture{log: log, latency: latency, products: products}
}

// FetchRecommendations returns a ranked copy of the fixture products.
func (f *Fixture) FetchRecommendations(ctx context.Context, userID string) ([]models.Product, error) {
	const opn = "catalog.Fixture.FetchRecommendations"

	f.log.DebugContext(ctx, "Simulating recommendation request", "op", opn, "user", userID, "latency", f.latency)

	if f.latency > 0 {
		timer := time.NewTimer(f.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", opn, ctx.Err())
		case <-timer.C:
		}
	}

	products := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		products = append(products, p.Clone())
	}
	SortByRelevance(products)

	return products, nil
}

// SampleProducts returns the built-in demo catalog in its unranked order.
func SampleProducts() []models.Product {
	return []models.Product{
		{
			ID:        "p1",
			Title:     "Crimson Nike Flyknit Sneakers",
			Price:     8695, //nolint:mnd // fixture data
			Image:     "images/rednikeflyknit.jpg",
			LikeCount: 124, //nolint:mnd // fixture data
			Comments: []models.Comment{
				{ID: 1, Author: "Asha", Text: "Love this for travel"},
				{ID: 2, Author: "Rahul", Text: "Durable & stylish"},
			},
			RelevanceScore: 0.93, //nolint:mnd // fixture data
		},
		{
			ID:             "p2",
			Title:          "Wireless Noise Cancelling Headphones",
			Price:          199, //nolint:mnd // fixture data
			Image:          "https://images.unsplash.com/photo-1518444023984-6f0f35fef2d6?w=1000&q=80",
			LikeCount:      334, //nolint:mnd // fixture data
			Comments:       []models.Comment{{ID: 1, Author: "Nina", Text: "Battery lasts forever"}},
			RelevanceScore: 0.97, //nolint:mnd // fixture data
		},
		{
			ID:             "p3",
			Title:          "Handmade Ceramic Mug",
			Price:          24, //nolint:mnd // fixture data
			Image:          "https://images.unsplash.com/photo-1517685352821-92cf88aee5a5?w=1000&q=80",
			LikeCount:      58, //nolint:mnd // fixture data
			Comments:       []models.Comment{},
			RelevanceScore: 0.78, //nolint:mnd // fixture data
		},
		{
			ID:             "p4",
			Title:          "Minimalist Sneaker",
			Price:          129, //nolint:mnd // fixture data
			Image:          "https://images.unsplash.com/photo-1600180758890-0b5aa8e2c06e?w=1000&q=80",
			LikeCount:      412, //nolint:mnd // fixture data
			Comments:       []models.Comment{{ID: 1, Author: "Sai", Text: "So comfy!"}},
			RelevanceScore: 0.99, //nolint:mnd // fixture data
		},
	}
}

// LoadFixtureFile reads a YAML list of products and returns them ranked by relevance.
func LoadFixtureFile(path string) ([]models.Product, error) {
	const opn = "catalog.LoadFixtureFile"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", opn, path, err)
	}

	var products []models.Product
	if err = yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%s: failed to decode %s: %w", opn, path, err)
	}

	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%s: product #%d has no id", opn, i)
		}
		if p.RelevanceScore < 0 || p.RelevanceScore > 1 {
			return nil, fmt.Errorf("%s: product %s has score %v outside [0,1]", opn, p.ID, p.RelevanceScore)
		}
	}
	SortByRelevance(products)

	return products, nil
}
