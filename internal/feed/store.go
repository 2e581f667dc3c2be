// Package feed owns the in-memory ranked list of products and their social state.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Houeta/recom-feed/internal/catalog"
	"github.com/Houeta/recom-feed/internal/interaction"
	"github.com/Houeta/recom-feed/internal/models"
)

// QuickCommentText is posted by the one-tap comment action.
const QuickCommentText = "Nice product!"

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrProductNotFound    = errors.New("product not found")
)

// Store keeps the loaded feed. Mutations are applied in call order.
type Store struct {
	log     *slog.Logger
	source  catalog.Source
	timeout time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	userID   string
	products []models.Product
	index    map[string]int
	query    string
}

// NewStore creates an empty Store. timeout bounds every Load call; zero disables the bound.
func NewStore(log *slog.Logger, source catalog.Source, timeout time.Duration) *Store {
	return &Store{
		log:     log,
		source:  source,
		timeout: timeout,
		now:     time.Now,
		index:   map[string]int{},
	}
}

// Load fetches the ranked products for userID and replaces the feed with them.
// On failure the previous feed is kept and ErrCatalogUnavailable is returned.
func (s *Store) Load(ctx context.Context, userID string) (models.FeedState, error) {
	const opn = "feed.Store.Load"
	log := s.log.With("op", opn, "user", userID)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	products, err := s.fetch(ctx, userID)
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch recommendations", "error", err)
		return models.FeedState{}, fmt.Errorf("%s: %w: %w", opn, ErrCatalogUnavailable, err)
	}

	loaded := make([]models.Product, 0, len(products))
	index := make(map[string]int, len(products))
	for _, p := range products {
		if _, dup := index[p.ID]; dup {
			log.WarnContext(ctx, "Skipping duplicate product id", "id", p.ID)
			continue
		}
		if p.Price < 0 || p.RelevanceScore < 0 || p.RelevanceScore > 1 {
			log.WarnContext(ctx, "Skipping malformed product", "id", p.ID,
				"price", p.Price, "score", p.RelevanceScore)
			continue
		}
		if p.LikeCount < 0 {
			log.WarnContext(ctx, "Negative like count reset to zero", "id", p.ID, "likes", p.LikeCount)
			p.LikeCount = 0
		}
		p = p.Clone()
		p.Liked = false
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
		index[p.ID] = len(loaded)
		loaded = append(loaded, p)
	}

	s.mu.Lock()
	s.userID = userID
	s.products = loaded
	s.index = index
	s.mu.Unlock()

	log.InfoContext(ctx, "Feed loaded", "count", len(loaded))

	return s.Snapshot(), nil
}

type fetchResult struct {
	products []models.Product
	err      error
}

// fetch returns as soon as ctx is done, even when the source ignores it.
// A late result is discarded.
func (s *Store) fetch(ctx context.Context, userID string) ([]models.Product, error) {
	done := make(chan fetchResult, 1)
	go func() {
		products, err := s.source.FetchRecommendations(ctx, userID)
		done <- fetchResult{products: products, err: err}
	}()

	select {
	case res := <-done:
		return res.products, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Filter returns the products whose title contains query, ignoring case, in feed order.
func (s *Store) Filter(query string) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterLocked(query)
}

func (s *Store) filterLocked(query string) []models.Product {
	needle := strings.ToLower(query)
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p.Clone())
		}
	}

	return out
}

// SetQuery stores the current search query.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.query
}

// Visible returns the feed filtered by the stored query.
func (s *Store) Visible() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterLocked(s.query)
}

// Get returns a copy of the product with the given id.
func (s *Store) Get(productID string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[productID]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	return s.products[i].Clone(), nil
}

// Products returns a copy of the whole feed in ranked order.
func (s *Store) Products() []models.Product {
	return s.Filter("")
}

// TopPicks returns up to n products from the head of the feed.
func (s *Store) TopPicks(n int) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n = max(0, min(n, len(s.products)))
	out := make([]models.Product, 0, n)
	for _, p := range s.products[:n] {
		out = append(out, p.Clone())
	}

	return out
}

// TopRelevance is the score of the best ranked product, or 0 for an empty feed.
func (s *Store) TopRelevance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.products) == 0 {
		return 0
	}

	return s.products[0].RelevanceScore
}

// Snapshot returns a read-only copy of the feed state.
func (s *Store) Snapshot() models.FeedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.FeedState{
		UserID:      s.userID,
		Products:    s.filterLocked(""),
		SearchQuery: s.query,
	}
}

// ToggleLike flips the like flag of a product. Unknown ids leave the feed
// untouched and return ErrProductNotFound.
func (s *Store) ToggleLike(productID string) (models.Product, error) {
	const opn = "feed.Store.ToggleLike"

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		s.log.Debug("Like on unknown product ignored", "op", opn, "id", productID)
		return models.Product{}, fmt.Errorf("%s: %w: %s", opn, ErrProductNotFound, productID)
	}

	updated, err := interaction.ToggleLike(s.products[i])
	if err != nil {
		return s.products[i].Clone(), fmt.Errorf("%s: %w", opn, err)
	}
	s.products[i] = updated

	return updated.Clone(), nil
}

// AddComment appends a comment by authorName. Blank text is dropped silently:
// the product is returned unchanged with a nil error.
func (s *Store) AddComment(productID, authorName, text string) (models.Product, error) {
	const opn = "feed.Store.AddComment"

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return models.Product{}, fmt.Errorf("%s: %w: %s", opn, ErrProductNotFound, productID)
	}

	current := s.products[i]
	comment := models.Comment{
		ID:        interaction.NextCommentID(current),
		Author:    authorName,
		Text:      text,
		CreatedAt: s.now(),
	}

	updated, err := interaction.AddComment(current, comment)
	if errors.Is(err, interaction.ErrInvalidInput) {
		return current.Clone(), nil
	}
	if err != nil {
		return current.Clone(), fmt.Errorf("%s: %w", opn, err)
	}
	s.products[i] = updated

	return updated.Clone(), nil
}

// QuickComment posts the canned comment on behalf of authorName.
func (s *Store) QuickComment(productID, authorName string) (models.Product, error) {
	return s.AddComment(productID, authorName, QuickCommentText)
}
