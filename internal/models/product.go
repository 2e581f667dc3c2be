package models

import "time"

// Product is a recommendable catalog item together with its social state.
type Product struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Price          float64   `yaml:"price"`
	Image          string    `yaml:"image"`
	LikeCount      int       `yaml:"likes"`
	Liked          bool      `yaml:"-"`
	Comments       []Comment `yaml:"comments"`
	RelevanceScore float64   `yaml:"score"`
}

// Comment is a single append-only review left on a product.
type Comment struct {
	ID        int64     `yaml:"id"`
	Author    string    `yaml:"user"`
	Text      string    `yaml:"text"`
	CreatedAt time.Time `yaml:"-"`
}

// MatchPercent returns the relevance score as a rounded percentage.
func (p Product) MatchPercent() int {
	return int(p.RelevanceScore*100 + 0.5) //nolint:mnd // percent
}

// Clone returns a copy of the product that shares no comment storage with p.
func (p Product) Clone() Product {
	if p.Comments != nil {
		comments := make([]Comment, len(p.Comments))
		copy(comments, p.Comments)
		p.Comments = comments
	}

	return p
}

// FeedState is a read-only snapshot of the feed for rendering.
type FeedState struct {
	UserID      string
	Products    []Product
	SearchQuery string
}
