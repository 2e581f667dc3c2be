// Package interaction applies social actions to products and guards their invariants.
// Every mutation of a feed product goes through these functions.
package interaction

import (
	"errors"
	"strings"

	"github.com/Houeta/recom-feed/internal/models"
)

var (
	// ErrInvalidInput is returned for empty or whitespace-only text. Callers drop it silently.
	ErrInvalidInput = errors.New("text is empty")
	// ErrNegativeLikes is returned when a toggle would leave a negative like count.
	ErrNegativeLikes = errors.New("like count would become negative")
)

// NormalizeText trims s and rejects it when nothing is left.
func NormalizeText(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrInvalidInput
	}

	return trimmed, nil
}

// ToggleLike flips the like flag and moves the like count with it by exactly one.
func ToggleLike(p models.Product) (models.Product, error) {
	if p.Liked {
		if p.LikeCount <= 0 {
			return p, ErrNegativeLikes
		}
		p.LikeCount--
		p.Liked = false

		return p, nil
	}

	p.LikeCount++
	p.Liked = true

	return p, nil
}

// AddComment returns a copy of p with c appended after its trimmed text is validated.
// Existing comments are never modified.
func AddComment(p models.Product, c models.Comment) (models.Product, error) {
	text, err := NormalizeText(c.Text)
	if err != nil {
		return p, err
	}
	c.Text = text

	comments := make([]models.Comment, len(p.Comments), len(p.Comments)+1)
	copy(comments, p.Comments)
	p.Comments = append(comments, c)

	return p, nil
}

// NextCommentID returns an id greater than every comment id already on p.
func NextCommentID(p models.Product) int64 {
	var maxID int64
	for _, c := range p.Comments {
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	return maxID + 1
}
