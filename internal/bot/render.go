package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Houeta/recom-feed/internal/models"
)

const previewComments = 2

func renderFeed(products []models.Product, query string, topRelevance float64) string {
	if len(products) == 0 {
		return fmt.Sprintf("No products found for “%s”", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Relevance: %d%%\n", int(topRelevance*100+0.5)) //nolint:mnd // percent
	for _, p := range products {
		sb.WriteString("\n")
		sb.WriteString(renderProduct(p))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func renderProduct(p models.Product) string {
	var sb strings.Builder

	heart := "♡"
	if p.Liked {
		heart = "♥"
	}

	fmt.Fprintf(&sb, "[%s] %s • ₹%s\n", p.ID, p.Title, strconv.FormatFloat(p.Price, 'f', -1, 64))
	fmt.Fprintf(&sb, "Suggested • %d%% match\n", p.MatchPercent())
	fmt.Fprintf(&sb, "%s %d   comments %d\n", heart, p.LikeCount, len(p.Comments))

	if len(p.Comments) == 0 {
		sb.WriteString("No reviews yet - be the first to comment!")
		return sb.String()
	}

	previews := make([]string, 0, previewComments)
	for _, c := range p.Comments[:min(previewComments, len(p.Comments))] {
		previews = append(previews, c.Author+": "+c.Text)
	}
	sb.WriteString(strings.Join(previews, " | "))

	return sb.String()
}

// renderProductDetail shows every comment of p and the actions available on it.
func renderProductDetail(p models.Product) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", p.Title)
	fmt.Fprintf(&sb, "Price: ₹%s\n", strconv.FormatFloat(p.Price, 'f', 2, 64))
	fmt.Fprintf(&sb, "Match: %d%%\n", p.MatchPercent())
	fmt.Fprintf(&sb, "Likes: %d\n\n", p.LikeCount)

	fmt.Fprintf(&sb, "Comments (%d)\n", len(p.Comments))
	if len(p.Comments) == 0 {
		sb.WriteString("No reviews yet - be the first to comment!\n")
	}
	for _, c := range p.Comments {
		fmt.Fprintf(&sb, "%s: %s\n", c.Author, c.Text)
	}

	fmt.Fprintf(&sb, "\n/cart %[1]s - add to cart\n/share %[1]s - share\n/chat %[1]s - ask the assistant", p.ID)

	return sb.String()
}

func renderTopPicks(products []models.Product) string {
	if len(products) == 0 {
		return "No picks yet."
	}

	var sb strings.Builder
	sb.WriteString("Top picks")
	for i, p := range products {
		fmt.Fprintf(&sb, "\n%d. [%s] %s • %d%% match", i+1, p.ID, p.Title, p.MatchPercent())
	}

	return sb.String()
}
