package interaction

import (
	"fmt"

	"github.com/Houeta/recom-feed/internal/models"
)

// Share pretends to copy a share link for p.
func Share(p models.Product) models.Notice {
	return models.Notice{
		Kind: models.NoticeShare,
		Text: fmt.Sprintf("Share link copied for %s - pretend we shared it!", p.Title),
	}
}

// AddToCart acknowledges a cart action without touching any state.
func AddToCart(p models.Product) models.Notice {
	return models.Notice{Kind: models.NoticeCart, Text: fmt.Sprintf("Added %s to cart (mock)", p.Title)}
}

func SaveToWishlist(p models.Product) models.Notice {
	return models.Notice{Kind: models.NoticeWishlist, Text: fmt.Sprintf("Added %s to wishlist (mock)", p.Title)}
}

func OpenProfile() models.Notice {
	return models.Notice{Kind: models.NoticeProfile, Text: "Profile menu (stub)"}
}

func Explore() models.Notice {
	return models.Notice{Kind: models.NoticeExplore, Text: "Explore more (stub)"}
}

func Help() models.Notice {
	return models.Notice{
		Kind: models.NoticeHelp,
		Text: "Tip: Tap Chat to ask about sizing, delivery & alternatives!",
	}
}
