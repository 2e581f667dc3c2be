package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Houeta/recom-feed/internal/assistant"
	"github.com/Houeta/recom-feed/internal/feed"
	"github.com/Houeta/recom-feed/internal/interaction"
	"github.com/Houeta/recom-feed/internal/models"
	"github.com/Houeta/recom-feed/internal/services/browsing"
	"gopkg.in/telebot.v4"
)

const (
	msgUnavailable = "Recommendations are unavailable right now. Send /feed to try again."
	msgUsage       = `Personalized picks, ranked for you.

/feed - show your feed
/top - top picks for you
/product <id> - product details and all comments
/search <text> - filter the feed (empty resets)
/like <id> - like or unlike
/comment <id> <text> - leave a comment
/quick <id> - quick comment
/share <id>, /cart <id>, /save <id>
/chat <id> - ask the assistant about a product
/close - close the assistant
/profile, /explore, /help`
	msgNoChat = "Tap /chat <id> to ask about a product."

	topPicks = 3
)

// sessionHandler turns a command payload into the text sent back to the user.
// An empty result sends nothing.
type sessionHandler func(sess *browsing.Session, payload string) string

// startHandler process command /start. It also resets the chat, so the feed
// is reloaded and any assistant session is closed.
func (b *Bot) startHandler(ctx telebot.Context) error {
	if ctx.Sender() != nil {
		b.log.Info("User started the bot", "username", ctx.Sender().Username)
	}
	b.resetChat(ctx)

	if err := ctx.Send("Hello! " + msgUsage); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

func (b *Bot) resetChat(ctx telebot.Context) {
	if ctx.Chat() != nil {
		b.sessions.Forget(ctx.Chat().ID)
	}
}

func (b *Bot) handleHelp(_ *browsing.Session, _ string) string {
	return interaction.Help().Text + "\n\n" + msgUsage
}

func (b *Bot) handleFeed(sess *browsing.Session, _ string) string {
	return renderFeed(sess.Feed.Visible(), sess.Feed.Query(), sess.Feed.TopRelevance())
}

func (b *Bot) handleTop(sess *browsing.Session, _ string) string {
	return renderTopPicks(sess.Feed.TopPicks(topPicks))
}

func (b *Bot) handleProduct(sess *browsing.Session, payload string) string {
	p, err := sess.Feed.Get(strings.TrimSpace(payload))
	if err != nil {
		return b.mutationError(err, payload)
	}

	return renderProductDetail(p)
}

func (b *Bot) handleSearch(sess *browsing.Session, payload string) string {
	sess.Feed.SetQuery(payload)

	return renderFeed(sess.Feed.Visible(), payload, sess.Feed.TopRelevance())
}

func (b *Bot) handleLike(sess *browsing.Session, payload string) string {
	p, err := sess.Feed.ToggleLike(strings.TrimSpace(payload))
	if err != nil {
		return b.mutationError(err, payload)
	}

	verb := "Unliked"
	if p.Liked {
		verb = "Liked"
	}

	return fmt.Sprintf("%s %s (%d likes)", verb, p.Title, p.LikeCount)
}

func (b *Bot) handleComment(sess *browsing.Session, payload string) string {
	id, text, _ := strings.Cut(strings.TrimSpace(payload), " ")

	before, err := sess.Feed.Get(id)
	if err != nil {
		return b.mutationError(err, id)
	}

	p, err := sess.Comment(id, text)
	if err != nil {
		return b.mutationError(err, id)
	}
	if len(p.Comments) == len(before.Comments) {
		// blank comments are dropped without a word
		return ""
	}

	return renderProduct(p)
}

func (b *Bot) handleQuickComment(sess *browsing.Session, payload string) string {
	p, err := sess.Feed.QuickComment(strings.TrimSpace(payload), sess.UserName)
	if err != nil {
		return b.mutationError(err, payload)
	}

	return renderProduct(p)
}

func (b *Bot) handleShare(sess *browsing.Session, payload string) string {
	return b.withProduct(sess, payload, interaction.Share)
}

func (b *Bot) handleCart(sess *browsing.Session, payload string) string {
	return b.withProduct(sess, payload, interaction.AddToCart)
}

func (b *Bot) handleSave(sess *browsing.Session, payload string) string {
	return b.withProduct(sess, payload, interaction.SaveToWishlist)
}

func (b *Bot) handleProfile(_ *browsing.Session, _ string) string {
	return interaction.OpenProfile().Text
}

func (b *Bot) handleExplore(_ *browsing.Session, _ string) string {
	return interaction.Explore().Text
}

func (b *Bot) handleChat(sess *browsing.Session, payload string) string {
	greet, err := sess.Chat(strings.TrimSpace(payload))
	if err != nil {
		return b.mutationError(err, payload)
	}

	return "Assistant: " + greet.Text
}

func (b *Bot) handleClose(sess *browsing.Session, _ string) string {
	if !sess.Assistant.IsOpen() {
		return msgNoChat
	}
	sess.Assistant.Close()

	return "Chat closed."
}

// handleText forwards plain messages to the open assistant session.
func (b *Bot) handleText(sess *browsing.Session, payload string) string {
	if _, err := sess.Assistant.Send(payload); err != nil {
		if errors.Is(err, assistant.ErrNoSession) {
			return msgNoChat
		}
		b.log.Error("failed to send message to assistant", "op", "bot.handleText", "error", err)
	}

	return ""
}

func (b *Bot) withProduct(sess *browsing.Session, payload string, action func(models.Product) models.Notice) string {
	p, err := sess.Feed.Get(strings.TrimSpace(payload))
	if err != nil {
		return b.mutationError(err, payload)
	}

	return action(p).Text
}

func (b *Bot) mutationError(err error, id string) string {
	if errors.Is(err, feed.ErrProductNotFound) {
		return fmt.Sprintf("No product with id %q. Send /feed to see the ids.", strings.TrimSpace(id))
	}
	b.log.Error("feed mutation failed", "id", id, "error", err)

	return "Something went wrong, please try again."
}
