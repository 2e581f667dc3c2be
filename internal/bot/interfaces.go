package bot

import (
	"context"

	"github.com/Houeta/recom-feed/internal/services/browsing"
	"gopkg.in/telebot.v4"
)

type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Use adds middleware to the global bot chain.
	Use(middleware ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Sessions hands out the browsing session of a chat.
type Sessions interface {
	Get(ctx context.Context, chatID int64, userName string) (*browsing.Session, error)
	// Forget drops the session so the next Get starts from a fresh feed.
	Forget(chatID int64)
}
