package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Houeta/recom-feed/internal/config"
	"github.com/Houeta/recom-feed/internal/models"
	"gopkg.in/telebot.v4"
)

// Bot contains the bot API instance and other information.
type Bot struct {
	bot      API
	log      *slog.Logger
	sessions Sessions
	limiter  *chatLimiter
	// defaultName signs comments of senders without a visible name.
	defaultName string
}

func NewBot(log *slog.Logger, cfg config.Telegram, defaultName string, sessions Sessions) (*Bot, error) {
	if cfg.Token == "" {
		return nil, config.ErrEmptyToken
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on acount", "account", bot.Me.Username)

	botInstance := &Bot{
		bot:         bot,
		log:         log,
		sessions:    sessions,
		limiter:     newChatLimiter(cfg.RateLimit, cfg.RateBurst),
		defaultName: defaultName,
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// DeliverReply pushes an assistant reply to the chat it belongs to.
func (b *Bot) DeliverReply(chatID int64, msg models.Message) {
	if _, err := b.bot.Send(telebot.ChatID(chatID), "Assistant: "+msg.Text); err != nil {
		b.log.Error("failed to deliver assistant reply", "op", "bot.DeliverReply", "chat", chatID, "error", err)
	}
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Use(b.rateLimit)

	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/help", b.withSession(b.handleHelp))
	b.bot.Handle("/feed", b.withSession(b.handleFeed))
	b.bot.Handle("/top", b.withSession(b.handleTop))
	b.bot.Handle("/product", b.withSession(b.handleProduct))
	b.bot.Handle("/search", b.withSession(b.handleSearch))
	b.bot.Handle("/like", b.withSession(b.handleLike))
	b.bot.Handle("/comment", b.withSession(b.handleComment))
	b.bot.Handle("/quick", b.withSession(b.handleQuickComment))
	b.bot.Handle("/share", b.withSession(b.handleShare))
	b.bot.Handle("/cart", b.withSession(b.handleCart))
	b.bot.Handle("/save", b.withSession(b.handleSave))
	b.bot.Handle("/profile", b.withSession(b.handleProfile))
	b.bot.Handle("/explore", b.withSession(b.handleExplore))
	b.bot.Handle("/chat", b.withSession(b.handleChat))
	b.bot.Handle("/close", b.withSession(b.handleClose))
	b.bot.Handle(telebot.OnText, b.withSession(b.handleText))
}

const loadTimeout = 10 * time.Second

// withSession resolves the browsing session of the sender and sends back whatever fn returns.
func (b *Bot) withSession(fn sessionHandler) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		sess, err := b.sessions.Get(ctx, c.Chat().ID, senderName(c.Sender(), b.defaultName))
		if err != nil {
			b.log.WarnContext(ctx, "Feed is unavailable", "chat", c.Chat().ID, "error", err)
			return c.Send(msgUnavailable)
		}

		reply := fn(sess, payloadOf(c))
		if reply == "" {
			return nil
		}

		if err = c.Send(reply); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}

		return nil
	}
}

// payloadOf returns the command arguments, or the whole text for plain messages.
func payloadOf(c telebot.Context) string {
	m := c.Message()
	if m == nil {
		return ""
	}
	if strings.HasPrefix(m.Text, "/") {
		return strings.TrimSpace(m.Payload)
	}

	return m.Text
}

// senderName picks the name comments are signed with.
func senderName(u *telebot.User, fallback string) string {
	switch {
	case u != nil && u.FirstName != "":
		return u.FirstName
	case u != nil && u.Username != "":
		return u.Username
	case fallback != "":
		return fallback
	default:
		return "You"
	}
}
