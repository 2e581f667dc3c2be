package bot

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Houeta/recom-feed/internal/assistant"
	"github.com/Houeta/recom-feed/internal/catalog"
	"github.com/Houeta/recom-feed/internal/config"
	"github.com/Houeta/recom-feed/internal/models"
	"github.com/Houeta/recom-feed/internal/services/browsing"
	"github.com/Houeta/recom-feed/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return true }

// newTestRegistry returns a fixture-backed registry whose assistant timers never fire.
func newTestRegistry() *browsing.Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return browsing.NewRegistry(logger, browsing.Options{
		Source: catalog.NewFixture(logger, 0, nil),
		Responder: assistant.ResponderFunc(func(models.Product) (time.Duration, string) {
			return time.Second, "tip"
		}),
		AfterFunc: func(time.Duration, func()) assistant.Timer { return stoppedTimer{} },
	})
}

// newTestSession returns a loaded session of chat 1.
func newTestSession(t *testing.T) *browsing.Session {
	t.Helper()

	sess, err := newTestRegistry().Get(t.Context(), 1, "Asha")
	require.NoError(t, err)

	return sess
}

func newTestBot(t *testing.T) (*Bot, *mocks.API) {
	t.Helper()

	mockBot := mocks.NewAPI(t)

	return &Bot{
		bot:     mockBot,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		limiter: newChatLimiter(0, 1),
	}, mockBot
}

func TestStart(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Start").Once()

	logger := slog.Default()
	testBot := Bot{bot: mockBot, log: logger}

	testBot.Start()

	mockBot.AssertExpectations(t)
}

func TestStop(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Stop").Once()

	logger := slog.Default()
	testBot := Bot{bot: mockBot, log: logger}

	testBot.Stop()

	mockBot.AssertExpectations(t)
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)

	mockBot.On("Use", mock.AnythingOfType("telebot.MiddlewareFunc")).Once()
	mockBot.On("Handle", "/start", mock.AnythingOfType("telebot.HandlerFunc")).Once()
	mockBot.On("Handle", telebot.OnText, mock.AnythingOfType("telebot.HandlerFunc")).Once()
	for _, cmd := range []string{
		"/help", "/feed", "/top", "/product", "/search", "/like", "/comment", "/quick", "/share",
		"/cart", "/save", "/profile", "/explore", "/chat", "/close",
	} {
		mockBot.On("Handle", cmd, mock.AnythingOfType("telebot.HandlerFunc")).Once()
	}

	logger := slog.Default()
	testBot := Bot{bot: mockBot, log: logger}

	testBot.registerRoutes()

	mockBot.AssertExpectations(t)
}

func TestNewBot_EmptyToken(t *testing.T) {
	_, err := NewBot(slog.Default(), config.Telegram{}, "You", nil)

	require.ErrorIs(t, err, config.ErrEmptyToken)
}

func TestDeliverReply(t *testing.T) {
	t.Run("sends to chat", func(t *testing.T) {
		b, mockBot := newTestBot(t)
		mockBot.On("Send", telebot.ChatID(42), "Assistant: tip").Return(&telebot.Message{}, nil).Once()

		b.DeliverReply(42, models.Message{Text: "tip"})
	})

	t.Run("send error is only logged", func(t *testing.T) {
		b, mockBot := newTestBot(t)
		mockBot.On("Send", telebot.ChatID(42), mock.Anything).Return(nil, errors.New("blocked")).Once()

		assert.NotPanics(t, func() { b.DeliverReply(42, models.Message{Text: "tip"}) })
	})
}

func TestFeedHandlers(t *testing.T) {
	b, _ := newTestBot(t)

	t.Run("feed lists ranked products", func(t *testing.T) {
		sess := newTestSession(t)

		out := b.handleFeed(sess, "")

		assert.Contains(t, out, "Relevance: 99%")
		assert.Less(t, strings.Index(out, "[p4]"), strings.Index(out, "[p2]"))
		assert.Less(t, strings.Index(out, "[p1]"), strings.Index(out, "[p3]"))
		assert.Contains(t, out, "No reviews yet")
	})

	t.Run("top picks", func(t *testing.T) {
		sess := newTestSession(t)

		out := b.handleTop(sess, "")

		assert.Equal(t, "Top picks\n"+
			"1. [p4] Minimalist Sneaker • 99% match\n"+
			"2. [p2] Wireless Noise Cancelling Headphones • 97% match\n"+
			"3. [p1] Crimson Nike Flyknit Sneakers • 93% match", out)
		assert.NotContains(t, out, "[p3]")
	})

	t.Run("product detail lists every comment", func(t *testing.T) {
		sess := newTestSession(t)
		_, err := sess.Comment("p1", "Third one")
		require.NoError(t, err)

		out := b.handleProduct(sess, " p1 ")

		assert.Contains(t, out, "Price: ₹8695.00")
		assert.Contains(t, out, "Comments (3)")
		assert.Contains(t, out, "Asha: Love this for travel")
		assert.Contains(t, out, "Rahul: Durable & stylish")
		assert.Contains(t, out, "Asha: Third one")
		assert.Contains(t, out, "/cart p1")
		assert.Contains(t, out, "/chat p1")
		assert.NotContains(t, renderProduct(mustGet(t, sess, "p1")), "Third one")

		assert.Contains(t, b.handleProduct(sess, "p3"), "No reviews yet")
		assert.Contains(t, b.handleProduct(sess, "zzz"), `No product with id "zzz"`)
	})

	t.Run("search filters and remembers the query", func(t *testing.T) {
		sess := newTestSession(t)

		out := b.handleSearch(sess, "mug")

		assert.Contains(t, out, "[p3]")
		assert.NotContains(t, out, "[p4]")
		assert.Equal(t, out, b.handleFeed(sess, ""))
		assert.Equal(t, "No products found for “laptop”", b.handleSearch(sess, "laptop"))
	})

	t.Run("like toggles", func(t *testing.T) {
		sess := newTestSession(t)

		assert.Equal(t, "Liked Crimson Nike Flyknit Sneakers (125 likes)", b.handleLike(sess, "p1"))
		assert.Equal(t, "Unliked Crimson Nike Flyknit Sneakers (124 likes)", b.handleLike(sess, " p1 "))
		assert.Contains(t, b.handleLike(sess, "zzz"), `No product with id "zzz"`)
	})

	t.Run("comment", func(t *testing.T) {
		sess := newTestSession(t)

		out := b.handleComment(sess, "p3 Lovely glaze")
		assert.Contains(t, out, "Asha: Lovely glaze")

		assert.Empty(t, b.handleComment(sess, "p3    "))
		p, err := sess.Feed.Get("p3")
		require.NoError(t, err)
		assert.Len(t, p.Comments, 1)

		assert.Contains(t, b.handleComment(sess, "nope hi"), "No product")
	})

	t.Run("quick comment", func(t *testing.T) {
		sess := newTestSession(t)

		assert.Contains(t, b.handleQuickComment(sess, "p4"), "Asha: Nice product!")
	})

	t.Run("stubs", func(t *testing.T) {
		sess := newTestSession(t)
		before := sess.Feed.Snapshot()

		assert.Contains(t, b.handleShare(sess, "p2"), "Share link copied for Wireless Noise Cancelling Headphones")
		assert.Contains(t, b.handleCart(sess, "p2"), "cart")
		assert.Contains(t, b.handleSave(sess, "p2"), "wishlist")
		assert.Contains(t, b.handleShare(sess, "x"), "No product")
		assert.Equal(t, "Profile menu (stub)", b.handleProfile(sess, ""))
		assert.Equal(t, "Explore more (stub)", b.handleExplore(sess, ""))
		assert.Contains(t, b.handleHelp(sess, ""), "/chat <id>")
		assert.Equal(t, before, sess.Feed.Snapshot())
	})
}

func mustGet(t *testing.T, sess *browsing.Session, id string) models.Product {
	t.Helper()

	p, err := sess.Feed.Get(id)
	require.NoError(t, err)

	return p
}

func TestStartResetsChat(t *testing.T) {
	reg := newTestRegistry()
	sess, err := reg.Get(t.Context(), 7, "Asha")
	require.NoError(t, err)
	_, err = sess.Chat("p2")
	require.NoError(t, err)
	_, err = sess.Feed.ToggleLike("p2")
	require.NoError(t, err)

	b, _ := newTestBot(t)
	b.sessions = reg
	b.resetChat(new(telebot.Bot).NewContext(telebot.Update{
		Message: &telebot.Message{Text: "/start", Chat: &telebot.Chat{ID: 7}},
	}))

	assert.Zero(t, reg.Len())
	assert.False(t, sess.Assistant.IsOpen())

	fresh, err := reg.Get(t.Context(), 7, "Asha")
	require.NoError(t, err)
	assert.NotSame(t, sess, fresh)
	assert.False(t, mustGet(t, fresh, "p2").Liked)
}

func TestAssistantHandlers(t *testing.T) {
	b, _ := newTestBot(t)
	sess := newTestSession(t)

	assert.Equal(t, msgNoChat, b.handleText(sess, "hello"))
	assert.Equal(t, msgNoChat, b.handleClose(sess, ""))

	out := b.handleChat(sess, "p2")
	assert.Equal(t, "Assistant: Hi - I can help with Wireless Noise Cancelling Headphones. Ask me anything!", out)

	assert.Empty(t, b.handleText(sess, "is it loud?"))
	assert.Len(t, sess.Assistant.History(), 2)
	assert.Equal(t, 1, sess.Assistant.Pending())

	assert.Equal(t, "Chat closed.", b.handleClose(sess, ""))
	assert.Empty(t, sess.Assistant.History())

	assert.Contains(t, b.handleChat(sess, "p9"), "No product")

	// Reopening after a close greets again from the returned message.
	assert.Equal(t, "Assistant: Hi - I can help with Handmade Ceramic Mug. Ask me anything!", b.handleChat(sess, "p3"))
}

func TestPayloadOf(t *testing.T) {
	tb := new(telebot.Bot)

	testCases := []struct {
		name string
		msg  *telebot.Message
		want string
	}{
		{name: "command payload", msg: &telebot.Message{Text: "/search mug", Payload: "mug"}, want: "mug"},
		{name: "command without payload", msg: &telebot.Message{Text: "/feed"}, want: ""},
		{name: "plain text", msg: &telebot.Message{Text: "is it waterproof?"}, want: "is it waterproof?"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := tb.NewContext(telebot.Update{Message: tc.msg})

			assert.Equal(t, tc.want, payloadOf(c))
		})
	}

	assert.Empty(t, payloadOf(tb.NewContext(telebot.Update{})))
}

func TestSenderName(t *testing.T) {
	assert.Equal(t, "You", senderName(nil, ""))
	assert.Equal(t, "Guest", senderName(nil, "Guest"))
	assert.Equal(t, "Asha", senderName(&telebot.User{FirstName: "Asha", Username: "asha_k"}, "Guest"))
	assert.Equal(t, "asha_k", senderName(&telebot.User{Username: "asha_k"}, "Guest"))
	assert.Equal(t, "Guest", senderName(&telebot.User{}, "Guest"))
}

func TestChatLimiter(t *testing.T) {
	l := newChatLimiter(0.001, 2)

	assert.True(t, l.allow(1))
	assert.True(t, l.allow(1))
	assert.False(t, l.allow(1))
	assert.True(t, l.allow(2), "buckets are per chat")

	unlimited := newChatLimiter(0, 0)
	for range 100 {
		assert.True(t, unlimited.allow(1))
	}
}
