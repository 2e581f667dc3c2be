package bot

import (
	"sync"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v4"
)

// chatLimiter keeps one token bucket per chat.
type chatLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

func newChatLimiter(perSecond float64, burst int) *chatLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}

	return &chatLimiter{limit: limit, burst: max(burst, 1), limiters: map[int64]*rate.Limiter{}}
}

func (l *chatLimiter) allow(chatID int64) bool {
	l.mu.Lock()
	lim, ok := l.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[chatID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

// rateLimit drops updates from chats that exceed their budget.
func (b *Bot) rateLimit(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if c.Chat() != nil && !b.limiter.allow(c.Chat().ID) {
			b.log.Warn("Rate limit exceeded", "op", "bot.rateLimit", "chat", c.Chat().ID)
			return nil
		}

		return next(c)
	}
}
