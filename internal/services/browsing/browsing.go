// Package browsing ties a feed and an assistant together for one user and keeps
// one such session per chat.
package browsing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Houeta/recom-feed/internal/assistant"
	"github.com/Houeta/recom-feed/internal/catalog"
	"github.com/Houeta/recom-feed/internal/feed"
	"github.com/Houeta/recom-feed/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Session is the state of one user browsing the feed.
type Session struct {
	UserID    string
	UserName  string
	Feed      *feed.Store
	Assistant *assistant.Manager
}

// Chat opens the assistant for a product of the feed and returns its greeting.
func (s *Session) Chat(productID string) (models.Message, error) {
	p, err := s.Feed.Get(productID)
	if err != nil {
		return models.Message{}, err
	}
	_, greet := s.Assistant.Open(p)

	return greet, nil
}

// Comment posts text on a product as the session user.
func (s *Session) Comment(productID, text string) (models.Product, error) {
	return s.Feed.AddComment(productID, s.UserName, text)
}

// ReplyListener receives assistant replies for a chat.
type ReplyListener func(chatID int64, msg models.Message)

// Options holds the dependencies shared by every session.
type Options struct {
	Source    catalog.Source
	Timeout   time.Duration
	Responder assistant.Responder
	Listener  ReplyListener
	// AfterFunc overrides the assistant timers, nil keeps real timers.
	AfterFunc assistant.AfterFunc
}

// Registry lazily creates one Session per chat.
type Registry struct {
	log  *slog.Logger
	opts Options

	group    singleflight.Group
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewRegistry(log *slog.Logger, opts Options) *Registry {
	return &Registry{log: log, opts: opts, sessions: map[int64]*Session{}}
}

// Get returns the session of chatID, loading its feed on first use.
// A failed load is not remembered, so the next call retries it.
func (r *Registry) Get(ctx context.Context, chatID int64, userName string) (*Session, error) {
	const opn = "browsing.Registry.Get"

	r.mu.Lock()
	sess, ok := r.sessions[chatID]
	r.mu.Unlock()
	if ok {
		return sess, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(chatID, 10), func() (any, error) {
		r.mu.Lock()
		existing, found := r.sessions[chatID]
		r.mu.Unlock()
		if found {
			return existing, nil
		}

		created, err := r.newSession(ctx, chatID, userName)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.sessions[chatID] = created
		r.mu.Unlock()

		return created, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	sess, ok = v.(*Session)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected session type %T", opn, v)
	}

	return sess, nil
}

func (r *Registry) newSession(ctx context.Context, chatID int64, userName string) (*Session, error) {
	userID := strconv.FormatInt(chatID, 10)
	log := r.log.With("chat", chatID)

	store := feed.NewStore(log, r.opts.Source, r.opts.Timeout)
	if _, err := store.Load(ctx, userID); err != nil {
		return nil, err
	}

	var opts []assistant.Option
	if r.opts.AfterFunc != nil {
		opts = append(opts, assistant.WithAfterFunc(r.opts.AfterFunc))
	}
	if r.opts.Listener != nil {
		listener := r.opts.Listener
		opts = append(opts, assistant.WithListener(func(_ uuid.UUID, msg models.Message) {
			listener(chatID, msg)
		}))
	}

	log.InfoContext(ctx, "Browsing session created", "op", "browsing.Registry.newSession")

	return &Session{
		UserID:    userID,
		UserName:  userName,
		Feed:      store,
		Assistant: assistant.NewManager(log, r.opts.Responder, opts...),
	}, nil
}

// Forget closes and drops the session of chatID. The next Get reloads the feed.
func (r *Registry) Forget(chatID int64) {
	r.mu.Lock()
	sess, ok := r.sessions[chatID]
	delete(r.sessions, chatID)
	r.mu.Unlock()

	if ok {
		sess.Assistant.Close()
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Close closes every assistant session so no reply fires after shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[int64]*Session{}
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Assistant.Close()
	}
}
