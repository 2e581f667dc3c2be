// Package assistant runs the simulated per-product chat session.
//
// The manager holds at most one open session. Each open gets a new session id,
// and every scheduled reply remembers the id it was scheduled for. Closing or
// re-opening the session stops the pending timers and, for a timer that already
// fired, the id mismatch makes the late delivery a no-op.
package assistant

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/recom-feed/internal/interaction"
	"github.com/Houeta/recom-feed/internal/models"
	"github.com/google/uuid"
)

// ErrNoSession is returned by Send while no session is open.
var ErrNoSession = errors.New("assistant session is closed")

// Timer is a cancellable deferred call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. It must not call f synchronously.
type AfterFunc func(d time.Duration, f func()) Timer

// Listener is notified after an assistant reply has been appended.
type Listener func(sessionID uuid.UUID, msg models.Message)

// Option configures a Manager.
type Option func(*Manager)

// WithAfterFunc replaces the timer implementation.
func WithAfterFunc(fn AfterFunc) Option {
	return func(m *Manager) { m.afterFunc = fn }
}

// WithListener registers a callback for delivered replies.
func WithListener(fn Listener) Option {
	return func(m *Manager) { m.listener = fn }
}

// Manager owns the assistant session and its message history.
type Manager struct {
	log       *slog.Logger
	responder Responder
	afterFunc AfterFunc
	listener  Listener

	mu      sync.Mutex
	id      uuid.UUID
	product *models.Product
	history []models.Message
	pending map[uuid.UUID]Timer
}

// NewManager creates a Manager in the closed state.
func NewManager(log *slog.Logger, responder Responder, opts ...Option) *Manager {
	m := &Manager{
		log:       log,
		responder: responder,
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		pending:   map[uuid.UUID]Timer{},
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Open binds the session to product and seeds the history with a greeting,
// which is returned with the new session id.
// An open session is replaced, its history and pending replies are dropped.
func (m *Manager) Open(product models.Product) (uuid.UUID, models.Message) {
	const opn = "assistant.Manager.Open"

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelPendingLocked()

	bound := product.Clone()
	m.id = uuid.New()
	m.product = &bound
	greet := m.newMessage(models.OriginAssistant, greeting(product))
	m.history = []models.Message{greet}

	m.log.Debug("Assistant session opened", "op", opn, "session", m.id, "product", product.ID)

	return m.id, greet
}

// Close ends the session, clears the history and cancels every pending reply.
func (m *Manager) Close() {
	const opn = "assistant.Manager.Close"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.product == nil {
		return
	}

	cancelled := m.cancelPendingLocked()
	m.log.Debug("Assistant session closed", "op", opn, "session", m.id, "cancelled", cancelled)

	m.id = uuid.Nil
	m.product = nil
	m.history = nil
}

// Send appends a user message and schedules one simulated reply.
// Blank text is ignored and a zero Message is returned.
func (m *Manager) Send(text string) (models.Message, error) {
	const opn = "assistant.Manager.Send"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.product == nil {
		return models.Message{}, ErrNoSession
	}

	trimmed, err := interaction.NormalizeText(text)
	if err != nil {
		return models.Message{}, nil //nolint:nilerr // blank input is dropped silently
	}

	msg := m.newMessage(models.OriginUser, trimmed)
	m.history = append(m.history, msg)

	delay, reply := m.responder.Reply(*m.product)
	sessionID, replyID := m.id, uuid.New()
	m.pending[replyID] = m.afterFunc(delay, func() {
		m.deliver(sessionID, replyID, reply)
	})

	m.log.Debug("Assistant reply scheduled", "op", opn, "session", sessionID, "reply", replyID, "delay", delay)

	return msg, nil
}

func (m *Manager) deliver(sessionID, replyID uuid.UUID, text string) {
	const opn = "assistant.Manager.deliver"

	m.mu.Lock()
	if _, ok := m.pending[replyID]; !ok || m.id != sessionID {
		m.mu.Unlock()
		m.log.Debug("Dropping stale assistant reply", "op", opn, "session", sessionID, "reply", replyID)
		return
	}
	delete(m.pending, replyID)

	msg := m.newMessage(models.OriginAssistant, text)
	m.history = append(m.history, msg)
	listener := m.listener
	m.mu.Unlock()

	if listener != nil {
		listener(sessionID, msg)
	}
}

// cancelPendingLocked stops all scheduled replies and returns how many there were.
func (m *Manager) cancelPendingLocked() int {
	n := len(m.pending)
	for id, timer := range m.pending {
		timer.Stop()
		delete(m.pending, id)
	}

	return n
}

func (m *Manager) newMessage(origin models.Origin, text string) models.Message {
	return models.Message{ID: uuid.New(), Origin: origin, Text: text, CreatedAt: time.Now()}
}

// IsOpen reports whether a session is bound to a product.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.product != nil
}

// Pending returns the number of replies still waiting for their timer.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}

// History returns a copy of the message history.
func (m *Manager) History() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Message, len(m.history))
	copy(out, m.history)

	return out
}

// Snapshot returns a read-only view of the session.
func (m *Manager) Snapshot() models.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:      m.id,
		Open:    m.product != nil,
		History: make([]models.Message, len(m.history)),
		Pending: len(m.pending),
	}
	copy(snap.History, m.history)
	if m.product != nil {
		p := m.product.Clone()
		snap.Product = &p
	}

	return snap
}
