package models

import (
	"time"

	"github.com/google/uuid"
)

// Origin tells who authored a chat message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Message is one entry of an assistant session history.
type Message struct {
	ID        uuid.UUID
	Origin    Origin
	Text      string
	CreatedAt time.Time
}

// SessionSnapshot - read-only view of the assistant session.
type SessionSnapshot struct {
	ID      uuid.UUID
	Open    bool
	Product *Product
	History []Message
	Pending int
}

// NoticeKind identifies which stubbed action produced a notice.
type NoticeKind string

const (
	NoticeShare    NoticeKind = "share"
	NoticeCart     NoticeKind = "cart"
	NoticeWishlist NoticeKind = "wishlist"
	NoticeProfile  NoticeKind = "profile"
	NoticeExplore  NoticeKind = "explore"
	NoticeHelp     NoticeKind = "help"
)

// Notice is a transient acknowledgement shown to the user. It never carries state.
type Notice struct {
	Kind NoticeKind
	Text string
}
