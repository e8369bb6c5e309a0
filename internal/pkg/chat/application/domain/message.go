package chat

import (
	"strings"
	"time"
)

// MaxContentLength caps message bodies, matching the column width of the
// persisted content.
const MaxContentLength = 1000

// Message is an immutable log entry between two users. The only mutation the
// core ever performs is the monotonic false->true flip of IsRead, and only on
// behalf of the designated receiver.
type Message struct {
	ID         int64     `db:"id" json:"id"`
	RoomID     int64     `db:"room_id" json:"room_id"`
	SenderID   UserID    `db:"sender_id" json:"sender_id"`
	ReceiverID UserID    `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	IsRead     bool      `db:"is_read" json:"is_read"`
}

// NewMessage validates and normalizes a message before persistence.
// Content is trimmed; an empty sender, receiver or body is rejected, as is a
// body over MaxContentLength runes.
func NewMessage(m Message) (*Message, error) {
	if m.SenderID == 0 || m.ReceiverID == 0 {
		return nil, ErrMissingParticipant
	}
	if m.SenderID == m.ReceiverID {
		return nil, ErrSelfMessage
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(m.Content)) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return &m, nil
}
