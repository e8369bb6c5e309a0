package repository

import (
	"context"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// ChatRepository is the durable store port consumed by the realtime core.
// Implementations must be safe for concurrent use; every method is bounded by
// the caller's context.
//
// Error contract (typed via the domain sentinels):
//   - FindRoomByPairKey returns chat.ErrRoomNotFound on a miss.
//   - CreateRoom returns chat.ErrRoomConflict when another caller won the
//     find-or-create race for the same pair key.
//   - GetMessage returns chat.ErrMessageNotFound for unknown ids.
//   - FindUser returns chat.ErrUserNotFound for unknown ids.
type ChatRepository interface {
	// FindRoomByPairKey looks up the unique room for a canonical pair key.
	FindRoomByPairKey(ctx context.Context, pairKey string) (*chat.Room, error)

	// CreateRoom inserts a new room and returns it with the generated id.
	// The store enforces uniqueness of the pair key.
	CreateRoom(ctx context.Context, room chat.Room) (*chat.Room, error)

	// CreateMessage appends a message and bumps the room's updated_at in the
	// same transaction. Returns the persisted message with id and timestamp.
	CreateMessage(ctx context.Context, m chat.Message) (*chat.Message, error)

	// GetMessage fetches a single message by id.
	GetMessage(ctx context.Context, id int64) (*chat.Message, error)

	// MarkMessageRead flips is_read to true. It reports false with a nil
	// error when the message was already read, so callers can stay
	// idempotent without re-notifying.
	MarkMessageRead(ctx context.Context, id int64) (bool, error)

	// UpsertPresence creates or updates the presence row for a user.
	UpsertPresence(ctx context.Context, p chat.Presence) error

	// FindUser resolves a user identity by id.
	FindUser(ctx context.Context, id chat.UserID) (*chat.UserIdentity, error)
}
