package chat

import "errors"

var (
	// ErrRoomConflict signals that a concurrent caller created the room for
	// the same pair first; the resolver re-reads instead of failing.
	ErrRoomConflict = errors.New("room already exists for pair")
	ErrRoomNotFound = errors.New("room not found")

	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrNotReceiver rejects read receipts from anyone but the message's
	// designated receiver.
	ErrNotReceiver = errors.New("only the receiver may mark a message read")

	ErrMissingParticipant = errors.New("sender_id and receiver_id are required")
	ErrSelfMessage        = errors.New("sender and receiver must differ")
	ErrEmptyContent       = errors.New("content must not be empty")
	ErrContentTooLong     = errors.New("content exceeds maximum length")
)
