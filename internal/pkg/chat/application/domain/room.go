package chat

import (
	"fmt"
	"time"
)

// UserID identifies a user in the external identity system.
// The chat core only reads identities; it never creates or mutates them.
type UserID int64

// Room is the durable conversation entity for exactly one unordered pair of
// users. At most one room exists per pair; the canonical PairKey enforces
// this at the store level.
type Room struct {
	ID        int64     `db:"id"`
	PairKey   string    `db:"pair_key"`
	UserA     UserID    `db:"user_a"`
	UserB     UserID    `db:"user_b"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewRoom builds a room for the pair {a, b} with participants stored in
// canonical (ascending) order so (a,b) and (b,a) produce the same row.
func NewRoom(a, b UserID) Room {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	now := time.Now().UTC()
	return Room{
		PairKey:   PairKey(a, b),
		UserA:     lo,
		UserB:     hi,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PairKey returns the canonical key for the unordered pair {a, b}.
// Order-independent: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b UserID) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Other returns the participant that is not u. It assumes u is one of the
// two participants.
func (r Room) Other(u UserID) UserID {
	if r.UserA == u {
		return r.UserB
	}
	return r.UserA
}
