package chat

import "time"

// Presence records a user's online flag and last-seen timestamp. One row per
// user, created on the first transition and never deleted. LastSeen is nil
// while the user is online and stamped on disconnect.
type Presence struct {
	UserID   UserID     `db:"user_id" json:"user_id"`
	IsOnline bool       `db:"is_online" json:"is_online"`
	LastSeen *time.Time `db:"last_seen" json:"last_seen"`
}
