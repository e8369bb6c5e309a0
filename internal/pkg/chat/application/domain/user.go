package chat

// UserIdentity is the read-only view of a user owned by the external identity
// system. The core binds one identity per connection at handshake and carries
// it on outbound events; it never writes back.
type UserIdentity struct {
	ID       UserID `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
