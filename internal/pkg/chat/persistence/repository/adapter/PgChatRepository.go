package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// pgUniqueViolation is the SQLSTATE raised when an insert breaks a unique
// constraint; room creation maps it to chat.ErrRoomConflict.
const pgUniqueViolation = "23505"

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) FindRoomByPairKey(ctx context.Context, pairKey string) (*chat.Room, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var room chat.Room
	err := r.pool.QueryRow(ctx, `
		SELECT id, pair_key, user_a, user_b, created_at, updated_at
		FROM chat_room
		WHERE pair_key = $1
	`, pairKey).Scan(&room.ID, &room.PairKey, &room.UserA, &room.UserB, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom inserts the room row. The UNIQUE index on pair_key makes
// concurrent first-contact creation safe: the loser of the race gets
// chat.ErrRoomConflict and is expected to re-read the winner's row.
func (r *PgChatRepository) CreateRoom(ctx context.Context, room chat.Room) (*chat.Room, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_room (pair_key, user_a, user_b, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, room.PairKey, room.UserA, room.UserB, room.CreatedAt, room.UpdatedAt).Scan(&room.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, chat.ErrRoomConflict
		}
		return nil, err
	}
	return &room, nil
}

// CreateMessage appends the message and bumps the room's updated_at in one
// transaction so listings ordered by recency never observe a room without its
// newest message.
func (r *PgChatRepository) CreateMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chat_message (room_id, sender_id, receiver_id, content, created_at, is_read)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, created_at
	`, m.RoomID, m.SenderID, m.ReceiverID, m.Content, m.CreatedAt).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		"UPDATE chat_room SET updated_at = $2 WHERE id = $1",
		m.RoomID, m.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	m.IsRead = false
	return &m, nil
}

func (r *PgChatRepository) GetMessage(ctx context.Context, id int64) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var m chat.Message
	err := r.pool.QueryRow(ctx, `
		SELECT id, room_id, sender_id, receiver_id, content, created_at, is_read
		FROM chat_message
		WHERE id = $1
	`, id).Scan(&m.ID, &m.RoomID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &m.IsRead)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMessageRead flips is_read only when it is still false. Zero rows
// affected means the flag was already set; the caller treats that as an
// idempotent success.
func (r *PgChatRepository) MarkMessageRead(ctx context.Context, id int64) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx,
		"UPDATE chat_message SET is_read = TRUE WHERE id = $1 AND is_read = FALSE",
		id,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PgChatRepository) UpsertPresence(ctx context.Context, p chat.Presence) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_presence (user_id, is_online, last_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET is_online = EXCLUDED.is_online,
		              last_seen = EXCLUDED.last_seen
	`, p.UserID, p.IsOnline, p.LastSeen)
	return err
}

func (r *PgChatRepository) FindUser(ctx context.Context, id chat.UserID) (*chat.UserIdentity, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var u chat.UserIdentity
	err := r.pool.QueryRow(ctx,
		"SELECT id, username FROM auth_user WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
