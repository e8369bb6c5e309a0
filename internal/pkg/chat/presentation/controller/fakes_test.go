package controller

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// memoryRepo backs controller tests with an in-memory store that honors the
// repository port's error contract.
type memoryRepo struct {
	mu sync.Mutex

	rooms      map[string]chat.Room
	roomSeq    int64
	messages   map[int64]chat.Message
	messageSeq int64
	users      map[chat.UserID]chat.UserIdentity
	presence   map[chat.UserID]chat.Presence

	createMessageErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rooms:    make(map[string]chat.Room),
		messages: make(map[int64]chat.Message),
		users:    make(map[chat.UserID]chat.UserIdentity),
		presence: make(map[chat.UserID]chat.Presence),
	}
}

func (r *memoryRepo) addUser(id chat.UserID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = chat.UserIdentity{ID: id, Username: username}
}

func (r *memoryRepo) FindRoomByPairKey(_ context.Context, pairKey string) (*chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[pairKey]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return &room, nil
}

func (r *memoryRepo) CreateRoom(_ context.Context, room chat.Room) (*chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rooms[room.PairKey]; exists {
		return nil, chat.ErrRoomConflict
	}
	r.roomSeq++
	room.ID = r.roomSeq
	r.rooms[room.PairKey] = room
	return &room, nil
}

func (r *memoryRepo) CreateMessage(_ context.Context, m chat.Message) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createMessageErr != nil {
		return nil, r.createMessageErr
	}
	r.messageSeq++
	m.ID = r.messageSeq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.messages[m.ID] = m
	return &m, nil
}

func (r *memoryRepo) GetMessage(_ context.Context, id int64) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	return &m, nil
}

func (r *memoryRepo) MarkMessageRead(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.IsRead {
		return false, nil
	}
	m.IsRead = true
	r.messages[id] = m
	return true, nil
}

func (r *memoryRepo) UpsertPresence(_ context.Context, p chat.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence[p.UserID] = p
	return nil
}

func (r *memoryRepo) FindUser(_ context.Context, id chat.UserID) (*chat.UserIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, chat.ErrUserNotFound
	}
	return &u, nil
}

// memorySocket collects frames written by a connection's write loop.
type memorySocket struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *memorySocket) ReadMessage() (int, []byte, error) {
	select {}
}

func (s *memorySocket) WriteMessage(messageType int, data []byte) error {
	// messageType 1 is a text frame; pings carry no payload worth keeping.
	if messageType != 1 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]byte(nil), data...))
	return nil
}

func (s *memorySocket) SetWriteDeadline(time.Time) error { return nil }

func (s *memorySocket) WriteControl(int, []byte, time.Time) error { return nil }

func (s *memorySocket) Close() error { return nil }

func (s *memorySocket) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// waitFrame blocks until the next undelivered frame arrives and returns it
// decoded as a generic JSON object.
func (s *memorySocket) waitFrame(t *testing.T) map[string]any {
	t.Helper()
	req := require.New(t)

	var raw []byte
	req.Eventually(func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.frames) == 0 {
			return false
		}
		raw = s.frames[0]
		s.frames = s.frames[1:]
		return true
	}, time.Second, 5*time.Millisecond)

	var frame map[string]any
	req.NoError(json.Unmarshal(raw, &frame))
	return frame
}
