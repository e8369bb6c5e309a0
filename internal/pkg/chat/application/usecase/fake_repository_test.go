package usecase

import (
	"context"
	"sync"
	"time"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// fakeChatRepository is an in-memory stand-in for the Postgres adapter. It
// honors the port's error contract, including the unique pair-key constraint
// that makes concurrent room creation race-safe.
type fakeChatRepository struct {
	mu sync.Mutex

	rooms      map[string]chat.Room
	roomSeq    int64
	messages   map[int64]chat.Message
	messageSeq int64
	users      map[chat.UserID]chat.UserIdentity
	presence   map[chat.UserID]chat.Presence

	presenceCalls    int
	presenceFailures int // fail this many UpsertPresence calls before succeeding

	findRoomErr      error
	missNextFind     bool // force one ErrRoomNotFound even when the room exists
	createRoomErr    error
	createMessageErr error
	markReadErr      error
	upsertErr        error
}

func newFakeChatRepository() *fakeChatRepository {
	return &fakeChatRepository{
		rooms:    make(map[string]chat.Room),
		messages: make(map[int64]chat.Message),
		users:    make(map[chat.UserID]chat.UserIdentity),
		presence: make(map[chat.UserID]chat.Presence),
	}
}

func (f *fakeChatRepository) addUser(id chat.UserID, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = chat.UserIdentity{ID: id, Username: username}
}

func (f *fakeChatRepository) addMessage(m chat.Message) chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageSeq++
	m.ID = f.messageSeq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	f.messages[m.ID] = m
	return m
}

func (f *fakeChatRepository) FindRoomByPairKey(_ context.Context, pairKey string) (*chat.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findRoomErr != nil {
		return nil, f.findRoomErr
	}
	if f.missNextFind {
		f.missNextFind = false
		return nil, chat.ErrRoomNotFound
	}
	room, ok := f.rooms[pairKey]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return &room, nil
}

func (f *fakeChatRepository) CreateRoom(_ context.Context, room chat.Room) (*chat.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createRoomErr != nil {
		return nil, f.createRoomErr
	}
	if _, exists := f.rooms[room.PairKey]; exists {
		return nil, chat.ErrRoomConflict
	}
	f.roomSeq++
	room.ID = f.roomSeq
	f.rooms[room.PairKey] = room
	return &room, nil
}

func (f *fakeChatRepository) CreateMessage(_ context.Context, m chat.Message) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMessageErr != nil {
		return nil, f.createMessageErr
	}
	f.messageSeq++
	m.ID = f.messageSeq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	f.messages[m.ID] = m
	return &m, nil
}

func (f *fakeChatRepository) GetMessage(_ context.Context, id int64) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	return &m, nil
}

func (f *fakeChatRepository) MarkMessageRead(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markReadErr != nil {
		return false, f.markReadErr
	}
	m, ok := f.messages[id]
	if !ok || m.IsRead {
		return false, nil
	}
	m.IsRead = true
	f.messages[id] = m
	return true, nil
}

func (f *fakeChatRepository) UpsertPresence(_ context.Context, p chat.Presence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presenceCalls++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.presenceFailures > 0 {
		f.presenceFailures--
		return context.DeadlineExceeded
	}
	f.presence[p.UserID] = p
	return nil
}

func (f *fakeChatRepository) FindUser(_ context.Context, id chat.UserID) (*chat.UserIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, chat.ErrUserNotFound
	}
	return &u, nil
}
