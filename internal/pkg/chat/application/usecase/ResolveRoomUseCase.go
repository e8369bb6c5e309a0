package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
	repository "github.com/mohdafzal1700/max-chat/internal/pkg/chat/persistence/repository/port"
)

// ResolveRoomUseCase returns the single canonical room for an unordered pair
// of users, creating it lazily on first contact.
// Hexagonal: depends on repository port, returns domain entity
// One class per use case (own file)
type ResolveRoomUseCase struct {
	Repo repository.ChatRepository
}

func NewResolveRoomUseCase(repo repository.ChatRepository) *ResolveRoomUseCase {
	return &ResolveRoomUseCase{Repo: repo}
}

// Execute is order-independent: (a,b) and (b,a) resolve to the same room.
// Find-or-create is made effectively atomic per pair by the store's unique
// pair-key constraint: a conflict on insert means a concurrent caller created
// the room first, so the existing row is re-read instead of failing.
func (uc *ResolveRoomUseCase) Execute(ctx context.Context, a, b chat.UserID) (*chat.Room, error) {
	if a == 0 || b == 0 {
		return nil, chat.ErrMissingParticipant
	}

	pairKey := chat.PairKey(a, b)

	room, err := uc.Repo.FindRoomByPairKey(ctx, pairKey)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, chat.ErrRoomNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	room, err = uc.Repo.CreateRoom(ctx, chat.NewRoom(a, b))
	if err == nil {
		return room, nil
	}
	if errors.Is(err, chat.ErrRoomConflict) {
		// Lost the first-contact race; the winner's room is authoritative.
		room, err = uc.Repo.FindRoomByPairKey(ctx, pairKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return room, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
}
