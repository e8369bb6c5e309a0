package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
	repository "github.com/mohdafzal1700/max-chat/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to persist a new message.
// Field validation and content normalization live in chat.NewMessage to
// preserve domain integrity.
type SendMessageInput struct {
	SenderID   chat.UserID
	ReceiverID chat.UserID
	Content    string
}

// SendMessageUseCase handles the SendMessage application service
// Hexagonal: depends on repository port, returns domain entity
// One class per use case (own file)
type SendMessageUseCase struct {
	Repo  repository.ChatRepository
	Rooms *ResolveRoomUseCase
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Rooms: NewResolveRoomUseCase(repo)}
}

// Execute validates the message, checks that the receiver exists, resolves
// the pair's room and appends the message with is_read=false. Exactly one
// record is created per call; delivery to live connections is the caller's
// concern.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(chat.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
	})
	if err != nil {
		return nil, err
	}

	if _, err := uc.Repo.FindUser(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, chat.ErrUserNotFound) {
			return nil, chat.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	room, err := uc.Rooms.Execute(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	msg.RoomID = room.ID

	// Persist letting DB generate the ID
	persisted, err := uc.Repo.CreateMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return persisted, nil
}
