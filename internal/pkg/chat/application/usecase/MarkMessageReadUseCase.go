package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
	repository "github.com/mohdafzal1700/max-chat/internal/pkg/chat/persistence/repository/port"
)

// MarkMessageReadUseCase flips a message's read flag on behalf of its
// receiver.
// Hexagonal: depends on repository port, returns domain entity
// One class per use case (own file)
type MarkMessageReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkMessageReadUseCase(repo repository.ChatRepository) *MarkMessageReadUseCase {
	return &MarkMessageReadUseCase{Repo: repo}
}

// Execute authorizes and applies a read receipt. Only the designated receiver
// may mark a message read; anyone else gets chat.ErrNotReceiver with no state
// change. Marking an already-read message is an idempotent success that
// reports notify=false so the caller does not re-notify the sender.
func (uc *MarkMessageReadUseCase) Execute(ctx context.Context, messageID int64, reader chat.UserID) (msg *chat.Message, notify bool, err error) {
	msg, err = uc.Repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, chat.ErrMessageNotFound) {
			return nil, false, chat.ErrMessageNotFound
		}
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if msg.ReceiverID != reader {
		return nil, false, chat.ErrNotReceiver
	}

	if msg.IsRead {
		return msg, false, nil
	}

	flipped, err := uc.Repo.MarkMessageRead(ctx, messageID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.IsRead = true
	// flipped is false when a concurrent receipt won; stay idempotent and
	// leave notification to the winner.
	return msg, flipped, nil
}
