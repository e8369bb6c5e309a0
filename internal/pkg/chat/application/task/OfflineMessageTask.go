package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	qport "github.com/mohdafzal1700/max-chat/internal/infrastructure/queue/port"
	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// OfflineMessageTaskType is the queue task name for notifying a receiver who
// had no live connections when a message was persisted.
const OfflineMessageTaskType = "chat:offline_message"

// previewLength bounds how much content travels through the queue; the full
// body stays in the store.
const previewLength = 120

// OfflineMessagePayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type OfflineMessagePayload struct {
	MessageID  int64  `json:"messageId"`
	RoomID     int64  `json:"roomId"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Preview    string `json:"preview"`
}

// NewOfflineMessageTask builds the queue task for a persisted message whose
// receiver was offline at fan-out time.
func NewOfflineMessageTask(msg chat.Message) (qport.Task, error) {
	preview := msg.Content
	if len([]rune(preview)) > previewLength {
		preview = string([]rune(preview)[:previewLength])
	}
	payload, err := json.Marshal(OfflineMessagePayload{
		MessageID:  msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   int64(msg.SenderID),
		ReceiverID: int64(msg.ReceiverID),
		Preview:    preview,
	})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: OfflineMessageTaskType, Payload: payload}, nil
}

// OfflineMessageEnqueueOption dedupes repeated notifications for the same
// message and keeps retries bounded.
func OfflineMessageEnqueueOption() qport.EnqueueOption {
	return qport.EnqueueOption{
		Queue:     "chat",
		MaxRetry:  3,
		UniqueTTL: time.Minute,
	}
}

// Notifier delivers an out-of-band notification for a message the receiver
// missed in realtime. Implementations live with the external push/email
// integrations.
type Notifier interface {
	NotifyOfflineMessage(ctx context.Context, p OfflineMessagePayload) error
}

// RegisterOfflineMessageTask binds the task handler to the provided server.
// A nil notifier degrades to logging, which keeps worker deployments honest
// about dropped notifications instead of failing tasks forever.
func RegisterOfflineMessageTask(srv qport.Server, notifier Notifier, log *slog.Logger) {
	srv.Register(OfflineMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p OfflineMessagePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}
		if notifier == nil {
			log.Info("offline message notification (no notifier configured)",
				"message_id", p.MessageID, "receiver_id", p.ReceiverID)
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return notifier.NotifyOfflineMessage(ctx, p)
	})
}
