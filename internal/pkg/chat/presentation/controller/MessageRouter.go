package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	qport "github.com/mohdafzal1700/max-chat/internal/infrastructure/queue/port"
	"github.com/mohdafzal1700/max-chat/internal/infrastructure/realtime"
	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/task"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/usecase"
	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/presentation/protocol"
)

// FrameWriter is the outbound half of a connection as seen by the router.
// *realtime.Connection satisfies it; tests use a recording fake.
type FrameWriter interface {
	WriteFrame(v any) error
}

// MessageRouter validates one decoded inbound event per call and dispatches
// it to the matching handler. Nothing thrown by a handler escapes the
// per-event boundary: a malformed or failing event answers the sending
// connection with an error frame (or is logged) and never tears down the
// session or touches other connections.
type MessageRouter struct {
	log      *slog.Logger
	validate *validator.Validate

	sendMessage *usecase.SendMessageUseCase
	markRead    *usecase.MarkMessageReadUseCase
	mailbox     *realtime.Mailbox
	queue       qport.Client // optional; nil disables offline notifications
}

func NewMessageRouter(
	log *slog.Logger,
	sendMessage *usecase.SendMessageUseCase,
	markRead *usecase.MarkMessageReadUseCase,
	mailbox *realtime.Mailbox,
	queue qport.Client,
) *MessageRouter {
	return &MessageRouter{
		log:         log,
		validate:    validator.New(),
		sendMessage: sendMessage,
		markRead:    markRead,
		mailbox:     mailbox,
		queue:       queue,
	}
}

// Dispatch routes one raw frame from sender's connection. The event set is a
// closed union over the type tag; unknown tags are dropped at this boundary
// as a forward-compatible no-op.
func (r *MessageRouter) Dispatch(ctx context.Context, sender chat.UserIdentity, w FrameWriter, data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		r.replyError(w, "Invalid JSON format")
		return
	}

	switch env.Type {
	case protocol.TypeChatMessage:
		r.handleChatMessage(ctx, sender, w, data)
	case protocol.TypeTyping:
		r.handleTyping(sender, data)
	case protocol.TypeReadReceipt:
		r.handleReadReceipt(ctx, sender, w, data)
	default:
		r.log.Debug("dropping unknown event type", "type", env.Type, "sender_id", sender.ID)
	}
}

func (r *MessageRouter) handleChatMessage(ctx context.Context, sender chat.UserIdentity, w FrameWriter, data []byte) {
	var payload protocol.ChatMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.replyError(w, "Invalid JSON format")
		return
	}
	if err := r.validate.Struct(payload); err != nil {
		r.replyError(w, "No proper content or receiver_id")
		return
	}

	msg, err := r.sendMessage.Execute(ctx, usecase.SendMessageInput{
		SenderID:   sender.ID,
		ReceiverID: chat.UserID(payload.ReceiverID),
		Content:    payload.Content,
	})
	if err != nil {
		r.replySendFailure(w, sender, err)
		return
	}

	// Ack to the sender first, then fan out to every live connection of the
	// receiver. Zero live connections means realtime delivery is dropped;
	// the receiver catches up via history, and an offline notification task
	// is enqueued instead.
	_ = w.WriteFrame(protocol.NewMessageSent(*msg))

	event, err := json.Marshal(protocol.NewChatMessageEvent(*msg, sender))
	if err != nil {
		r.log.Error("encode chat_message event", "err", err)
		return
	}
	if delivered := r.mailbox.Publish(msg.ReceiverID, event); delivered == 0 {
		r.notifyOffline(ctx, *msg)
	}
}

func (r *MessageRouter) handleTyping(sender chat.UserIdentity, data []byte) {
	var payload protocol.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Typing is fire-and-forget; never surfaced to the sender.
		r.log.Debug("malformed typing payload", "sender_id", sender.ID, "err", err)
		return
	}
	if err := r.validate.Struct(payload); err != nil {
		r.log.Debug("invalid typing payload", "sender_id", sender.ID, "err", err)
		return
	}

	event, err := json.Marshal(protocol.NewTypingIndicatorEvent(sender, payload.IsTyping))
	if err != nil {
		r.log.Error("encode typing_indicator event", "err", err)
		return
	}
	// Silently succeeds even when the receiver is offline.
	r.mailbox.Publish(chat.UserID(payload.ReceiverID), event)
}

func (r *MessageRouter) handleReadReceipt(ctx context.Context, sender chat.UserIdentity, w FrameWriter, data []byte) {
	var payload protocol.ReadReceiptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.replyError(w, "Invalid JSON format")
		return
	}
	if err := r.validate.Struct(payload); err != nil {
		r.replyError(w, "message_id is required")
		return
	}

	msg, notify, err := r.markRead.Execute(ctx, payload.MessageID, sender.ID)
	switch {
	case errors.Is(err, chat.ErrMessageNotFound):
		r.replyError(w, "Message not found")
		return
	case errors.Is(err, chat.ErrNotReceiver):
		r.replyError(w, "Only the receiver may mark a message as read")
		return
	case err != nil:
		r.log.Error("read receipt failed", "message_id", payload.MessageID, "reader_id", sender.ID, "err", err)
		r.replyError(w, "Server error")
		return
	}

	// Already-read receipts succeed silently without re-notifying the sender.
	if !notify {
		return
	}

	event, err := json.Marshal(protocol.NewReadReceiptEvent(msg.ID, sender))
	if err != nil {
		r.log.Error("encode read_receipt event", "err", err)
		return
	}
	r.mailbox.Publish(msg.SenderID, event)
}

// notifyOffline hands the persisted message to the background queue so an
// external channel (push, email) can tell the receiver. Best-effort: a queue
// failure is logged, never surfaced, and realtime semantics are unchanged.
func (r *MessageRouter) notifyOffline(ctx context.Context, msg chat.Message) {
	if r.queue == nil {
		return
	}
	t, err := task.NewOfflineMessageTask(msg)
	if err != nil {
		r.log.Error("build offline message task", "message_id", msg.ID, "err", err)
		return
	}
	if _, err := r.queue.Enqueue(ctx, t, task.OfflineMessageEnqueueOption()); err != nil {
		r.log.Warn("enqueue offline message task", "message_id", msg.ID, "err", err)
	}
}

func (r *MessageRouter) replySendFailure(w FrameWriter, sender chat.UserIdentity, err error) {
	switch {
	case errors.Is(err, chat.ErrUserNotFound):
		r.replyError(w, "Recipient user not found")
	case errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrMissingParticipant),
		errors.Is(err, chat.ErrSelfMessage):
		r.replyError(w, "No proper content or receiver_id")
	case errors.Is(err, chat.ErrContentTooLong):
		r.replyError(w, "Content exceeds maximum length")
	default:
		// Store failures are not retried automatically; the client may resend.
		r.log.Error("failed to create message", "sender_id", sender.ID, "err", err)
		r.replyError(w, "Failed to create message")
	}
}

func (r *MessageRouter) replyError(w FrameWriter, msg string) {
	_ = w.WriteFrame(protocol.NewErrorFrame(msg))
}
