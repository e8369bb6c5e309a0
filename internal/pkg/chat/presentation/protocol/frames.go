// Package protocol defines the JSON frames exchanged over a chat websocket:
// one object per frame, discriminated by a "type" field. The inbound event
// set is fixed; unknown types are a forward-compatible no-op at the dispatch
// boundary.
package protocol

import (
	"encoding/json"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// Inbound event types (client -> server).
const (
	TypeChatMessage = "chat_message"
	TypeTyping      = "typing"
	TypeReadReceipt = "read_receipt"
)

// Outbound event types (server -> client).
const (
	TypeConnection      = "connection"
	TypeMessageSent     = "message_sent"
	TypeTypingIndicator = "typing_indicator"
	TypeError           = "error"
)

// Envelope carries only the discriminator; payloads are decoded per type.
type Envelope struct {
	Type string `json:"type"`
}

// ChatMessagePayload asks the server to persist and deliver a message.
type ChatMessagePayload struct {
	ReceiverID int64  `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// TypingPayload is a fire-and-forget typing indicator.
type TypingPayload struct {
	ReceiverID int64 `json:"receiver_id" validate:"required"`
	IsTyping   bool  `json:"is_typing"`
}

// ReadReceiptPayload marks a received message as read.
type ReadReceiptPayload struct {
	MessageID int64 `json:"message_id" validate:"required"`
}

// DecodeEnvelope extracts the type discriminator from a raw frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

// ConnectionAck confirms a successful handshake to the new connection only.
type ConnectionAck struct {
	Type   string      `json:"type"`
	Status string      `json:"status"`
	UserID chat.UserID `json:"user_id"`
}

func NewConnectionAck(userID chat.UserID) ConnectionAck {
	return ConnectionAck{Type: TypeConnection, Status: "connected", UserID: userID}
}

// MessageSent acknowledges persistence to the sender, carrying the persisted
// record.
type MessageSent struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

func NewMessageSent(msg chat.Message) MessageSent {
	return MessageSent{Type: TypeMessageSent, Message: msg}
}

// ChatMessageEvent delivers a persisted message to the receiver's mailbox.
type ChatMessageEvent struct {
	Type           string       `json:"type"`
	Message        chat.Message `json:"message"`
	SenderID       chat.UserID  `json:"sender_id"`
	SenderUsername string       `json:"sender_username"`
}

func NewChatMessageEvent(msg chat.Message, sender chat.UserIdentity) ChatMessageEvent {
	return ChatMessageEvent{
		Type:           TypeChatMessage,
		Message:        msg,
		SenderID:       sender.ID,
		SenderUsername: sender.Username,
	}
}

// TypingIndicatorEvent forwards a typing state change to the receiver.
type TypingIndicatorEvent struct {
	Type           string      `json:"type"`
	SenderID       chat.UserID `json:"sender_id"`
	SenderUsername string      `json:"sender_username"`
	IsTyping       bool        `json:"is_typing"`
}

func NewTypingIndicatorEvent(sender chat.UserIdentity, isTyping bool) TypingIndicatorEvent {
	return TypingIndicatorEvent{
		Type:           TypeTypingIndicator,
		SenderID:       sender.ID,
		SenderUsername: sender.Username,
		IsTyping:       isTyping,
	}
}

// ReadReceiptEvent notifies the original sender that their message was read.
type ReadReceiptEvent struct {
	Type           string      `json:"type"`
	MessageID      int64       `json:"message_id"`
	ReadByID       chat.UserID `json:"read_by_id"`
	ReadByUsername string      `json:"read_by_username"`
}

func NewReadReceiptEvent(messageID int64, reader chat.UserIdentity) ReadReceiptEvent {
	return ReadReceiptEvent{
		Type:           TypeReadReceipt,
		MessageID:      messageID,
		ReadByID:       reader.ID,
		ReadByUsername: reader.Username,
	}
}

// ErrorFrame reports a per-event failure to the offending connection only;
// the connection itself stays open.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewErrorFrame(msg string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Error: msg}
}
