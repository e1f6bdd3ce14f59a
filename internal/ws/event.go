package ws

import (
	"encoding/json"

	"github.com/ansshul10/Chatifyzone07/internal/models"
)

// EventType identifies a wire-level event on the persistent channel.
type EventType string

const (
	// Client to server.
	EventRegister      EventType = "register"
	EventSendMessage   EventType = "send_message"
	EventEditMessage   EventType = "edit_message"
	EventReactMessage  EventType = "react_message"
	EventDeleteMessage EventType = "delete_message"
	EventTyping        EventType = "typing"
	EventStopTyping    EventType = "stop_typing"
	EventMessagesRead  EventType = "messages_read"

	// Server to client.
	EventPresenceUpdate     EventType = "presence_update"
	EventSendAck            EventType = "send_ack"
	EventDeliverMessage     EventType = "deliver_message"
	EventMessageError       EventType = "message_error"
	EventMessageUpdated     EventType = "message_updated"
	EventMessageDeleted     EventType = "message_deleted"
	EventUserTyping         EventType = "user_typing"
	EventUserStopTyping     EventType = "user_stop_typing"
	EventMessagesReadUpdate EventType = "messages_read_update"
)

// Event is the envelope for every message exchanged over the websocket.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent creates an event with the given payload marshaled into Data.
func NewEvent(t EventType, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{Type: t, Data: raw}, nil
}

// ParseData unmarshals the event payload into v.
func (e *Event) ParseData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// RegisterData binds the connection to an authenticated identity. The core
// trusts the identity; validating it is the auth layer's job.
type RegisterData struct {
	UserID string `json:"userId"`
}

// SendMessageData carries a client-provisional message. TempID is the
// client-generated identity that the send_ack echoes back for reconciliation.
type SendMessageData struct {
	TempID         string `json:"tempId"`
	Recipient      string `json:"recipient"`
	Text           string `json:"text"`
	IsEncrypted    bool   `json:"isEncrypted"`
	DisappearingIn int    `json:"disappearingIn,omitempty"`
}

// SendAckData confirms persistence to the sender. The client replaces its
// provisional entry keyed by TempID with Message wholesale.
type SendAckData struct {
	TempID  string          `json:"tempId"`
	Message *models.Message `json:"message"`
}

// MessageErrorData reports a persistence failure for a specific provisional
// message back to its sender.
type MessageErrorData struct {
	TempID string `json:"tempId"`
	Error  string `json:"error"`
}

// EditMessageData replaces the text of an existing message.
type EditMessageData struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Recipient string `json:"recipient"`
}

// ReactMessageData appends a reaction token to an existing message.
type ReactMessageData struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Recipient string `json:"recipient"`
}

// DeleteMessageData removes an existing message.
type DeleteMessageData struct {
	MessageID string `json:"messageId"`
	Recipient string `json:"recipient"`
}

// MessageDeletedData notifies both participants of a removal.
type MessageDeletedData struct {
	MessageID string `json:"messageId"`
}

// TypingData is the client-to-server typing or stop_typing signal.
type TypingData struct {
	Recipient string `json:"recipient"`
}

// UserTypingData is the relayed server-to-recipient typing notice.
type UserTypingData struct {
	UserID string `json:"userId"`
}

// MessagesReadData asserts that the caller has displayed the given messages.
type MessagesReadData struct {
	Recipient  string   `json:"recipient"`
	MessageIDs []string `json:"messageIds"`
}

// MessagesReadUpdateData is the single batched notice pushed to the original
// sender, carrying every identity that was actually flipped.
type MessagesReadUpdateData struct {
	MessageIDs []string `json:"messageIds"`
	ReadBy     string   `json:"readBy"`
}
