package model

import "encoding/json"

// EventName identifies a wire protocol event.
type EventName string

const (
	// Client -> Broker events
	EventUserLogin   EventName = "userLogin"
	EventSendMessage EventName = "sendMessage"
	EventTyping      EventName = "typing"

	// Broker -> Client events
	EventMessageHistory EventName = "messageHistory"
	EventNewMessage     EventName = "newMessage"
	EventUserJoined     EventName = "userJoined"
	EventUserLeft       EventName = "userLeft"
	EventUserTyping     EventName = "userTyping"
	EventError          EventName = "error"
)

// Envelope is the framing for every event exchanged over a connection.
type Envelope struct {
	Event   EventName       `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SendPayload is the client payload for a sendMessage event.
type SendPayload struct {
	Text string `json:"text"`
}

// PresenceEvent is the payload for userJoined and userLeft events.
type PresenceEvent struct {
	Username   string `json:"username"`
	Time       string `json:"time"`
	UsersCount int    `json:"usersCount"`
}

// TypingEvent is the payload for userTyping events.
type TypingEvent struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorEvent carries a validation failure back to the originating client only.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Encode marshals an event and its payload into a wire-ready envelope.
func Encode(event EventName, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}
