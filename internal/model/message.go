// Package model defines the chat domain types shared across the broker.
package model

// Message is one chat message as stored in history and delivered to clients.
// A message is immutable once constructed: Username is a snapshot of the
// sender's display name at send time, and ID/Time are assigned by the broker,
// never by the client.
type Message struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	UserID   string `json:"userId"`
}

// TimeLayout is the wall-clock format used for the Time field of messages and
// presence events.
const TimeLayout = "15:04:05"
