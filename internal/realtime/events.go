package realtime

import (
	"encoding/json"
)

// Wire-level event names. Client and server exchange JSON envelopes of the
// form {"event": <name>, "data": <payload>} over the websocket.
const (
	// client -> server
	EventIdentify    = "identify"
	EventJoinRoom    = "joinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventTyping      = "typing"
	EventSendMessage = "sendMessage"

	// server -> client
	EventReceiveMessage = "receiveMessage"
	EventUserTyping     = "userTyping"
	EventNewChatAdded   = "newChatAdded"
	EventChatUpdated    = "chatUpdated"
	EventOnlineUsers    = "onlineUsers"
	EventUserOnline     = "userOnline"
	EventUserOffline    = "userOffline"
	EventDebug          = "debug"
	EventError          = "error"
)

// Envelope is the JSON frame exchanged with clients in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds a wire frame for an outbound event.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// MembershipAction distinguishes member additions from removals.
type MembershipAction string

const (
	MemberAdded   MembershipAction = "added"
	MemberRemoved MembershipAction = "removed"
)

// Event is a routable domain event. Each concrete event determines its own
// target set when passed to Router.Route.
type Event interface {
	isEvent()
}

// MessageCreated fans a persisted message out to every subscriber of the
// chat, the sender's own other connections included.
type MessageCreated struct {
	ChatID  string
	Message any
}

// TypingChanged fans a typing indicator out to the chat's subscribers,
// excluding the typist.
type TypingChanged struct {
	ChatID   string
	UserID   string
	IsTyping bool
}

// MembershipChanged records that a user was added to or removed from a chat.
// The tracker is updated before fan-out so a newly added member receives all
// subsequent chat events.
type MembershipChanged struct {
	ChatID string
	UserID string
	Action MembershipAction
	Chat   any // chat payload pushed to clients for list refresh
}

// PresenceChanged reports a user going online or offline. Delivered only to
// users who share at least one chat with the subject.
type PresenceChanged struct {
	UserID string
	Online bool
}

func (MessageCreated) isEvent()    {}
func (TypingChanged) isEvent()     {}
func (MembershipChanged) isEvent() {}
func (PresenceChanged) isEvent()   {}

// Server-to-client payload shapes.

type typingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type presencePayload struct {
	UserID string `json:"userId"`
}

type onlineUsersPayload struct {
	Users []string `json:"users"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type debugPayload struct {
	Message string `json:"message"`
}
