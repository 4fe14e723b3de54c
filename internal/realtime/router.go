package realtime

import (
	"sync"

	"github.com/rajgit2024/Chatting-app/internal/logger"

	"github.com/samber/lo"
)

// Router fans typed domain events out to the connections of exactly the users
// each event targets. Target sets are snapshotted under the table locks, then
// delivery happens without them so one slow client cannot stall the tables.
// Events for a single chat are delivered in Route-call order; no cross-chat
// ordering is provided.
type Router struct {
	registry *Registry
	rooms    *RoomTracker
	typing   *TypingTracker

	mu        sync.Mutex
	chatLocks map[string]*sync.Mutex
}

// NewRouter creates a router over the given tables.
func NewRouter(registry *Registry, rooms *RoomTracker, typing *TypingTracker) *Router {
	return &Router{
		registry:  registry,
		rooms:     rooms,
		typing:    typing,
		chatLocks: make(map[string]*sync.Mutex),
	}
}

// Route dispatches one event to its target connections. Per-connection send
// failures are logged and skipped; they never abort delivery to the remaining
// targets.
func (r *Router) Route(ev Event) {
	switch e := ev.(type) {
	case MessageCreated:
		r.routeMessage(e)
	case TypingChanged:
		r.routeTyping(e)
	case MembershipChanged:
		r.routeMembership(e)
	case PresenceChanged:
		r.routePresence(e)
	}
}

// chatLock returns the delivery-ordering mutex for a chat, creating it on
// first use.
func (r *Router) chatLock(chatID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		r.chatLocks[chatID] = l
	}
	return l
}

func (r *Router) routeMessage(e MessageCreated) {
	frame, err := Encode(EventReceiveMessage, e.Message)
	if err != nil {
		logger.Error("encode message event", logger.ErrorField(err), logger.String("chat_id", e.ChatID))
		return
	}

	l := r.chatLock(e.ChatID)
	l.Lock()
	defer l.Unlock()

	targets := r.rooms.SubscribersOf(e.ChatID)
	r.deliver(targets, frame)
}

func (r *Router) routeTyping(e TypingChanged) {
	if e.IsTyping {
		r.typing.Touch(e.ChatID, e.UserID)
	} else {
		r.typing.Clear(e.ChatID, e.UserID)
	}

	frame, err := Encode(EventUserTyping, typingPayload{
		ChatID:   e.ChatID,
		UserID:   e.UserID,
		IsTyping: e.IsTyping,
	})
	if err != nil {
		logger.Error("encode typing event", logger.ErrorField(err), logger.String("chat_id", e.ChatID))
		return
	}

	l := r.chatLock(e.ChatID)
	l.Lock()
	defer l.Unlock()

	// the typist never receives its own typing echo
	targets := lo.Without(r.rooms.SubscribersOf(e.ChatID), e.UserID)
	r.deliver(targets, frame)
}

func (r *Router) routeMembership(e MembershipChanged) {
	l := r.chatLock(e.ChatID)
	l.Lock()
	defer l.Unlock()

	// Update the tracker before any fan-out so a just-added member receives
	// every subsequent event for the chat, and a removed one receives none.
	switch e.Action {
	case MemberAdded:
		r.rooms.Subscribe(e.ChatID, e.UserID)
	case MemberRemoved:
		r.rooms.Unsubscribe(e.ChatID, e.UserID)
	default:
		logger.Warn("unknown membership action",
			logger.String("action", string(e.Action)),
			logger.String("chat_id", e.ChatID),
		)
		return
	}

	// The affected user learns about its own membership change.
	ownEvent := EventChatUpdated
	if e.Action == MemberAdded {
		ownEvent = EventNewChatAdded
	}
	if frame, err := Encode(ownEvent, e.Chat); err != nil {
		logger.Error("encode membership event", logger.ErrorField(err), logger.String("chat_id", e.ChatID))
	} else {
		r.deliver([]string{e.UserID}, frame)
	}

	// Existing members refresh their member list.
	frame, err := Encode(EventChatUpdated, e.Chat)
	if err != nil {
		logger.Error("encode membership event", logger.ErrorField(err), logger.String("chat_id", e.ChatID))
		return
	}
	targets := lo.Without(r.rooms.SubscribersOf(e.ChatID), e.UserID)
	r.deliver(targets, frame)
}

func (r *Router) routePresence(e PresenceChanged) {
	event := EventUserOffline
	if e.Online {
		event = EventUserOnline
	}
	frame, err := Encode(event, presencePayload{UserID: e.UserID})
	if err != nil {
		logger.Error("encode presence event", logger.ErrorField(err), logger.String("user_id", e.UserID))
		return
	}

	// Presence is not broadcast globally, only to users sharing a chat.
	r.deliver(r.contactsOf(e.UserID), frame)
}

// contactsOf returns every user sharing at least one chat with the given
// user, the user itself excluded.
func (r *Router) contactsOf(userID string) []string {
	contacts := make(map[string]struct{})
	for _, chatID := range r.rooms.ChatsOf(userID) {
		for _, member := range r.rooms.SubscribersOf(chatID) {
			contacts[member] = struct{}{}
		}
	}
	delete(contacts, userID)
	return lo.Keys(contacts)
}

// deliver pushes one frame to every live connection of every target user.
// Users with no connections are skipped; a failed send on one connection is a
// recoverable per-connection fault.
func (r *Router) deliver(users []string, frame []byte) {
	for _, userID := range users {
		for _, client := range r.registry.ClientsFor(userID) {
			if ok := client.Send(frame); !ok {
				logger.Warn("event delivery failed", logger.String("user_id", userID))
			}
		}
	}
}

// SendToUser pushes an ad hoc event to every live connection of one user.
func (r *Router) SendToUser(userID, event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		logger.Error("encode event", logger.ErrorField(err), logger.String("event", event))
		return
	}
	r.deliver([]string{userID}, frame)
}
