package realtime

import (
	"sync"

	"github.com/samber/lo"
)

// RoomTracker keeps the per-chat set of users whose connections should receive
// that chat's events. It mirrors persisted chat membership: live membership
// events update it immediately, and the session reconciler re-syncs it against
// the store whenever a connection identifies.
type RoomTracker struct {
	mu     sync.RWMutex
	byChat map[string]map[string]struct{} // chatID -> set of userID
	byUser map[string]map[string]struct{} // userID -> set of chatID
}

// NewRoomTracker creates an empty room tracker.
func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		byChat: make(map[string]map[string]struct{}),
		byUser: make(map[string]map[string]struct{}),
	}
}

// Subscribe records that a user's connections should receive events for a
// chat. Idempotent.
func (t *RoomTracker) Subscribe(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribeLocked(chatID, userID)
}

func (t *RoomTracker) subscribeLocked(chatID, userID string) {
	if t.byChat[chatID] == nil {
		t.byChat[chatID] = make(map[string]struct{})
	}
	t.byChat[chatID][userID] = struct{}{}
	if t.byUser[userID] == nil {
		t.byUser[userID] = make(map[string]struct{})
	}
	t.byUser[userID][chatID] = struct{}{}
}

// Unsubscribe removes a user's subscription to a chat. Idempotent.
func (t *RoomTracker) Unsubscribe(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsubscribeLocked(chatID, userID)
}

func (t *RoomTracker) unsubscribeLocked(chatID, userID string) {
	if users, ok := t.byChat[chatID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.byChat, chatID)
		}
	}
	if chats, ok := t.byUser[userID]; ok {
		delete(chats, chatID)
		if len(chats) == 0 {
			delete(t.byUser, userID)
		}
	}
}

// SubscribersOf returns a snapshot of the users subscribed to a chat.
func (t *RoomTracker) SubscribersOf(chatID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Keys(t.byChat[chatID])
}

// ChatsOf returns a snapshot of the chats a user is subscribed to.
func (t *RoomTracker) ChatsOf(userID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Keys(t.byUser[userID])
}

// IsSubscribed reports whether a subscription exists for (chat, user).
func (t *RoomTracker) IsSubscribed(chatID, userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byChat[chatID][userID]
	return ok
}

// Reconcile aligns a single user's subscriptions with the authoritative chat
// list fetched from the store: missing subscriptions are added, subscriptions
// for chats absent from the list are dropped. Only the given user's entries
// are touched, so it is safe to call concurrently with live membership events
// for other users. Safe to call repeatedly.
func (t *RoomTracker) Reconcile(userID string, authoritativeChats []string) (added, removed []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := lo.Keys(t.byUser[userID])
	added, removed = lo.Difference(authoritativeChats, current)

	for _, chatID := range added {
		t.subscribeLocked(chatID, userID)
	}
	for _, chatID := range removed {
		t.unsubscribeLocked(chatID, userID)
	}
	return added, removed
}
