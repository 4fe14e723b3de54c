package realtime

import (
	"time"

	"github.com/rajgit2024/Chatting-app/internal/logger"

	"github.com/samber/lo"
)

// Hub wires the realtime components together and owns the connection
// lifecycle the websocket handler drives: register on upgrade, identify once
// the user proves its identity, unregister on teardown. All event fan-out
// goes through the router.
type Hub struct {
	Registry   *Registry
	Rooms      *RoomTracker
	Router     *Router
	Typing     *TypingTracker
	Presence   *PresenceTracker
	Reconciler *Reconciler
}

// Options tunes the hub's timer-driven behavior. Zero values pick defaults.
type Options struct {
	TypingWindow   time.Duration
	ReconcileRetry time.Duration
}

// NewHub builds a hub over the given chat directory.
func NewHub(directory ChatDirectory, opts Options) *Hub {
	registry := NewRegistry()
	rooms := NewRoomTracker()
	typing := NewTypingTracker(opts.TypingWindow)
	router := NewRouter(registry, rooms, typing)
	typing.SetExpireFunc(func(chatID, userID string) {
		router.Route(TypingChanged{ChatID: chatID, UserID: userID, IsTyping: false})
	})

	return &Hub{
		Registry:   registry,
		Rooms:      rooms,
		Router:     router,
		Typing:     typing,
		Presence:   NewPresenceTracker(router),
		Reconciler: NewReconciler(directory, rooms, opts.ReconcileRetry),
	}
}

var hubInstance *Hub

// Init creates the process-wide hub. Called once from main before the routes
// are served.
func Init(directory ChatDirectory, opts Options) *Hub {
	hubInstance = NewHub(directory, opts)
	return hubInstance
}

// GetHub returns the process-wide hub instance.
func GetHub() *Hub {
	return hubInstance
}

// Connect admits a fresh, unidentified connection and returns its id.
func (h *Hub) Connect(client Client) string {
	return h.Registry.Register(client)
}

// Identify binds a connection to its authenticated user, reconciles the
// user's room subscriptions against the store, and emits the online presence
// transition if this is the user's first connection.
//
// Subscriptions are reconciled before the presence event so the online
// broadcast reaches the user's contacts even right after a process restart,
// when the room tracker is still empty. A failed reconcile is recoverable:
// the connection stays identified and the fetch is retried.
func (h *Hub) Identify(connID, userID string) error {
	first, err := h.Registry.Identify(connID, userID)
	if err != nil {
		return err
	}

	if err := h.Reconciler.Reconcile(userID); err != nil {
		logger.Warn("identify completed with stale subscriptions",
			logger.String("connection_id", connID),
			logger.String("user_id", userID),
		)
	}

	if first {
		h.Presence.UserOnline(userID)
	}
	return nil
}

// Disconnect removes a connection, emitting the offline presence transition
// if it was the user's last one. Idempotent.
func (h *Hub) Disconnect(connID string) {
	userID, last := h.Registry.Unregister(connID)
	if last {
		h.Reconciler.Forget(userID)
		h.Presence.UserOffline(userID)
	}
}

// OnlineContacts returns the user's contacts (users sharing at least one
// chat) that currently have a live connection. Pushed to a client right after
// identify so its UI starts with a correct presence view.
func (h *Hub) OnlineContacts(userID string) []string {
	return lo.Filter(h.Router.contactsOf(userID), func(contact string, _ int) bool {
		return h.Registry.IsOnline(contact)
	})
}

// SendOnlineContacts pushes the current online-contact list to one user's
// connections.
func (h *Hub) SendOnlineContacts(userID string) {
	h.Router.SendToUser(userID, EventOnlineUsers, onlineUsersPayload{Users: h.OnlineContacts(userID)})
}

// Stop cancels all timer-driven state. Used on shutdown.
func (h *Hub) Stop() {
	h.Typing.Stop()
	h.Reconciler.Stop()
}
