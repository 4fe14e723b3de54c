package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/rajgit2024/Chatting-app/internal/logger"

	"github.com/google/uuid"
)

var (
	// ErrUnknownConnection is returned for operations on a connection id that is
	// not (or no longer) registered. Callers treat it as recoverable.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrAlreadyIdentified is returned when a connection attempts a second identify.
	// The connection stays usable under its original identity.
	ErrAlreadyIdentified = errors.New("connection already identified")
)

// Client represents a single websocket client connection.
// We keep it minimal here; the actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// connection is the registry's record of one live client.
type connection struct {
	id        string
	client    Client
	userID    string // empty until identified
	createdAt time.Time
}

// Registry maintains the mapping between authenticated users and their live
// connections. A user may hold several connections at once (multiple devices);
// an unidentified connection belongs to no user and receives no routed events.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*connection
	byUser map[string]map[string]*connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*connection),
		byUser: make(map[string]map[string]*connection),
	}
}

// Register admits a new, not-yet-identified connection and returns its id.
func (r *Registry) Register(client Client) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.conns[id] = &connection{
		id:        id,
		client:    client,
		createdAt: time.Now(),
	}
	r.mu.Unlock()

	logger.Debug("connection registered", logger.String("connection_id", id))
	return id
}

// Identify binds a connection to a user identity exactly once. The returned
// first flag reports whether this is the user's first live connection, so the
// caller can emit an online presence transition.
func (r *Registry) Identify(connID, userID string) (first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return false, ErrUnknownConnection
	}
	if conn.userID != "" {
		return false, ErrAlreadyIdentified
	}

	conn.userID = userID
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]*connection)
	}
	r.byUser[userID][connID] = conn
	return len(r.byUser[userID]) == 1, nil
}

// Unregister removes a connection. Idempotent: unregistering an id that is
// already gone is a no-op. The returned userID/last pair reports whether this
// was an identified connection and whether the user just went offline.
func (r *Registry) Unregister(connID string) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)

	if conn.userID == "" {
		return "", false
	}
	userID = conn.userID
	if userConns, ok := r.byUser[userID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, userID)
			last = true
		}
	}
	return userID, last
}

// ConnectionsFor returns the ids of the user's current live connections.
// Empty if the user is offline or unknown.
func (r *Registry) ConnectionsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.byUser[userID]
	ids := make([]string, 0, len(userConns))
	for id := range userConns {
		ids = append(ids, id)
	}
	return ids
}

// ClientsFor returns the live clients for a user. The slice is a snapshot;
// sending on it must happen without holding registry locks.
func (r *Registry) ClientsFor(userID string) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.byUser[userID]
	clients := make([]Client, 0, len(userConns))
	for _, conn := range userConns {
		clients = append(clients, conn.client)
	}
	return clients
}

// UserOf returns the identity bound to a connection, if any.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok || conn.userID == "" {
		return "", false
	}
	return conn.userID, true
}

// OnlineUsers returns every user with at least one live connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Count returns the total number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CountFor returns the number of live connections for a user.
func (r *Registry) CountFor(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
