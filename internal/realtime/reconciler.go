package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/rajgit2024/Chatting-app/internal/logger"
)

// DefaultReconcileRetry is how long to wait before retrying a failed
// membership fetch.
const DefaultReconcileRetry = 30 * time.Second

// ChatDirectory is the slice of the persistence layer the realtime core
// consumes: the authoritative view of which chats a user belongs to.
type ChatDirectory interface {
	ListChatsForUser(userID string) ([]string, error)
}

// Reconciler re-syncs a user's room subscriptions against persisted chat
// membership whenever a connection identifies. Membership edits made while
// the user was offline (or over REST, on another device) are picked up here,
// so a reconnecting client needs no explicit joinRoom calls.
//
// A failed membership fetch never tears the connection down: the user stays
// registered with whatever subscriptions it had, and the reconcile is retried
// on a timer until it succeeds.
type Reconciler struct {
	directory ChatDirectory
	rooms     *RoomTracker
	retry     time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer // userID -> scheduled retry
}

// NewReconciler creates a reconciler over the given directory and tracker.
func NewReconciler(directory ChatDirectory, rooms *RoomTracker, retry time.Duration) *Reconciler {
	if retry <= 0 {
		retry = DefaultReconcileRetry
	}
	return &Reconciler{
		directory: directory,
		rooms:     rooms,
		retry:     retry,
		pending:   make(map[string]*time.Timer),
	}
}

// Reconcile fetches the user's current chat list from the store and aligns
// the room tracker with it. The fetch happens at call time, never from a
// cached snapshot, so a membership event that raced ahead of an older
// snapshot is not undone.
func (s *Reconciler) Reconcile(userID string) error {
	chats, err := s.directory.ListChatsForUser(userID)
	if err != nil {
		logger.Warn("membership fetch failed, keeping stale subscriptions",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		s.scheduleRetry(userID)
		return fmt.Errorf("fetch chats for user %s: %w", userID, err)
	}
	s.cancelRetry(userID)

	added, removed := s.rooms.Reconcile(userID, chats)
	if len(added) > 0 || len(removed) > 0 {
		logger.Info("subscriptions reconciled",
			logger.String("user_id", userID),
			logger.Int("added", len(added)),
			logger.Int("removed", len(removed)),
		)
	}
	return nil
}

// Forget cancels any pending retry for a user, typically after their last
// connection is gone.
func (s *Reconciler) Forget(userID string) {
	s.cancelRetry(userID)
}

// Stop cancels all pending retries. Used on shutdown.
func (s *Reconciler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, timer := range s.pending {
		timer.Stop()
		delete(s.pending, userID)
	}
}

func (s *Reconciler) scheduleRetry(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[userID]; ok {
		return
	}
	s.pending[userID] = time.AfterFunc(s.retry, func() {
		s.mu.Lock()
		delete(s.pending, userID)
		s.mu.Unlock()
		_ = s.Reconcile(userID)
	})
}

func (s *Reconciler) cancelRetry(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.pending[userID]; ok {
		timer.Stop()
		delete(s.pending, userID)
	}
}
