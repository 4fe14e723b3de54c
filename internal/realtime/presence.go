package realtime

import (
	"github.com/rajgit2024/Chatting-app/internal/logger"
)

// PresenceTracker turns connection-count transitions reported by the registry
// into routed presence events. It keeps no state of its own; the registry
// already knows who is online, this component only decouples the "count
// crossed zero" signal from the registry's bookkeeping.
type PresenceTracker struct {
	router *Router
}

// NewPresenceTracker creates a tracker that publishes through the router.
func NewPresenceTracker(router *Router) *PresenceTracker {
	return &PresenceTracker{router: router}
}

// UserOnline is called when a user's first connection identifies.
func (p *PresenceTracker) UserOnline(userID string) {
	logger.Info("user online", logger.String("user_id", userID))
	p.router.Route(PresenceChanged{UserID: userID, Online: true})
}

// UserOffline is called when a user's last connection is unregistered.
func (p *PresenceTracker) UserOffline(userID string) {
	logger.Info("user offline", logger.String("user_id", userID))
	p.router.Route(PresenceChanged{UserID: userID, Online: false})
}
