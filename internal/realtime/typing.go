package realtime

import (
	"sync"
	"time"
)

// DefaultTypingWindow is how long a typing indicator stays alive without a
// refresh before a stop event is synthesized for the chat's subscribers.
const DefaultTypingWindow = 2 * time.Second

type typingKey struct {
	chatID string
	userID string
}

// TypingTracker holds transient (chat, user) typing state. Entries auto-expire
// after the inactivity window; expiry invokes the configured callback so the
// router can synthesize a stop event and clients never show stuck indicators.
// Nothing here is ever persisted.
type TypingTracker struct {
	mu       sync.Mutex
	window   time.Duration
	timers   map[typingKey]*time.Timer
	onExpire func(chatID, userID string)
}

// NewTypingTracker creates a tracker with the given inactivity window.
func NewTypingTracker(window time.Duration) *TypingTracker {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingTracker{
		window: window,
		timers: make(map[typingKey]*time.Timer),
	}
}

// SetExpireFunc registers the callback fired when an entry expires. Must be
// set before the first Touch.
func (t *TypingTracker) SetExpireFunc(fn func(chatID, userID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Window returns the configured inactivity window.
func (t *TypingTracker) Window() time.Duration {
	return t.window
}

// Touch marks the user as typing in the chat, arming or resetting the expiry
// timer.
func (t *TypingTracker) Touch(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{chatID: chatID, userID: userID}
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.window)
		return
	}
	t.timers[key] = time.AfterFunc(t.window, func() {
		t.expire(key)
	})
}

// Clear drops the typing entry without firing the expiry callback. Used when
// the client sends an explicit stop. Idempotent.
func (t *TypingTracker) Clear(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{chatID: chatID, userID: userID}
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Active reports whether the user currently counts as typing in the chat.
func (t *TypingTracker) Active(chatID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[typingKey{chatID: chatID, userID: userID}]
	return ok
}

// ActiveCount returns the number of live typing entries.
func (t *TypingTracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop cancels every pending timer. Used on shutdown.
func (t *TypingTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *TypingTracker) expire(key typingKey) {
	t.mu.Lock()
	if _, ok := t.timers[key]; !ok {
		// already cleared by an explicit stop
		t.mu.Unlock()
		return
	}
	delete(t.timers, key)
	fn := t.onExpire
	t.mu.Unlock()

	if fn != nil {
		fn(key.chatID, key.userID)
	}
}
