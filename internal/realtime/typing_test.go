package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTyping_AutoExpirySynthesizesStop(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	hub := newTestHub(dir)

	connect(t, hub, "user-a")
	observer, _ := connect(t, hub, "user-b")

	hub.Router.Route(TypingChanged{ChatID: "general", UserID: "user-a", IsTyping: true})
	require.True(t, hub.Typing.Active("general", "user-a"))

	// no refresh and no explicit stop: a stop is synthesized within the window
	require.Eventually(t, func() bool {
		env, ok := observer.lastEvent(EventUserTyping)
		return ok && observer.countEvents(EventUserTyping) == 2 && !typingFlag(t, env)
	}, time.Second, 5*time.Millisecond)
	require.False(t, hub.Typing.Active("general", "user-a"))
}

func TestTyping_ExplicitStopCancelsExpiry(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	hub := newTestHub(dir)

	connect(t, hub, "user-a")
	observer, _ := connect(t, hub, "user-b")

	hub.Router.Route(TypingChanged{ChatID: "general", UserID: "user-a", IsTyping: true})
	hub.Router.Route(TypingChanged{ChatID: "general", UserID: "user-a", IsTyping: false})
	require.False(t, hub.Typing.Active("general", "user-a"))
	require.Equal(t, 2, observer.countEvents(EventUserTyping))

	// the cancelled timer must not fire a third event
	time.Sleep(3 * hub.Typing.Window())
	require.Equal(t, 2, observer.countEvents(EventUserTyping))
}

func TestTyping_RefreshExtendsWindow(t *testing.T) {
	typing := NewTypingTracker(40 * time.Millisecond)
	expired := make(chan struct{}, 1)
	typing.SetExpireFunc(func(chatID, userID string) {
		expired <- struct{}{}
	})
	defer typing.Stop()

	typing.Touch("general", "user-a")
	time.Sleep(25 * time.Millisecond)
	typing.Touch("general", "user-a")

	select {
	case <-expired:
		t.Fatal("entry expired despite refresh")
	case <-time.After(25 * time.Millisecond):
	}

	select {
	case <-expired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("entry never expired after last refresh")
	}
}

func TestTyping_StopClearsTypingOfDisconnectedUser(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-c", "general")
	hub := newTestHub(dir)

	observer, _ := connect(t, hub, "user-a")
	_, connID := connect(t, hub, "user-c")

	hub.Router.Route(TypingChanged{ChatID: "general", UserID: "user-c", IsTyping: true})
	require.Equal(t, 1, observer.countEvents(EventUserTyping))

	// user-c vanishes with an active typing indicator; the remaining
	// subscribers still see it clear within the expiry window
	hub.Disconnect(connID)

	require.Eventually(t, func() bool {
		env, ok := observer.lastEvent(EventUserTyping)
		return ok && !typingFlag(t, env)
	}, time.Second, 5*time.Millisecond)
	require.False(t, hub.Typing.Active("general", "user-c"))
}

func typingFlag(t *testing.T, env Envelope) bool {
	t.Helper()
	var p struct {
		IsTyping bool `json:"isTyping"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p.IsTyping
}
