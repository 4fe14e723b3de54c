package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestHub(dir *fakeDirectory) *Hub {
	if dir == nil {
		dir = newFakeDirectory()
	}
	return NewHub(dir, Options{
		TypingWindow:   50 * time.Millisecond,
		ReconcileRetry: 25 * time.Millisecond,
	})
}

// connect registers and identifies one connection for a user.
func connect(t *testing.T, hub *Hub, userID string) (*fakeClient, string) {
	t.Helper()
	client := &fakeClient{}
	connID := hub.Connect(client)
	require.NoError(t, hub.Identify(connID, userID))
	return client, connID
}

func TestRouter_MessageFanOut(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	dir.setChats("user-c", "lounge")
	hub := newTestHub(dir)

	conn1, _ := connect(t, hub, "user-a")
	conn2, _ := connect(t, hub, "user-a")
	conn3, _ := connect(t, hub, "user-b")
	outsider, _ := connect(t, hub, "user-c")

	msg := map[string]string{"id": "m-1", "chat_id": "general", "content": "hello"}
	hub.Router.Route(MessageCreated{ChatID: "general", Message: msg})

	// every device of every member sees the message, the sender's included
	for _, client := range []*fakeClient{conn1, conn2, conn3} {
		require.Equal(t, 1, client.countEvents(EventReceiveMessage))
		env, ok := client.lastEvent(EventReceiveMessage)
		require.True(t, ok)
		var got map[string]string
		require.NoError(t, json.Unmarshal(env.Data, &got))
		require.Equal(t, "m-1", got["id"])
	}
	require.Zero(t, outsider.countEvents(EventReceiveMessage))
}

func TestRouter_TypingExcludesTypist(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	hub := newTestHub(dir)

	typist, _ := connect(t, hub, "user-a")
	other, _ := connect(t, hub, "user-b")

	hub.Router.Route(TypingChanged{ChatID: "general", UserID: "user-a", IsTyping: true})

	require.Zero(t, typist.countEvents(EventUserTyping))
	require.Equal(t, 1, other.countEvents(EventUserTyping))

	env, _ := other.lastEvent(EventUserTyping)
	var p struct {
		ChatID   string `json:"chatId"`
		UserID   string `json:"userId"`
		IsTyping bool   `json:"isTyping"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "general", p.ChatID)
	require.Equal(t, "user-a", p.UserID)
	require.True(t, p.IsTyping)
}

func TestRouter_MembershipAddThenMessage(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "team")
	hub := newTestHub(dir)

	existing, _ := connect(t, hub, "user-a")
	added, _ := connect(t, hub, "user-d")

	chat := map[string]string{"id": "team", "name": "Team"}
	hub.Router.Route(MembershipChanged{ChatID: "team", UserID: "user-d", Action: MemberAdded, Chat: chat})
	// no race window: the very next message must reach the new member
	hub.Router.Route(MessageCreated{ChatID: "team", Message: map[string]string{"id": "m-1"}})

	require.Equal(t, 1, added.countEvents(EventNewChatAdded))
	require.Equal(t, 1, added.countEvents(EventReceiveMessage))
	require.Equal(t, 1, existing.countEvents(EventChatUpdated))
	require.Equal(t, 1, existing.countEvents(EventReceiveMessage))
}

func TestRouter_MembershipRemovedStopsDelivery(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "team")
	dir.setChats("user-b", "team")
	hub := newTestHub(dir)

	remaining, _ := connect(t, hub, "user-a")
	removed, _ := connect(t, hub, "user-b")

	chat := map[string]string{"id": "team"}
	hub.Router.Route(MembershipChanged{ChatID: "team", UserID: "user-b", Action: MemberRemoved, Chat: chat})
	hub.Router.Route(MessageCreated{ChatID: "team", Message: map[string]string{"id": "m-1"}})

	// the removed member learns about the change but gets no further messages
	require.Equal(t, 1, removed.countEvents(EventChatUpdated))
	require.Zero(t, removed.countEvents(EventReceiveMessage))
	require.Equal(t, 1, remaining.countEvents(EventReceiveMessage))
}

func TestRouter_PresenceScopedToContacts(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	dir.setChats("stranger", "elsewhere")
	hub := newTestHub(dir)

	contact, _ := connect(t, hub, "user-b")
	stranger, _ := connect(t, hub, "stranger")

	// user-a comes online: only the contact sharing a chat hears about it
	selfConn, connID := connect(t, hub, "user-a")

	require.Equal(t, 1, contact.countEvents(EventUserOnline))
	require.Zero(t, stranger.countEvents(EventUserOnline))
	require.Zero(t, selfConn.countEvents(EventUserOnline))

	hub.Disconnect(connID)
	require.Equal(t, 1, contact.countEvents(EventUserOffline))
	require.Zero(t, stranger.countEvents(EventUserOffline))
}

func TestRouter_SingleOfflineForMultiDevice(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	hub := newTestHub(dir)

	observer, _ := connect(t, hub, "user-b")
	_, conn1 := connect(t, hub, "user-a")
	_, conn2 := connect(t, hub, "user-a")

	require.Equal(t, 1, observer.countEvents(EventUserOnline))

	hub.Disconnect(conn1)
	require.Zero(t, observer.countEvents(EventUserOffline))
	hub.Disconnect(conn2)
	require.Equal(t, 1, observer.countEvents(EventUserOffline))
}

func TestRouter_DeliveryFailureSkipsOnlyThatConnection(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	hub := newTestHub(dir)

	broken := &fakeClient{broken: true}
	connID := hub.Connect(broken)
	require.NoError(t, hub.Identify(connID, "user-a"))
	healthy, _ := connect(t, hub, "user-b")

	hub.Router.Route(MessageCreated{ChatID: "general", Message: map[string]string{"id": "m-1"}})

	require.Equal(t, 1, healthy.countEvents(EventReceiveMessage))
}

func TestHub_SendOnlineContacts(t *testing.T) {
	dir := newFakeDirectory()
	dir.setChats("user-a", "general")
	dir.setChats("user-b", "general")
	dir.setChats("user-c", "general")
	hub := newTestHub(dir)

	connect(t, hub, "user-b")
	self, _ := connect(t, hub, "user-a")
	// user-c is a member but offline

	hub.SendOnlineContacts("user-a")

	env, ok := self.lastEvent(EventOnlineUsers)
	require.True(t, ok)
	var p struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.ElementsMatch(t, []string{"user-b"}, p.Users)
}
