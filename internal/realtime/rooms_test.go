package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomTracker_SubscribeIdempotent(t *testing.T) {
	rooms := NewRoomTracker()

	rooms.Subscribe("general", "u-1")
	rooms.Subscribe("general", "u-1")

	require.ElementsMatch(t, []string{"u-1"}, rooms.SubscribersOf("general"))
	require.ElementsMatch(t, []string{"general"}, rooms.ChatsOf("u-1"))

	rooms.Unsubscribe("general", "u-1")
	rooms.Unsubscribe("general", "u-1")

	require.Empty(t, rooms.SubscribersOf("general"))
	require.Empty(t, rooms.ChatsOf("u-1"))
}

func TestRoomTracker_BothIndexes(t *testing.T) {
	rooms := NewRoomTracker()

	rooms.Subscribe("general", "u-1")
	rooms.Subscribe("general", "u-2")
	rooms.Subscribe("team", "u-1")

	require.ElementsMatch(t, []string{"u-1", "u-2"}, rooms.SubscribersOf("general"))
	require.ElementsMatch(t, []string{"general", "team"}, rooms.ChatsOf("u-1"))
	require.True(t, rooms.IsSubscribed("team", "u-1"))
	require.False(t, rooms.IsSubscribed("team", "u-2"))
}

func TestRoomTracker_Reconcile(t *testing.T) {
	rooms := NewRoomTracker()

	rooms.Subscribe("stale", "u-1")
	rooms.Subscribe("general", "u-1")
	rooms.Subscribe("general", "u-2")

	added, removed := rooms.Reconcile("u-1", []string{"general", "team"})
	require.ElementsMatch(t, []string{"team"}, added)
	require.ElementsMatch(t, []string{"stale"}, removed)

	require.ElementsMatch(t, []string{"general", "team"}, rooms.ChatsOf("u-1"))
	// other users' subscriptions are untouched
	require.ElementsMatch(t, []string{"u-1", "u-2"}, rooms.SubscribersOf("general"))

	// a repeat with the same list is a no-op
	added, removed = rooms.Reconcile("u-1", []string{"general", "team"})
	require.Empty(t, added)
	require.Empty(t, removed)

	// dropping a chat from the authoritative list drops the subscription
	_, removed = rooms.Reconcile("u-1", []string{"general"})
	require.ElementsMatch(t, []string{"team"}, removed)
	require.False(t, rooms.IsSubscribed("team", "u-1"))
}

func TestRoomTracker_ReconcileEmptyList(t *testing.T) {
	rooms := NewRoomTracker()
	rooms.Subscribe("general", "u-1")

	_, removed := rooms.Reconcile("u-1", nil)
	require.ElementsMatch(t, []string{"general"}, removed)
	require.Empty(t, rooms.ChatsOf("u-1"))
}
