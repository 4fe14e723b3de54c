package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterIdentifyUnregister(t *testing.T) {
	registry := NewRegistry()

	connID := registry.Register(&fakeClient{})
	require.NotEmpty(t, connID)
	require.Equal(t, 1, registry.Count())

	// unidentified connections belong to no user
	require.Empty(t, registry.ConnectionsFor("u-1"))

	first, err := registry.Identify(connID, "u-1")
	require.NoError(t, err)
	require.True(t, first)
	require.ElementsMatch(t, []string{connID}, registry.ConnectionsFor("u-1"))
	require.True(t, registry.IsOnline("u-1"))

	userID, last := registry.Unregister(connID)
	require.Equal(t, "u-1", userID)
	require.True(t, last)
	require.Empty(t, registry.ConnectionsFor("u-1"))
	require.False(t, registry.IsOnline("u-1"))
}

func TestRegistry_IdentifyExactlyOnce(t *testing.T) {
	registry := NewRegistry()
	connID := registry.Register(&fakeClient{})

	_, err := registry.Identify(connID, "u-1")
	require.NoError(t, err)

	_, err = registry.Identify(connID, "u-2")
	require.ErrorIs(t, err, ErrAlreadyIdentified)

	// the connection stays under its original identity
	require.Len(t, registry.ConnectionsFor("u-1"), 1)
	require.Empty(t, registry.ConnectionsFor("u-2"))
}

func TestRegistry_IdentifyUnknownConnection(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Identify("no-such-conn", "u-1")
	require.ErrorIs(t, err, ErrUnknownConnection)
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	registry := NewRegistry()
	connID := registry.Register(&fakeClient{})
	_, err := registry.Identify(connID, "u-1")
	require.NoError(t, err)

	userID, last := registry.Unregister(connID)
	require.Equal(t, "u-1", userID)
	require.True(t, last)

	// second unregister is a no-op, not a second offline transition
	userID, last = registry.Unregister(connID)
	require.Empty(t, userID)
	require.False(t, last)
}

func TestRegistry_MultiDevice(t *testing.T) {
	registry := NewRegistry()

	conn1 := registry.Register(&fakeClient{})
	conn2 := registry.Register(&fakeClient{})
	conn3 := registry.Register(&fakeClient{})

	first, err := registry.Identify(conn1, "u-1")
	require.NoError(t, err)
	require.True(t, first)
	first, err = registry.Identify(conn2, "u-1")
	require.NoError(t, err)
	require.False(t, first)
	first, err = registry.Identify(conn3, "u-2")
	require.NoError(t, err)
	require.True(t, first)

	require.Len(t, registry.ConnectionsFor("u-1"), 2)
	require.Len(t, registry.ConnectionsFor("u-2"), 1)
	require.Equal(t, 2, registry.CountFor("u-1"))
	require.ElementsMatch(t, []string{"u-1", "u-2"}, registry.OnlineUsers())

	// dropping devices in any order yields exactly one last=true
	lastCount := 0
	for _, id := range []string{conn2, conn1} {
		if _, last := registry.Unregister(id); last {
			lastCount++
		}
	}
	require.Equal(t, 1, lastCount)
	require.Empty(t, registry.ConnectionsFor("u-1"))
}

func TestRegistry_UserOf(t *testing.T) {
	registry := NewRegistry()
	connID := registry.Register(&fakeClient{})

	_, ok := registry.UserOf(connID)
	require.False(t, ok)

	_, err := registry.Identify(connID, "u-1")
	require.NoError(t, err)

	userID, ok := registry.UserOf(connID)
	require.True(t, ok)
	require.Equal(t, "u-1", userID)
}
