package realtime

import (
	"encoding/json"
	"sync"
)

// fakeClient collects delivered frames for assertions.
type fakeClient struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	broken bool // simulate a closed transport: every Send fails
}

func (c *fakeClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return false
	}
	buf := make([]byte, len(message))
	copy(buf, message)
	c.frames = append(c.frames, buf)
	return true
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// received decodes every frame delivered to the client.
func (c *fakeClient) received() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	envs := make([]Envelope, 0, len(c.frames))
	for _, frame := range c.frames {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err == nil {
			envs = append(envs, env)
		}
	}
	return envs
}

// countEvents returns how many frames of the given event type arrived.
func (c *fakeClient) countEvents(event string) int {
	count := 0
	for _, env := range c.received() {
		if env.Event == event {
			count++
		}
	}
	return count
}

// lastEvent returns the most recent frame of the given event type.
func (c *fakeClient) lastEvent(event string) (Envelope, bool) {
	envs := c.received()
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == event {
			return envs[i], true
		}
	}
	return Envelope{}, false
}

// fakeDirectory is an in-memory ChatDirectory with a switchable failure mode.
type fakeDirectory struct {
	mu    sync.Mutex
	chats map[string][]string
	err   error
	calls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{chats: make(map[string][]string)}
}

func (d *fakeDirectory) ListChatsForUser(userID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]string(nil), d.chats[userID]...), nil
}

func (d *fakeDirectory) setChats(userID string, chats ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chats[userID] = chats
}

func (d *fakeDirectory) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *fakeDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
