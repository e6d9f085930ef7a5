package ws

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

type fakeConn struct {
	mu     sync.Mutex
	id     string
	events []Message
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Message{Type: event, Payload: payload})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) eventsOf(event string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, m := range c.events {
		if m.Type == event {
			out = append(out, m)
		}
	}
	return out
}

func TestHub_JoinAndBroadcast(t *testing.T) {
	h := NewHub()
	a, b, outsider := newFakeConn(), newFakeConn(), newFakeConn()

	h.Join("s1", a)
	h.Join("s1", b)
	h.Join("s2", outsider)

	h.Broadcast("s1", EventReceiveMessage, "hello")

	if n := len(a.eventsOf(EventReceiveMessage)); n != 1 {
		t.Fatalf("a expected 1 broadcast, got %d", n)
	}
	if n := len(b.eventsOf(EventReceiveMessage)); n != 1 {
		t.Fatalf("b expected 1 broadcast, got %d", n)
	}
	if n := len(outsider.eventsOf(EventReceiveMessage)); n != 0 {
		t.Fatalf("outsider expected no broadcast, got %d", n)
	}
}

func TestHub_IsMember(t *testing.T) {
	h := NewHub()
	c := newFakeConn()

	if h.IsMember("s1", c) {
		t.Fatal("not joined yet")
	}
	h.Join("s1", c)
	if !h.IsMember("s1", c) {
		t.Fatal("joined but not a member")
	}
	if h.IsMember("s2", c) {
		t.Fatal("member of a room it never joined")
	}
}

func TestHub_DetachRemovesFromEveryRoom(t *testing.T) {
	h := NewHub()
	c, other := newFakeConn(), newFakeConn()

	h.Join("s1", c)
	h.Join("s2", c)
	h.Join("s1", other)

	h.Detach(c)

	if h.IsMember("s1", c) || h.IsMember("s2", c) {
		t.Fatal("detached connection still a member")
	}

	h.Broadcast("s1", EventReceiveMessage, "x")
	h.Broadcast("s2", EventReceiveMessage, "y")

	if n := len(c.eventsOf(EventReceiveMessage)); n != 0 {
		t.Fatalf("detached connection received %d broadcasts", n)
	}
	if n := len(other.eventsOf(EventReceiveMessage)); n != 1 {
		t.Fatalf("remaining member expected 1 broadcast, got %d", n)
	}
}

func TestHub_ConcurrentJoinDetach(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newFakeConn()
			h.Join("s1", c)
			h.Broadcast("s1", EventReceiveMessage, "x")
			h.Detach(c)
		}()
	}
	wg.Wait()

	h.Broadcast("s1", EventReceiveMessage, "x") // room should be gone; must not panic
}
