package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PushDelivers(t *testing.T) {
	h := NewHub()
	s := NewSubscriber("alice", 4)
	h.Register(s)

	assert.True(t, h.Push("alice", "hello"))
	assert.Equal(t, "hello", <-s.C())

	d, dr, ab := h.Stats()
	assert.Equal(t, uint64(1), d)
	assert.Zero(t, dr)
	assert.Zero(t, ab)
}

func TestHub_PushToUnknownUser(t *testing.T) {
	h := NewHub()
	assert.False(t, h.Push("nobody", "x"))
	_, _, absent := h.Stats()
	assert.Equal(t, uint64(1), absent)
}

func TestHub_FullQueueDropsBinding(t *testing.T) {
	h := NewHub()
	s := NewSubscriber("alice", 1)
	h.Register(s)

	require.True(t, h.Push("alice", "one"))
	assert.False(t, h.Push("alice", "two"))

	assert.False(t, h.Registered("alice"))
	select {
	case <-s.Done():
	default:
		t.Fatal("subscriber should be closed")
	}
	assert.False(t, h.Push("alice", "three"))
}

func TestHub_ClosedSubscriberDropped(t *testing.T) {
	h := NewHub()
	s := NewSubscriber("bob", 8)
	h.Register(s)
	s.Close()

	assert.False(t, h.Push("bob", "x"))
	assert.False(t, h.Registered("bob"))
}

func TestHub_UnregisterStaleHandleIsNoop(t *testing.T) {
	h := NewHub()
	old := NewSubscriber("alice", 1)
	h.Register(old)
	fresh := NewSubscriber("alice", 1)
	h.Register(fresh)

	h.Unregister(old)
	require.True(t, h.Registered("alice"))

	assert.True(t, h.Push("alice", "x"))
	assert.Equal(t, "x", <-fresh.C())

	h.Unregister(fresh)
	assert.False(t, h.Registered("alice"))
}

func TestHub_CloseAll(t *testing.T) {
	h := NewHub()
	a, b := NewSubscriber("a", 1), NewSubscriber("b", 1)
	h.Register(a)
	h.Register(b)

	h.CloseAll()
	assert.Zero(t, h.Len())
	<-a.Done()
	<-b.Done()
}

func TestHub_ConcurrentPushNeverBlocks(t *testing.T) {
	h := NewHub()
	s := NewSubscriber("alice", 2)
	h.Register(s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Push("alice", "x")
			h.Register(NewSubscriber("alice", 2))
		}()
	}
	wg.Wait()

	s.Close()
	s.Close()
}
