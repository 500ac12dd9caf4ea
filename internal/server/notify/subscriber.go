package notify

import "sync"

// Subscriber is the outbound handle of one notification connection. The
// hub offers texts to its queue; the connection's writer drains it.
type Subscriber struct {
	user  string
	queue chan string

	done chan struct{}
	once sync.Once
}

// NewSubscriber returns a handle with room for size pending texts.
func NewSubscriber(user string, size int) *Subscriber {
	if size <= 0 {
		size = 1
	}
	return &Subscriber{
		user:  user,
		queue: make(chan string, size),
		done:  make(chan struct{}),
	}
}

func (s *Subscriber) User() string { return s.user }

// C delivers queued notification texts.
func (s *Subscriber) C() <-chan string { return s.queue }

// Done is closed once the subscriber has been closed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Close marks the subscriber dead. Safe to call more than once.
func (s *Subscriber) Close() {
	s.once.Do(func() { close(s.done) })
}

// offer enqueues text without blocking. It fails when the subscriber is
// closed or its queue is full.
func (s *Subscriber) offer(text string) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.queue <- text:
		return true
	default:
		return false
	}
}
