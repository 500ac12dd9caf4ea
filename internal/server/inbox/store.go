package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the message inbox collaborator.
type Store interface {
	// Append stores m for recipient. ID and CreatedAt are filled in when empty.
	Append(ctx context.Context, recipient string, m Message) (Message, error)
	ListUnread(ctx context.Context, recipient string) ([]Message, error)
	ListRead(ctx context.Context, recipient string) ([]Message, error)
	MarkRead(ctx context.Context, recipient string, ids []string) error
	UnreadCount(ctx context.Context, recipient string) (int, error)
}

func prepare(recipient string, m Message) Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.Recipient = recipient
	m.Read = false
	return m
}

// MemoryStore keeps messages in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	boxes map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{boxes: make(map[string][]Message)}
}

func (s *MemoryStore) Append(_ context.Context, recipient string, m Message) (Message, error) {
	m = prepare(recipient, m)

	s.mu.Lock()
	s.boxes[recipient] = append(s.boxes[recipient], m)
	s.mu.Unlock()

	return m, nil
}

func (s *MemoryStore) ListUnread(_ context.Context, recipient string) ([]Message, error) {
	return s.filter(recipient, false), nil
}

func (s *MemoryStore) ListRead(_ context.Context, recipient string) ([]Message, error) {
	return s.filter(recipient, true), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, recipient string, ids []string) error {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	box := s.boxes[recipient]
	for i := range box {
		if _, ok := want[box[i].ID]; ok {
			box[i].Read = true
		}
	}
	return nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, recipient string) (int, error) {
	return len(s.filter(recipient, false)), nil
}

func (s *MemoryStore) filter(recipient string, read bool) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Message
	for _, m := range s.boxes[recipient] {
		if m.Read == read {
			out = append(out, m)
		}
	}
	return out
}
