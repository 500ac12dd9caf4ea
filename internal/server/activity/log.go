package activity

import (
	"context"
	"sync"
	"time"
)

// Log is the activity-log collaborator.
type Log interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, user string) ([]Entry, error)
	ListKind(ctx context.Context, user string, kind Kind) ([]Entry, error)
}

type MemoryLog struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string][]Entry)}
}

func (l *MemoryLog) Append(_ context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.entries[e.User] = append(l.entries[e.User], e)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLog) List(_ context.Context, user string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries[user]))
	copy(out, l.entries[user])
	return out, nil
}

func (l *MemoryLog) ListKind(_ context.Context, user string, kind Kind) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.entries[user] {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}
