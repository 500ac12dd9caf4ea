package catalog

import (
	"context"
	"sync"
)

// Persister stores catalog records durably.
type Persister interface {
	// Load returns all records, per owner in insertion order.
	Load(ctx context.Context) ([]FileRecord, error)
	// Replace drops stale (if non-nil) and appends rec as one step.
	Replace(ctx context.Context, stale *FileRecord, rec FileRecord) error
}

// MemoryPersister keeps records in process memory.
type MemoryPersister struct {
	mu      sync.Mutex
	records []FileRecord
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(context.Context) ([]FileRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]FileRecord, len(p.records))
	copy(out, p.records)
	return out, nil
}

func (p *MemoryPersister) Replace(_ context.Context, stale *FileRecord, rec FileRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stale != nil {
		for i, r := range p.records {
			if r.ID == stale.ID {
				p.records[i] = rec
				return nil
			}
		}
	}
	p.records = append(p.records, rec)
	return nil
}
