// Package catalog is the per-user registry of file metadata.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophshare/internal/common"
)

// Catalog holds at most one record per (owner, name). Listings keep
// insertion order; a replacement takes the position of the record it
// replaces.
type Catalog struct {
	persist Persister
	keys    *keyLock

	mu      sync.RWMutex
	byOwner map[string][]FileRecord
}

func New(p Persister) *Catalog {
	return &Catalog{
		persist: p,
		keys:    newKeyLock(),
		byOwner: make(map[string][]FileRecord),
	}
}

// Restore replaces the in-memory state with the persisted records.
func (c *Catalog) Restore(ctx context.Context) (int, error) {
	records, err := c.persist.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	byOwner := make(map[string][]FileRecord)
	for _, r := range records {
		byOwner[r.Owner] = append(byOwner[r.Owner], r)
	}

	c.mu.Lock()
	c.byOwner = byOwner
	c.mu.Unlock()

	return len(records), nil
}

// ListFiles returns the owner's records in insertion order.
func (c *Catalog) ListFiles(owner string) []FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	files := c.byOwner[owner]
	out := make([]FileRecord, len(files))
	copy(out, files)
	return out
}

// ListPublicFiles returns the public records of every owner other than
// excluding. Owners without public files are left out.
func (c *Catalog) ListPublicFiles(excluding string) map[string][]FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]FileRecord)
	for owner, files := range c.byOwner {
		if owner == excluding {
			continue
		}
		for _, f := range files {
			if f.Public {
				out[owner] = append(out[owner], f)
			}
		}
	}
	return out
}

func (c *Catalog) Find(owner, name string) (FileRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := indexOf(c.byOwner[owner], name); i >= 0 {
		return c.byOwner[owner][i], nil
	}
	return FileRecord{}, common.ErrorNotFound
}

func (c *Catalog) Exists(owner, name string) bool {
	_, err := c.Find(owner, name)
	return err == nil
}

// Len returns the total number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, files := range c.byOwner {
		n += len(files)
	}
	return n
}

// Upsert inserts rec or replaces the record with the same (owner, name).
// The persister is updated under the catalog lock so memory and storage
// never disagree about which record is current. It reports whether a
// record was replaced.
func (c *Catalog) Upsert(ctx context.Context, rec FileRecord) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := c.byOwner[rec.Owner]
	i := indexOf(files, rec.Name)

	var stale *FileRecord
	if i >= 0 {
		old := files[i]
		stale = &old
	}

	if err := c.persist.Replace(ctx, stale, rec); err != nil {
		return false, fmt.Errorf("persist %s/%s: %w", rec.Owner, rec.Name, err)
	}

	if i >= 0 {
		files[i] = rec
		return true, nil
	}
	c.byOwner[rec.Owner] = append(files, rec)
	return false, nil
}

// Publish runs write and then Upsert while holding the lock for
// (rec.Owner, rec.Name), so two uploads of the same name never interleave
// their store writes and catalog updates. Nothing is recorded if write
// fails. If Upsert fails after write succeeded, undo runs under the same
// lock so the store can be put back the way the current record expects.
func (c *Catalog) Publish(ctx context.Context, rec FileRecord, write, undo func(ctx context.Context) error) (bool, error) {
	unlock := c.keys.lock(rec.Owner + "\x00" + rec.Name)
	defer unlock()

	if err := write(ctx); err != nil {
		return false, err
	}

	replaced, err := c.Upsert(ctx, rec)
	if err != nil && undo != nil {
		if uerr := undo(ctx); uerr != nil {
			err = errors.Join(err, fmt.Errorf("undo %s/%s: %w", rec.Owner, rec.Name, uerr))
		}
	}
	return replaced, err
}

func indexOf(files []FileRecord, name string) int {
	for i, f := range files {
		if f.Name == name {
			return i
		}
	}
	return -1
}
