// Package blobstore is the durable file store behind the catalog. A store
// keeps one object per (owner, name) and one area per registered user.
package blobstore

import (
	"context"
	"io"
)

// Store persists file contents.
//
// Implementations return common.ErrorNotFound from Open when the object is
// missing, and must make Write atomic: a reader sees either the previous
// contents or the new ones, never a partial write.
type Store interface {
	Write(ctx context.Context, owner, name string, data []byte) error
	Open(ctx context.Context, owner, name string) (io.ReadCloser, int64, error)
	Exists(ctx context.Context, owner, name string) (bool, error)
	Delete(ctx context.Context, owner, name string) error

	// EnsureUserArea provisions storage for a newly registered user.
	EnsureUserArea(ctx context.Context, owner string) error
	// Users lists every user that has a storage area.
	Users(ctx context.Context) ([]string, error)
}
