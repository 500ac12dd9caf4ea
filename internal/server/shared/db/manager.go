// Package db builds the durable collaborators of the server: either all in
// process memory or all backed by one postgres database.
package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Catalog() catalog.Persister
	Inbox() inbox.Store
	Activity() activity.Log
	Close() error
}

// New returns a postgres manager for a non-empty dsn and an in-memory one
// otherwise.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewInMemoryRepositoryManager(), nil
	}
	return NewPostgresRepositoryManager(ctx, dsn)
}
