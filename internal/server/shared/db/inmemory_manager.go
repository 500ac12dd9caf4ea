package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
)

type InMemoryRepositoryManager struct {
	catalog  *catalog.MemoryPersister
	inbox    *inbox.MemoryStore
	activity *activity.MemoryLog
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{
		catalog:  catalog.NewMemoryPersister(),
		inbox:    inbox.NewMemoryStore(),
		activity: activity.NewMemoryLog(),
	}
}

func (m *InMemoryRepositoryManager) Conn() *sql.DB                       { return nil }
func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Catalog() catalog.Persister          { return m.catalog }
func (m *InMemoryRepositoryManager) Inbox() inbox.Store                  { return m.inbox }
func (m *InMemoryRepositoryManager) Activity() activity.Log              { return m.activity }
func (m *InMemoryRepositoryManager) Close() error                        { return nil }
