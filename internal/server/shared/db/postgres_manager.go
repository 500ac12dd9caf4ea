package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/dmitrijs2005/gophshare/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
	db       *sql.DB
	catalog  *catalog.PostgresPersister
	inbox    *inbox.PostgresStore
	activity *activity.PostgresLog
}

func (m *PostgresRepositoryManager) Conn() *sql.DB              { return m.db }
func (m *PostgresRepositoryManager) Catalog() catalog.Persister { return m.catalog }
func (m *PostgresRepositoryManager) Inbox() inbox.Store         { return m.inbox }
func (m *PostgresRepositoryManager) Activity() activity.Log     { return m.activity }
func (m *PostgresRepositoryManager) Close() error               { return m.db.Close() }

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, ".")
}

// newPostgresRepositoryManager wires the repositories onto an open handle.
func newPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:       db,
		catalog:  catalog.NewPostgresPersister(db),
		inbox:    inbox.NewPostgresStore(db),
		activity: activity.NewPostgresLog(db),
	}
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := newPostgresRepositoryManager(db)

	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
