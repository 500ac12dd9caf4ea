package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyDSNIsInMemory(t *testing.T) {
	m, err := New(context.Background(), "")
	require.NoError(t, err)

	assert.Nil(t, m.Conn())
	assert.NoError(t, m.RunMigrations(context.Background()))
	assert.IsType(t, &catalog.MemoryPersister{}, m.Catalog())
	assert.IsType(t, &inbox.MemoryStore{}, m.Inbox())
	assert.IsType(t, &activity.MemoryLog{}, m.Activity())
	assert.NoError(t, m.Close())
}

func TestPostgresManager_WiresRepositories(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	m := newPostgresRepositoryManager(conn)
	assert.Same(t, conn, m.Conn())
	assert.IsType(t, &catalog.PostgresPersister{}, m.Catalog())
	assert.IsType(t, &inbox.PostgresStore{}, m.Inbox())
	assert.IsType(t, &activity.PostgresLog{}, m.Activity())

	mock.ExpectClose()
	require.NoError(t, m.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresRepositoryManager_BadDSN(t *testing.T) {
	_, err := NewPostgresRepositoryManager(context.Background(), "postgres://invalid host:bad/port")
	assert.Error(t, err)
}
