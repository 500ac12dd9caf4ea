package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/filex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_WriteOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "alice", "a.txt", []byte("hello")))

	rc, size, err := s.Open(ctx, "alice", "a.txt")
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)
	assert.Equal(t, int64(5), size)

	ok, err := s.Exists(ctx, "alice", "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalStore_WriteReplacesAndLeavesNoTemp(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "bob", "x", []byte("first version")))
	require.NoError(t, s.Write(ctx, "bob", "x", []byte("v2")))

	got, err := os.ReadFile(filepath.Join(root, "bob", "x"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	entries, err := os.ReadDir(filepath.Join(root, "bob"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStore_MissingFile(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open(ctx, "alice", "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := s.Exists(ctx, "alice", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(ctx, "alice", "nope"))
}

func TestLocalStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "alice", "f", []byte("1")))
	require.NoError(t, s.Delete(ctx, "alice", "f"))

	ok, err := s.Exists(ctx, "alice", "f")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStore_RejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct{ owner, name string }{
		{"alice", "../escape"},
		{"..", "f"},
		{"alice", ""},
		{"a/b", "f"},
	}
	for _, tt := range tests {
		err := s.Write(ctx, tt.owner, tt.name, []byte("x"))
		assert.ErrorIs(t, err, filex.ErrUnsafeName, "%q/%q", tt.owner, tt.name)
	}
}

func TestLocalStore_UsersFromAreas(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, s.EnsureUserArea(ctx, "carol"))
	require.NoError(t, s.EnsureUserArea(ctx, "alice"))
	require.NoError(t, s.EnsureUserArea(ctx, "alice"))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".hidden"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.log"), nil, 0o600))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, users)
}
