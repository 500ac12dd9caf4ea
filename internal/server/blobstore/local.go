package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/filex"
)

// LocalStore keeps files under root/<owner>/<name>.
type LocalStore struct {
	root string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o770); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(owner, name string) (string, error) {
	if err := filex.CheckName(owner); err != nil {
		return "", err
	}
	if err := filex.CheckName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, owner, name), nil
}

// Write stores data through a temp file, fsync and rename so that a crash
// never leaves a truncated file under the final name.
func (s *LocalStore) Write(_ context.Context, owner, name string, data []byte) error {
	full, err := s.path(owner, name)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureSubDir(s.root, owner)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", full, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("fsync %s: %w", full, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", full, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename into %s: %w", full, err)
	}

	return nil
}

func (s *LocalStore) Open(_ context.Context, owner, name string) (io.ReadCloser, int64, error) {
	full, err := s.path(owner, name)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, common.ErrorNotFound
		}
		return nil, 0, fmt.Errorf("open %s: %w", full, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", full, err)
	}

	return f, info.Size(), nil
}

func (s *LocalStore) Exists(_ context.Context, owner, name string) (bool, error) {
	full, err := s.path(owner, name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(full)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", full, err)
	}
}

// Delete removes the file; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, owner, name string) error {
	full, err := s.path(owner, name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", full, err)
	}
	return nil
}

func (s *LocalStore) EnsureUserArea(_ context.Context, owner string) error {
	_, err := filex.EnsureSubDir(s.root, owner)
	return err
}

func (s *LocalStore) Users(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var users []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			users = append(users, e.Name())
		}
	}
	sort.Strings(users)

	return users, nil
}
