// Package filex holds filesystem helpers used by the local file store.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeName is returned for names that cannot be used as a single path element.
var ErrUnsafeName = errors.New("unsafe path element")

// EnsureSubDir creates root/name (and root itself) if missing and returns its path.
func EnsureSubDir(root, name string) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}

	dir := filepath.Join(root, name)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// CheckName reports whether name is usable as one path element: non-empty,
// not "." or "..", and free of separators and NUL bytes.
func CheckName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}
