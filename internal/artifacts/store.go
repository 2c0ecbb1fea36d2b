// Package artifacts stores uploaded files: model artifacts from the upload
// server and analysed images from the dashboard.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape the root.
var ErrInvalidKey = errors.New("invalid artifact key")

// Store persists an artifact under key and returns where it ended up.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// CleanKey normalises a slash-separated key and rejects anything that is
// empty, absolute or climbs out of the root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// BaseName reduces a client-supplied filename to its last element.
func BaseName(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	return path.Base(filename)
}

// DiskStore writes artifacts below a fixed root directory.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

func (d *DiskStore) Root() string {
	return d.root
}

// Put writes to a temporary file next to the target and renames it into
// place, so readers never see a partial artifact.
func (d *DiskStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(d.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("move artifact into place: %w", err)
	}
	return target, nil
}
