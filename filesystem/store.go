// Package filesystem provides the sandboxed file lookup behind relay's
// static responder. Paths are resolved inside an os.Root, so requests can
// never escape the configured directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sagarc03/relay"
)

// File is an open regular file together with its metadata.
type File struct {
	io.ReadSeekCloser

	// Path is the slash separated path relative to the store root.
	Path        string
	Info        fs.FileInfo
	ContentType string
}

// Store provides read-only file lookups under a root directory.
type Store struct {
	root  *os.Root
	index string
}

// NewFileStorage creates a new Store with the given root directory.
// Directory lookups resolve to index; an empty index disables that.
func NewFileStorage(root *os.Root, index string) *Store {
	return &Store{root: root, index: index}
}

// Open opens dir as a sandboxed root and returns a Store for it.
func Open(dir, index string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open static root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open static root: %s is not a directory", dir)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open static root: %w", err)
	}
	return NewFileStorage(root, index), nil
}

// Close releases the underlying root.
func (s *Store) Close() error {
	return s.root.Close()
}

// Get opens the file at name, a slash separated path relative to the root.
// Returns relay.ErrNotFound if nothing usable exists there and
// relay.ErrForbidden if the path is rejected by the sandbox.
func (s *Store) Get(ctx context.Context, name string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := cleanPath(name)

	f, info, err := s.open(rel)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		_ = f.Close()
		if s.index == "" {
			return nil, relay.ErrNotFound
		}
		rel = path.Join(rel, s.index)
		f, info, err = s.open(rel)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			_ = f.Close()
			return nil, relay.ErrNotFound
		}
	}

	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, relay.ErrForbidden
	}

	return &File{
		ReadSeekCloser: f,
		Path:           rel,
		Info:           info,
		ContentType:    detectContentType(rel),
	}, nil
}

func (s *Store) open(rel string) (*os.File, fs.FileInfo, error) {
	f, err := s.root.Open(filepath.FromSlash(rel))
	if err != nil {
		return nil, nil, mapError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	return f, info, nil
}

// List returns every regular file below the root as slash separated paths.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []string
	err := fs.WalkDir(s.root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return relay.ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return relay.ErrForbidden
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		// os.Root reports escapes and invalid names as path errors.
		return fmt.Errorf("%w: %s", relay.ErrForbidden, pathErr.Err)
	}
	return fmt.Errorf("failed to open file: %w", err)
}

func cleanPath(name string) string {
	p := path.Clean("/" + name)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "."
	}
	return p
}

func detectContentType(p string) string {
	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
