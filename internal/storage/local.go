package storage

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
)

// localStorage keeps objects as plain files below a root directory.
// Each key folder maps to a subdirectory, so "tts/a.mp3" lives at <root>/tts/a.mp3.
type localStorage struct {
	root string
}

// NewLocal returns a filesystem-backed Storage rooted at dir. The directory is created if missing.
func NewLocal(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &localStorage{root: dir}, nil
}

// resolve maps a key to a path below root, refusing keys that would escape it.
func (l *localStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "\\") || clean != "/"+key {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean[1:])), nil
}

// Put writes through a temp file and renames it, so readers never see partial content.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (Entry, error) {
	p, err := l.resolve(key)
	if err != nil {
		return Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return Entry{}, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return Entry{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Entry{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return Entry{}, fmt.Errorf("rename temp file: %w", err)
	}
	st, err := os.Stat(p)
	if err != nil {
		return Entry{}, err
	}
	ct := opt.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(p))
	}
	return Entry{
		Key:          key,
		Size:         n,
		ContentType:  ct,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func (l *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, Entry, error) {
	p, err := l.resolve(key)
	if err != nil {
		return nil, Entry{}, fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Entry{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, Entry{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Entry{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, Entry{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return f, Entry{
		Key:          key,
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(p)),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes a file. A missing file is not an error.
func (l *localStorage) Delete(ctx context.Context, key string) error {
	p, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the files directly inside the folder named by prefix.
func (l *localStorage) List(ctx context.Context, prefix string) ([]Entry, error) {
	folder := strings.Trim(prefix, "/")
	dir := l.root
	if folder != "" {
		p, err := l.resolve(folder)
		if err != nil {
			return nil, err
		}
		dir = p
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		key := e.Name()
		if folder != "" {
			key = folder + "/" + key
		}
		out = append(out, Entry{
			Key:          key,
			Size:         st.Size(),
			ContentType:  mime.TypeByExtension(filepath.Ext(key)),
			LastModified: st.ModTime(),
		})
	}
	return out, nil
}
