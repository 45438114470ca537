package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs in a directory served under a URL prefix.
type Local struct {
	dir       string
	urlPrefix string
}

// NewLocal creates dir when missing.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create upload dir: %w", err)
	}
	return &Local{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/") + "/"}, nil
}

// Dir is the directory files are written to.
func (l *Local) Dir() string {
	return l.dir
}

// Put writes body to dir/name.
func (l *Local) Put(ctx context.Context, name string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	target := filepath.Join(l.dir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blob: create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("blob: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("blob: close %s: %w", name, err)
	}
	return l.urlPrefix + name, nil
}

// Delete removes dir/name. Missing files are not an error.
func (l *Local) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob: remove %s: %w", name, err)
	}
	return nil
}

var _ Store = (*Local)(nil)
