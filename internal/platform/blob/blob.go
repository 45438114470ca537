// Package blob stores uploaded images under generated names, either on the
// local filesystem or in an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrNotImage is returned when an upload is not an image.
	ErrNotImage = errors.New("blob: only images allowed")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("blob: file too large")
	// ErrInvalidName is returned for names containing path separators.
	ErrInvalidName = errors.New("blob: invalid name")
)

// Store persists blobs and returns the public URL they are served from.
type Store interface {
	Put(ctx context.Context, name string, body io.ReadSeeker, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// Image is a validated upload ready to be stored.
type Image struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Inspect sniffs body, rejects non-images and oversized files, and assigns a
// generated name keeping the detected extension.
func Inspect(body io.ReadSeeker, size, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && size > maxBytes {
		return nil, ErrTooLarge
	}
	mt, err := mimetype.DetectReader(body)
	if err != nil {
		return nil, fmt.Errorf("blob: sniff: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, ErrNotImage
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("blob: rewind: %w", err)
	}
	return &Image{
		Name:        NewName(mt.Extension()),
		ContentType: mt.String(),
		Size:        size,
		Body:        body,
	}, nil
}

// NewName returns a unique, time-prefixed object name.
func NewName(ext string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

// NameFromURL returns the object name at the end of a stored URL.
func NameFromURL(url string) string {
	if url == "" {
		return ""
	}
	return path.Base(url)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
