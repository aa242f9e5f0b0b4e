// Package storage abstracts course media persistence.  Two drivers exist:
// a local-disk directory for development and an S3-compatible object store
// (R2, LocalStack, AWS) for everything else.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("file not found")

// Store saves, fetches and deletes media files by name.
type Store interface {
	// Save writes the object and returns its reference name.
	Save(ctx context.Context, name string, content io.Reader, contentType string) (string, error)
	// Get returns the object bytes and MIME type.
	Get(ctx context.Context, name string) ([]byte, string, error)
	// Delete removes the object.
	Delete(ctx context.Context, name string) error
}

// UniqueName returns a short random file name, keeping the extension of
// the original upload so MIME sniffing by suffix still works.
func UniqueName(ext string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + ext, nil
}
