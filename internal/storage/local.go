package storage

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Local stores media files in a directory on disk.
type Local struct {
	Dir string
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{Dir: dir}, nil
}

// Save writes the content under name inside the upload directory.  The
// content type is not stored; Get re-detects it.
func (l *Local) Save(ctx context.Context, name string, content io.Reader, contentType string) (string, error) {
	f, err := os.Create(filepath.Join(l.Dir, filepath.Base(name)))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		return "", err
	}
	return name, nil
}

// Get reads the file back and detects its MIME type, preferring the file
// extension and falling back to content sniffing.
func (l *Local) Get(ctx context.Context, name string) ([]byte, string, error) {
	path := filepath.Join(l.Dir, filepath.Base(name))
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = http.DetectContentType(b)
	}
	return b, mimeType, nil
}

// Delete removes the file; a missing file reports ErrNotFound.
func (l *Local) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(l.Dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
