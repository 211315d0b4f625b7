// Package storage keeps uploaded file bytes behind opaque keys.
package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotExist is returned when no object is stored under a key.
	ErrNotExist = errors.New("storage: object does not exist")
	// ErrInvalidKey is returned for keys that could escape the storage root.
	ErrInvalidKey = errors.New("storage: invalid key")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}(\.[a-z0-9]{1,10})?$`)

// Object is an opened stored file. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Storage saves, opens and removes objects by key.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
}

// ValidKey reports whether key is a single safe path element.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// NewKey returns a fresh opaque key with the given extension, e.g. ".png".
func NewKey(ext string) string {
	ext = strings.ToLower(ext)
	key := uuid.NewString() + ext
	if !ValidKey(key) {
		return uuid.NewString()
	}
	return key
}
