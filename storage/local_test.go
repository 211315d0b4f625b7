package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewLocalStorage error: %v", err)
	}
	return s
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"3f0c6c3e-0a7b-4b7e-9d5e-1c2f3a4b5c6d.png", true},
		{"file_123", true},
		{"", false},
		{"..", false},
		{"../etc/passwd", false},
		{"a/b.png", false},
		{`a\b.png`, false},
		{"image.PNG", false},
		{"image.tar.gz", false},
		{".hidden", false},
	}
	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestNewKey(t *testing.T) {
	a, b := NewKey(".png"), NewKey(".png")
	if a == b {
		t.Fatalf("expected unique keys, got %q twice", a)
	}
	if !ValidKey(a) || !strings.HasSuffix(a, ".png") {
		t.Fatalf("NewKey(.png) = %q", a)
	}
	if k := NewKey("/../x"); !ValidKey(k) {
		t.Fatalf("NewKey with hostile extension produced invalid key %q", k)
	}
}

func TestLocalStorage_SaveOpenRemove(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	key := NewKey(".png")

	if err := s.Save(ctx, key, bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), key)); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	obj, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	got, err := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Fatalf("content mismatch")
	}
	if obj.Size != int64(len(pngHeader)) || obj.ContentType != "image/png" {
		t.Fatalf("object meta = %d %q", obj.Size, obj.ContentType)
	}

	if err := s.Remove(ctx, key); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, ErrNotExist) {
		t.Fatalf("Open after Remove = %v, want ErrNotExist", err)
	}
	if err := s.Remove(ctx, key); !errors.Is(err, ErrNotExist) {
		t.Fatalf("second Remove = %v, want ErrNotExist", err)
	}
}

func TestLocalStorage_NeverOverwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	if err := s.Save(ctx, "fixed.txt", strings.NewReader("one"), 3, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "fixed.txt", strings.NewReader("two"), 3, ""); err == nil {
		t.Fatal("expected error when key already exists")
	}
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	for _, key := range []string{"../outside.txt", "sub/inner.txt", ""} {
		if err := s.Save(ctx, key, strings.NewReader("x"), 1, ""); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Save(%q) = %v, want ErrInvalidKey", key, err)
		}
		if _, err := s.Open(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Open(%q) = %v, want ErrInvalidKey", key, err)
		}
		if err := s.Remove(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Remove(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(s.Root()), "outside.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped storage root")
	}
}
