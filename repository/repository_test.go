package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/cppla/contactbox/config"
	"github.com/cppla/contactbox/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	c := config.AppConfig{DBDriver: "sqlite", DatabaseURI: filepath.Join(t.TempDir(), "test.db"), LogLevel: "silent"}
	db, err := config.OpenDatabase(c, &models.Entry{}, &models.Image{})
	if err != nil {
		t.Fatalf("OpenDatabase error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func sampleEntry() *models.Entry {
	return &models.Entry{Name: "Alice", Phone: "555-0100", Email: "a@example.com", Place: "Goa", Message: "Hi"}
}

func TestGormEntryRepository_CreateAndList(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	e := sampleEntry()
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
		t.Fatalf("expected id and timestamps to be assigned: %+v", e)
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != e.ID || entries[0].Name != "Alice" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestGormEntryRepository_ListEmptyIsNotNil(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	entries, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if entries == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestGormEntryRepository_UpdatePartial(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()
	e := sampleEntry()
	if err := repo.Create(ctx, e); err != nil {
		t.Fatal(err)
	}

	updated, err := repo.Update(ctx, e.ID, models.EntryPatch{Place: strPtr("Pune")})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Place != "Pune" || updated.Name != "Alice" || updated.Message != "Hi" {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.UpdatedAt.Before(e.UpdatedAt) {
		t.Fatalf("UpdatedAt went backwards")
	}

	unchanged, err := repo.Update(ctx, e.ID, models.EntryPatch{})
	if err != nil {
		t.Fatalf("empty Update error: %v", err)
	}
	if unchanged.Place != "Pune" {
		t.Fatalf("empty patch changed data: %+v", unchanged)
	}
}

func TestGormEntryRepository_NotFound(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
	if _, err := repo.Update(ctx, "missing", models.EntryPatch{Name: strPtr("Bob")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
}

func TestGormEntryRepository_Delete(t *testing.T) {
	repo := NewGormEntryRepository(newTestDB(t))
	ctx := context.Background()
	e := sampleEntry()
	if err := repo.Create(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries after delete, got %d", len(entries))
	}
}

func TestGormImageRepository(t *testing.T) {
	repo := NewGormImageRepository(newTestDB(t))
	ctx := context.Background()

	img := &models.Image{Filename: "abc.png", OriginalName: "cat.png", ContentType: "image/png", Size: 42}
	if err := repo.Create(ctx, img); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if img.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	got, err := repo.Get(ctx, img.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Filename != "abc.png" || got.Size != 42 {
		t.Fatalf("got = %+v", got)
	}

	images, err := repo.List(ctx)
	if err != nil || len(images) != 1 {
		t.Fatalf("List = %v, %v", images, err)
	}

	if err := repo.Delete(ctx, img.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.Get(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}
