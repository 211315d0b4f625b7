package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/cppla/contactbox/config"
	"github.com/cppla/contactbox/models"
	"github.com/cppla/contactbox/notify"
	"github.com/cppla/contactbox/repository"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notify.Message{To: to, Subject: subject, Body: body})
	return f.err
}

func (f *fakeSender) messages() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.sent...)
}

func openTestRepos(t *testing.T) (repository.EntryRepository, repository.ImageRepository) {
	t.Helper()
	c := config.AppConfig{DBDriver: "sqlite", DatabaseURI: filepath.Join(t.TempDir(), "svc.db"), LogLevel: "silent"}
	db, err := config.OpenDatabase(c, &models.Entry{}, &models.Image{})
	if err != nil {
		t.Fatalf("OpenDatabase error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewGormEntryRepository(db), repository.NewGormImageRepository(db)
}

func newDispatcher(t *testing.T, sender notify.Sender) *notify.Dispatcher {
	t.Helper()
	d := notify.NewDispatcher(sender, 1, 10, zap.NewNop())
	t.Cleanup(d.Close)
	return d
}

func strPtr(s string) *string { return &s }

var alice = EntryInput{Name: "Alice", Phone: "555-0100", Email: "a@example.com", Place: "Goa", Message: "Hi"}
