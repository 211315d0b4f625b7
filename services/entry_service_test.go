package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cppla/contactbox/models"
	"github.com/cppla/contactbox/repository"
	"github.com/cppla/contactbox/utils"
)

func TestEntryService_CreateQueuesConfirmation(t *testing.T) {
	entries, _ := openTestRepos(t)
	sender := &fakeSender{}
	d := newDispatcher(t, sender)
	svc := NewEntryService(entries, d, nil, "Thanks")

	e, err := svc.Create(context.Background(), alice)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if e.ID == "" || e.Name != "Alice" {
		t.Fatalf("entry = %+v", e)
	}

	d.Close()
	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(msgs))
	}
	if msgs[0].To != "a@example.com" || msgs[0].Subject != "Thanks" {
		t.Fatalf("message = %+v", msgs[0])
	}
	if !strings.Contains(msgs[0].Body, "Alice") || !strings.Contains(msgs[0].Body, "Goa") {
		t.Fatalf("body does not mention the submitter: %q", msgs[0].Body)
	}
}

func TestEntryService_CreateStoresValuesVerbatim(t *testing.T) {
	entries, _ := openTestRepos(t)
	sender := &fakeSender{}
	d := newDispatcher(t, sender)
	svc := NewEntryService(entries, d, nil, "Thanks")
	ctx := context.Background()

	in := EntryInput{Name: "  Alice ", Phone: "555-0100", Email: " a@example.com", Place: "Goa\n", Message: " Hi"}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	got := list[0]
	if got.Name != in.Name || got.Email != in.Email || got.Place != in.Place || got.Message != in.Message {
		t.Fatalf("stored = %q %q %q %q, want submitted values", got.Name, got.Email, got.Place, got.Message)
	}

	d.Close()
	if msgs := sender.messages(); len(msgs) != 1 || msgs[0].To != "a@example.com" {
		t.Fatalf("confirmation = %+v, want one mail to a@example.com", msgs)
	}
}

func TestEntryService_CreateKeepsEntryWhenMailFails(t *testing.T) {
	entries, _ := openTestRepos(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	d := newDispatcher(t, sender)
	svc := NewEntryService(entries, d, nil, "Thanks")

	if _, err := svc.Create(context.Background(), alice); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	d.Close()

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected entry to survive mail failure, got %d entries", len(list))
	}
}

func TestEntryService_CreateValidation(t *testing.T) {
	entries, _ := openTestRepos(t)
	sender := &fakeSender{}
	d := newDispatcher(t, sender)
	svc := NewEntryService(entries, d, nil, "Thanks")

	tests := []struct {
		name  string
		edit  func(*EntryInput)
		field string
	}{
		{"missing name", func(in *EntryInput) { in.Name = "" }, "name"},
		{"blank phone", func(in *EntryInput) { in.Phone = "   " }, "phone"},
		{"missing email", func(in *EntryInput) { in.Email = "" }, "email"},
		{"missing place", func(in *EntryInput) { in.Place = "" }, "place"},
		{"missing message", func(in *EntryInput) { in.Message = "" }, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := alice
			tt.edit(&in)
			_, err := svc.Create(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("invalid submissions were stored: %+v", list)
	}
	d.Close()
	if n := len(sender.messages()); n != 0 {
		t.Fatalf("invalid submissions sent %d mails", n)
	}
}

func TestEntryService_Update(t *testing.T) {
	entries, _ := openTestRepos(t)
	svc := NewEntryService(entries, newDispatcher(t, &fakeSender{}), nil, "Thanks")
	ctx := context.Background()

	e, err := svc.Create(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, e.ID, models.EntryPatch{Message: strPtr(" Updated\n")})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Message != " Updated\n" || updated.Name != "Alice" {
		t.Fatalf("updated = %+v", updated)
	}

	_, err = svc.Update(ctx, e.ID, models.EntryPatch{Name: strPtr("  ")})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("blank update err = %v, want ValidationError{name}", err)
	}

	if _, err := svc.Update(ctx, "missing", models.EntryPatch{Name: strPtr("Bob")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing update err = %v, want ErrNotFound", err)
	}
}

func TestEntryService_Delete(t *testing.T) {
	entries, _ := openTestRepos(t)
	svc := NewEntryService(entries, newDispatcher(t, &fakeSender{}), nil, "Thanks")
	ctx := context.Background()

	e, err := svc.Create(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestEntryService_Notify(t *testing.T) {
	entries, _ := openTestRepos(t)
	ctx := context.Background()

	ok := &fakeSender{}
	svc := NewEntryService(entries, newDispatcher(t, ok), nil, "Thanks")
	e, err := svc.Create(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Notify(ctx, e.ID); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if err := svc.Notify(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Notify missing err = %v, want ErrNotFound", err)
	}

	failing := &fakeSender{err: errors.New("smtp down")}
	svc = NewEntryService(entries, newDispatcher(t, failing), nil, "Thanks")
	err = svc.Notify(ctx, e.ID)
	var nerr *NotificationError
	if !errors.As(err, &nerr) {
		t.Fatalf("Notify err = %v, want NotificationError", err)
	}
}

func TestEntryService_ListCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	entries, _ := openTestRepos(t)
	svc := NewEntryService(entries, newDispatcher(t, &fakeSender{}), utils.NewRedisCache(rc), "Thanks")
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice); err != nil {
		t.Fatal(err)
	}
	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if !mr.Exists("cache:entries:list:1") {
		t.Fatalf("expected list cached under generation 1, keys = %v", mr.Keys())
	}

	cached, err := svc.List(ctx)
	if err != nil || len(cached) != 1 || cached[0].ID != list[0].ID {
		t.Fatalf("cached List = %v, %v", cached, err)
	}

	bob := alice
	bob.Name = "Bob"
	if _, err := svc.Create(ctx, bob); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("cache:entries:list:1") {
		t.Fatal("expected create to drop the cached list")
	}
	list, err = svc.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("List after create = %v, %v", list, err)
	}
}

// stallingEntryRepository holds the first List after it has read the rows.
type stallingEntryRepository struct {
	repository.EntryRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *stallingEntryRepository) List(ctx context.Context) ([]models.Entry, error) {
	entries, err := r.EntryRepository.List(ctx)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return entries, err
}

func TestEntryService_ListRacingCreateDoesNotCacheStaleRows(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	entries, _ := openTestRepos(t)
	repo := &stallingEntryRepository{EntryRepository: entries, read: make(chan struct{}), release: make(chan struct{})}
	svc := NewEntryService(repo, newDispatcher(t, &fakeSender{}), utils.NewRedisCache(rc), "Thanks")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx)
		done <- err
	}()
	<-repo.read

	if _, err := svc.Create(ctx, alice); err != nil {
		t.Fatal(err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("racing List error: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("List after create returned %d entries, want 1", len(list))
	}
}
