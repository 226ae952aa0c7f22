package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session, err := app.NewSession("s1", sampleBank(), nil, time.Now())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("expected session present: %v", err)
	}

	if err := store.Update(ctx, "s1", func(s *app.Session) error { return s.SelectOption(2) }); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := store.Get(ctx, "s1")
	if idx, ok := got.SelectedOption(); !ok || idx != 2 {
		t.Fatalf("expected selection 2 to persist, got %d %v", idx, ok)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestSessionStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	session, _ := app.NewSession("s1", sampleBank(), nil, time.Now())
	_ = store.Create(ctx, session)

	copy1, _ := store.Get(ctx, "s1")
	if err := copy1.SelectOption(1); err != nil {
		t.Fatalf("select on copy: %v", err)
	}

	stored, _ := store.Get(ctx, "s1")
	if _, ok := stored.SelectedOption(); ok {
		t.Fatalf("mutating a returned copy changed the stored session")
	}
}

func TestSessionStoreUnknownSession(t *testing.T) {
	store := NewSessionStore()
	err := store.Update(context.Background(), "nope", func(*app.Session) error { return nil })
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
