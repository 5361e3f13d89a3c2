package memory

import (
	"context"
	"testing"

	"quiz-bot-service/internal/app"
)

func TestDraftStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewDraftStore()

	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatalf("expected no draft initially")
	}

	draft := app.Draft{State: app.StateAwaitingTitle}
	if err := store.Set(ctx, 1, draft); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("expected draft present, ok=%v err=%v", ok, err)
	}
	if got.State != app.StateAwaitingTitle {
		t.Fatalf("unexpected draft %+v", got)
	}

	// Keys are independent.
	if _, ok, _ := store.Get(ctx, 2); ok {
		t.Fatalf("expected no draft for other key")
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatalf("expected draft removed")
	}
}
