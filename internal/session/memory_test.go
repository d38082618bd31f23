package session

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ref := Ref{ConversationID: "conv-1", OrgID: "org-1", ContactID: "contact-1"}

	sess, err := store.LoadOrCreate(ctx, ref, &OfferContext{Type: "tune-up", Name: "Spring AC Tune-Up"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.State != StateInboundReceived || sess.Outcome != OutcomePending {
		t.Fatalf("unexpected initial session: %+v", sess)
	}

	sess.State = StateQualifying
	sess.MessageCount = 3
	sess.Name = "Pat Doe"
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	again, err := store.LoadOrCreate(ctx, ref, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.State != StateQualifying || again.MessageCount != 3 || again.Name != "Pat Doe" {
		t.Fatalf("expected persisted mutations, got %+v", again)
	}
	if again.Offer == nil || again.Offer.Name != "Spring AC Tune-Up" {
		t.Fatal("offer context should survive reloads")
	}

	if err := store.Reset(ctx, "conv-1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	fresh, _ := store.Get(ctx, "conv-1")
	if fresh.State != StateInboundReceived || fresh.MessageCount != 0 || fresh.Name != "" {
		t.Fatalf("reset did not restore initial state: %+v", fresh)
	}
	if fresh.Offer == nil {
		t.Fatal("reset should keep the offer context")
	}
}

func TestMemoryStoreMissingBacking(t *testing.T) {
	store := NewMemoryStore()
	store.MissingBacking["conv-gone"] = true

	_, err := store.LoadOrCreate(context.Background(), Ref{ConversationID: "conv-gone"}, nil)
	if !errors.Is(err, ErrBackingDataMissing) {
		t.Fatalf("expected ErrBackingDataMissing, got %v", err)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Update(context.Background(), &Session{ConversationID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ref := Ref{ConversationID: "conv-2", OrgID: "org-1", ContactID: "contact-2"}

	sess, _ := store.LoadOrCreate(ctx, ref, nil)
	sess.Name = "mutated locally"

	reloaded, _ := store.Get(ctx, "conv-2")
	if reloaded.Name != "" {
		t.Fatal("store should not observe local mutations before Update")
	}
}
