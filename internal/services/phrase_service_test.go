package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/Penpal/internal/logger"
)

func TestPhraseAdd_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store := NewPhraseStore(remote, logger.Nop())

	first, created, err := store.Add(ctx, alice, "bonjour", "hello")
	if err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	second, created, err := store.Add(ctx, alice, " bonjour ", "hello")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if created {
		t.Fatalf("second add created a duplicate")
	}
	if second.ID != first.ID {
		t.Fatalf("second add returned a different phrase: %s vs %s", second.ID, first.ID)
	}
	if n, _ := store.Count(ctx, alice); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestPhraseAdd_Validation(t *testing.T) {
	store := NewPhraseStore(newFakeRemote(), logger.Nop())
	if _, _, err := store.Add(context.Background(), alice, "   ", "x"); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("blank phrase: got %v", err)
	}
	if _, _, err := store.Add(context.Background(), GuestIdentity("d"), "salut", ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("guest add: got %v", err)
	}
}

func TestPhraseRemove_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := NewPhraseStore(newFakeRemote(), logger.Nop())

	p, _, err := store.Add(ctx, alice, "merci", "thanks")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	bob := UserIdentity("u-bob")
	if ok, err := store.Remove(ctx, bob, p.ID); err != nil || ok {
		t.Fatalf("foreign remove: ok=%v err=%v", ok, err)
	}
	if ok, err := store.Remove(ctx, alice, "not-a-uuid"); err != nil || ok {
		t.Fatalf("malformed id: ok=%v err=%v", ok, err)
	}
	if ok, err := store.Remove(ctx, alice, p.ID); err != nil || !ok {
		t.Fatalf("owner remove: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Exists(ctx, alice, "merci"); ok {
		t.Fatalf("phrase still exists")
	}
}

func TestPhraseCandidates(t *testing.T) {
	ctx := context.Background()
	store := NewPhraseStore(newFakeRemote(), logger.Nop())
	if _, _, err := store.Add(ctx, alice, "flâner", "to stroll"); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := store.Candidates(ctx, alice, "- flâner — to stroll\n- épanoui — fulfilled")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 2 || !got[0].Saved || got[1].Saved {
		t.Fatalf("unexpected candidates: %+v", got)
	}

	got, err = store.Candidates(ctx, GuestIdentity("d"), "- flâner — to stroll")
	if err != nil || len(got) != 1 || got[0].Saved {
		t.Fatalf("guest candidates: %+v %v", got, err)
	}
}
