package contacts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/kv"
	"github.com/joshnesbit/quietsend/internal/model"
	"github.com/joshnesbit/quietsend/internal/notify"
)

type captureNotifier struct {
	events []notify.Event
}

func (c *captureNotifier) Notify(_ context.Context, evt notify.Event) error {
	c.events = append(c.events, evt)
	return nil
}

func testRegistry(t *testing.T) (*Registry, *kv.Store, *captureNotifier) {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	n := &captureNotifier{}
	return NewRegistry(store, n, bus.New(), zap.NewNop()), store, n
}

func TestAddAndList(t *testing.T) {
	r, _, n := testRegistry(t)
	ctx := context.Background()

	c, err := r.Add(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.Confirmed {
		t.Error("new contact should be unconfirmed")
	}
	if c.ID == "" {
		t.Error("contact id is empty")
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Fatalf("List() = %v, want [%s]", list, c.ID)
	}

	if len(n.events) != 1 || n.events[0].Kind != notify.KindConfirmationRequested {
		t.Errorf("expected one confirmation request event, got %v", n.events)
	}
}

func TestAddValidation(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()

	cases := []struct {
		desc        string
		name, email string
	}{
		{"empty name", "", "a@b.com"},
		{"empty email", "Alice", ""},
		{"whitespace only", "   ", "  "},
		{"no at sign", "Alice", "alice.example.com"},
		{"no domain dot", "Alice", "alice@example"},
		{"spaces in email", "Alice", "al ice@example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := r.Add(ctx, tc.name, tc.email)
			var vErr *model.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Add(%q, %q) = %v, want ValidationError", tc.name, tc.email, err)
			}
		})
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("rejected adds must not mutate, got %d contacts", len(list))
	}
}

func TestAddCapAtFive(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()

	for i := 0; i < MaxContacts; i++ {
		if _, err := r.Add(ctx, "Contact", fmt.Sprintf("c%d@example.com", i)); err != nil {
			t.Fatalf("Add #%d error = %v", i+1, err)
		}
	}

	before, _ := r.List(ctx)

	_, err := r.Add(ctx, "One Too Many", "extra@example.com")
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("sixth Add() = %v, want ValidationError", err)
	}

	after, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != MaxContacts {
		t.Fatalf("got %d contacts after rejected add, want %d", len(after), MaxContacts)
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Errorf("contact %d changed id: %s -> %s", i, before[i].ID, after[i].ID)
		}
	}
}

func TestAddDuplicateEmail(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()

	if _, err := r.Add(ctx, "Alice", "alice@example.com"); err != nil {
		t.Fatal(err)
	}

	_, err := r.Add(ctx, "Alice Again", "ALICE@Example.COM")
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("duplicate Add() = %v, want ValidationError", err)
	}

	list, _ := r.List(ctx)
	if len(list) != 1 {
		t.Errorf("got %d contacts, want 1", len(list))
	}
}

func TestDelete(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()

	c, err := r.Add(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list, _ := r.List(ctx)
	for _, got := range list {
		if got.ID == c.ID {
			t.Errorf("deleted contact %s still listed", c.ID)
		}
	}

	// Deleting again is a no-op, not an error.
	if err := r.Delete(ctx, c.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestDeleteBlockedWhileLinksPending(t *testing.T) {
	r, store, _ := testRegistry(t)
	ctx := context.Background()

	c, err := r.Add(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	pending := []model.SavedLink{{
		ID:        "link-1",
		URL:       "https://example.com",
		ContactID: c.ID,
		SavedAt:   time.Now().UTC(),
	}}
	if err := store.Put(ctx, kv.BucketSavedLinks, pending); err != nil {
		t.Fatal(err)
	}

	err = r.Delete(ctx, c.ID)
	var cErr *model.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("Delete() with pending link = %v, want ConflictError", err)
	}

	// Once delivered, the contact can go.
	now := time.Now().UTC()
	pending[0].DeliveredAt = &now
	if err := store.Put(ctx, kv.BucketSavedLinks, pending); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, c.ID); err != nil {
		t.Errorf("Delete() after delivery error = %v", err)
	}
}

func TestResendConfirmation(t *testing.T) {
	r, _, n := testRegistry(t)
	ctx := context.Background()

	err := r.ResendConfirmation(ctx, "nope")
	var nfErr *model.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("ResendConfirmation(unknown) = %v, want NotFoundError", err)
	}

	c, err := r.Add(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ResendConfirmation(ctx, c.ID); err != nil {
		t.Fatalf("ResendConfirmation() error = %v", err)
	}

	last := n.events[len(n.events)-1]
	req, ok := last.Payload.(notify.ConfirmationRequest)
	if !ok || !req.Resend {
		t.Errorf("expected resend confirmation request, got %+v", last)
	}
}

func TestMarkConfirmed(t *testing.T) {
	r, _, _ := testRegistry(t)
	ctx := context.Background()

	_, err := r.MarkConfirmed(ctx, "nope")
	var nfErr *model.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("MarkConfirmed(unknown) = %v, want NotFoundError", err)
	}

	c, err := r.Add(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.MarkConfirmed(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Confirmed {
		t.Error("Confirmed = false after MarkConfirmed")
	}

	// Idempotent.
	got, err = r.MarkConfirmed(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Confirmed {
		t.Error("second MarkConfirmed lost the flag")
	}
}
