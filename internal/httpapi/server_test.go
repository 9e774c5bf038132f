package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/contacts"
	"github.com/joshnesbit/quietsend/internal/digest"
	"github.com/joshnesbit/quietsend/internal/kv"
	"github.com/joshnesbit/quietsend/internal/links"
	"github.com/joshnesbit/quietsend/internal/notify"
	"github.com/joshnesbit/quietsend/internal/prefs"
)

func testServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zap.NewNop()
	b := bus.New()
	n := notify.NewLogNotifier(logger)
	reg := contacts.NewRegistry(store, n, b, logger)
	queue := links.NewQueue(store, reg, b, logger)
	ps := prefs.NewStore(store, b, logger)
	sched := digest.NewScheduler(queue, reg, n, b, logger)

	h := NewHandlers(reg, queue, ps, sched, b, logger)
	srv := httptest.NewServer(Router(h, logger))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL)
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

// Fresh install to first saved link, over the wire.
func TestFreshInstallFlow(t *testing.T) {
	_, c := testServer(t)
	ctx := context.Background()

	list, err := c.ListContacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("fresh install has %d contacts, want 0", len(list))
	}

	alice, err := c.AddContact(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("AddContact() error = %v", err)
	}

	entry, err := c.SaveLink(ctx, SaveLinkRequest{
		ContactID: alice.ID,
		URL:       "https://example.com",
		Title:     "Example",
		Note:      "note",
	})
	if err != nil {
		t.Fatalf("SaveLink() error = %v", err)
	}
	if entry.ContactID != alice.ID {
		t.Errorf("entry contactId = %q, want %q", entry.ContactID, alice.ID)
	}

	linksList, err := c.ListLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(linksList) != 1 || linksList[0].ContactID != alice.ID {
		t.Fatalf("ListLinks() = %v, want one entry for alice", linksList)
	}
}

// Null sendCopyToSelf snapshots the preference at save time; flipping the
// preference later leaves the saved entry untouched.
func TestSaveLinkSnapshotsPreference(t *testing.T) {
	_, c := testServer(t)
	ctx := context.Background()

	if _, err := c.SetAlwaysSendCopy(ctx, true); err != nil {
		t.Fatal(err)
	}
	alice, err := c.AddContact(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	entry, err := c.SaveLink(ctx, SaveLinkRequest{
		ContactID: alice.ID,
		URL:       "https://example.com",
		Title:     "Example",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !entry.SendCopyToSelf {
		t.Error("entry should snapshot alwaysSendCopy=true")
	}

	if _, err := c.SetAlwaysSendCopy(ctx, false); err != nil {
		t.Fatal(err)
	}
	linksList, err := c.ListLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !linksList[0].SendCopyToSelf {
		t.Error("already-saved entry changed with the preference")
	}

	p, err := c.GetPreferences(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.AlwaysSendCopy {
		t.Error("preference should now be false")
	}
}

func TestErrorStatusCodes(t *testing.T) {
	srv, c := testServer(t)
	ctx := context.Background()

	alice, err := c.AddContact(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SaveLink(ctx, SaveLinkRequest{ContactID: alice.ID, URL: "https://example.com"}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		desc   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid contact", http.MethodPost, "/api/contacts", `{"name":"","email":""}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/contacts", `{`, http.StatusBadRequest},
		{"unknown resend", http.MethodPost, "/api/contacts/ghost/resend", "", http.StatusNotFound},
		{"unknown confirm", http.MethodPost, "/api/contacts/ghost/confirm", "", http.StatusNotFound},
		{"save for unknown contact", http.MethodPost, "/api/links", `{"contactId":"ghost","url":"https://x.test"}`, http.StatusBadRequest},
		{"delete with pending links", http.MethodDelete, "/api/contacts/" + alice.ID, "", http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			_ = resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestDeleteContactNoContent(t *testing.T) {
	_, c := testServer(t)
	ctx := context.Background()

	alice, err := c.AddContact(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteContact(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}
	// Unknown id stays a no-op over the wire too.
	if err := c.DeleteContact(ctx, alice.ID); err != nil {
		t.Errorf("second DeleteContact() error = %v", err)
	}
}

func TestStatusAndDigestRun(t *testing.T) {
	_, c := testServer(t)
	ctx := context.Background()

	alice, err := c.AddContact(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.MarkConfirmed(ctx, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SaveLink(ctx, SaveLinkRequest{ContactID: alice.ID, URL: "https://example.com"}); err != nil {
		t.Fatal(err)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Contacts != 1 || st.PendingLinks != 1 || st.TotalLinks != 1 {
		t.Errorf("status = %+v, want 1 contact, 1 pending, 1 total", st)
	}

	if err := c.RunDigest(ctx); err != nil {
		t.Fatalf("RunDigest() error = %v", err)
	}

	st, err = c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.PendingLinks != 0 || st.TotalLinks != 1 {
		t.Errorf("status after digest = %+v, want 0 pending of 1 total", st)
	}
}
