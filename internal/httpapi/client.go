package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joshnesbit/quietsend/internal/model"
)

// Client is the typed HTTP client qsctl uses to talk to the daemon.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the daemon at addr (host:port or URL).
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Healthy reports whether the daemon answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err == nil
}

func (c *Client) ListContacts(ctx context.Context) ([]model.Contact, error) {
	var out []model.Contact
	err := c.do(ctx, http.MethodGet, "/api/contacts", nil, &out)
	return out, err
}

func (c *Client) AddContact(ctx context.Context, name, email string) (*model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, http.MethodPost, "/api/contacts", AddContactRequest{Name: name, Email: email}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/contacts/"+id, nil, nil)
}

func (c *Client) ResendConfirmation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/contacts/"+id+"/resend", nil, nil)
}

func (c *Client) MarkConfirmed(ctx context.Context, id string) (*model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, http.MethodPost, "/api/contacts/"+id+"/confirm", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListLinks(ctx context.Context) ([]model.SavedLink, error) {
	var out []model.SavedLink
	err := c.do(ctx, http.MethodGet, "/api/links", nil, &out)
	return out, err
}

func (c *Client) SaveLink(ctx context.Context, req SaveLinkRequest) (*model.SavedLink, error) {
	var out model.SavedLink
	err := c.do(ctx, http.MethodPost, "/api/links", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPreferences(ctx context.Context) (model.Preferences, error) {
	var out model.Preferences
	err := c.do(ctx, http.MethodGet, "/api/preferences", nil, &out)
	return out, err
}

func (c *Client) SetAlwaysSendCopy(ctx context.Context, v bool) (model.Preferences, error) {
	var out model.Preferences
	err := c.do(ctx, http.MethodPut, "/api/preferences", PutPreferencesRequest{AlwaysSendCopy: v}, &out)
	return out, err
}

func (c *Client) RunDigest(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/digest/run", nil, nil)
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
			return fmt.Errorf("%s", er.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
