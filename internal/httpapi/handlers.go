package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/contacts"
	"github.com/joshnesbit/quietsend/internal/digest"
	"github.com/joshnesbit/quietsend/internal/links"
	"github.com/joshnesbit/quietsend/internal/model"
	"github.com/joshnesbit/quietsend/internal/prefs"
)

// Handlers binds the core operations to HTTP.
type Handlers struct {
	contacts *contacts.Registry
	links    *links.Queue
	prefs    *prefs.Store
	digest   *digest.Scheduler
	bus      *bus.Bus
	logger   *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(r *contacts.Registry, q *links.Queue, p *prefs.Store, d *digest.Scheduler, b *bus.Bus, logger *zap.Logger) *Handlers {
	return &Handlers{contacts: r, links: q, prefs: p, digest: d, bus: b, logger: logger}
}

// AddContactRequest is the POST /api/contacts body.
type AddContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SaveLinkRequest is the POST /api/links body. SendCopyToSelf left null
// snapshots the current preference, which is what the popup's checkbox
// default does.
type SaveLinkRequest struct {
	ContactID      string `json:"contactId"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Note           string `json:"note"`
	SendCopyToSelf *bool  `json:"sendCopyToSelf"`
}

// PutPreferencesRequest is the PUT /api/preferences body.
type PutPreferencesRequest struct {
	AlwaysSendCopy bool `json:"alwaysSendCopy"`
}

// StatusResponse is the GET /api/status body.
type StatusResponse struct {
	Contacts     int       `json:"contacts"`
	PendingLinks int       `json:"pendingLinks"`
	TotalLinks   int       `json:"totalLinks"`
	NextDigestAt time.Time `json:"nextDigestAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.contacts.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) AddContact(w http.ResponseWriter, r *http.Request) {
	var req AddContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.Invalid("malformed request body"))
		return
	}
	c, err := h.contacts.Add(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.ResendConfirmation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkConfirmed(w http.ResponseWriter, r *http.Request) {
	c, err := h.contacts.MarkConfirmed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) ListLinks(w http.ResponseWriter, r *http.Request) {
	list, err := h.links.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []model.SavedLink{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) SaveLink(w http.ResponseWriter, r *http.Request) {
	var req SaveLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.Invalid("malformed request body"))
		return
	}

	var sendCopy bool
	if req.SendCopyToSelf != nil {
		sendCopy = *req.SendCopyToSelf
	} else {
		p, err := h.prefs.Get(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		sendCopy = p.AlwaysSendCopy
	}

	entry, err := h.links.Save(r.Context(), req.ContactID, req.URL, req.Title, req.Note, sendCopy)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.prefs.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var req PutPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.Invalid("malformed request body"))
		return
	}
	p, err := h.prefs.SetAlwaysSendCopy(r.Context(), req.AlwaysSendCopy)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RunDigest compiles and hands off the digest immediately instead of
// waiting for Sunday. Mainly an operator affordance via qsctl.
func (h *Handlers) RunDigest(w http.ResponseWriter, r *http.Request) {
	if err := h.digest.Run(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	cs, err := h.contacts.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	all, err := h.links.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	pending := 0
	for i := range all {
		if !all[i].Delivered() {
			pending++
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Contacts:     len(cs),
		PendingLinks: pending,
		TotalLinks:   len(all),
		NextDigestAt: h.digest.NextRun(),
	})
}

// Events streams bus events as server-sent events until the client hangs up.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fl.Flush()

	ch, unsub := h.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			fl.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var (
		vErr *model.ValidationError
		nErr *model.NotFoundError
		cErr *model.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Reason})
	case errors.As(err, &nErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: nErr.Error()})
	case errors.As(err, &cErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: cErr.Reason})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong, please try again"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
