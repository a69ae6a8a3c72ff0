package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SonyCookies/bongwell/internal/email"
	"github.com/SonyCookies/bongwell/internal/model"
	"github.com/SonyCookies/bongwell/internal/push"
	"github.com/SonyCookies/bongwell/internal/store"
	"github.com/SonyCookies/bongwell/internal/websocket"
)

type SubmissionHandler struct {
	submissionStore *store.SubmissionStore
	pushStore       *store.PushStore
	pushService     *push.Service
	emailClient     *email.Client
	adminEmail      string
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewSubmissionHandler(
	ss *store.SubmissionStore,
	ps *store.PushStore,
	pushSvc *push.Service,
	ec *email.Client,
	adminEmail string,
	hub *websocket.Hub,
	logger *slog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionStore: ss,
		pushStore:       ps,
		pushService:     pushSvc,
		emailClient:     ec,
		adminEmail:      adminEmail,
		hub:             hub,
		logger:          logger,
	}
}

func (h *SubmissionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type submissionRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Message string `json:"message"`
}

// Create records a contact form submission. One insert per submit; no
// retries. Notifications to the back-office are best-effort and never
// affect the visitor's response.
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Address == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	sub, err := h.submissionStore.Create(req.Name, req.Email, req.Phone, req.Address, req.Message)
	if err != nil {
		h.logger.Error("create submission", "error", err)
		writeError(w, http.StatusInternalServerError, "There was a problem sending your message. Please try again.")
		return
	}

	h.broadcast(websocket.NewMessage("submission", "created", sub.ID, nil))
	go h.notify(sub)

	writeJSON(w, http.StatusCreated, sub)
}

// notify fans the new submission out to admin push subscriptions and the
// configured notification address. Failures are logged only.
func (h *SubmissionHandler) notify(sub *model.Submission) {
	if h.pushService != nil && h.pushStore != nil {
		subs, err := h.pushStore.ListAdmins()
		if err != nil {
			h.logger.Error("list push subscriptions", "error", err)
		}
		for i := range subs {
			err := h.pushService.Send(&subs[i], push.Payload{
				Title: "New contact submission",
				Body:  sub.Name + ": " + sub.Message,
				URL:   "/admin/inbox",
				Tag:   "submission",
			})
			if err == push.ErrExpired {
				h.pushStore.Delete(subs[i].ID)
				continue
			}
			if err != nil {
				h.logger.Warn("send push", "error", err)
			}
		}
	}

	if h.emailClient != nil && h.emailClient.Configured() && h.adminEmail != "" {
		if err := h.emailClient.SendSubmissionNotice(h.adminEmail, sub.Name, sub.Email, sub.Message); err != nil {
			h.logger.Warn("send submission notice", "error", err)
		}
	}
}

// List returns submissions newest first, optionally narrowed by the filter
// query parameter. Filtering happens over the fetched slice, never as a
// second query.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissionStore.List()
	if err != nil {
		h.logger.Error("list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	filtered := model.FilterSubmissions(subs, r.URL.Query().Get("filter"))
	writeJSON(w, http.StatusOK, filtered)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sub, err := h.submissionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ToggleRead flips the read flag.
func (h *SubmissionHandler) ToggleRead(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.submissionStore.ToggleRead)
}

// ToggleContacted flips the contacted flag.
func (h *SubmissionHandler) ToggleContacted(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.submissionStore.ToggleContacted)
}

func (h *SubmissionHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(int64) (*model.Submission, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.submissionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}

	sub, err := fn(id)
	if err != nil {
		h.logger.Error("toggle submission flag", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update submission")
		return
	}

	h.broadcast(websocket.NewMessage("submission", "updated", sub.ID, nil))
	writeJSON(w, http.StatusOK, sub)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes replaces the triage notes. Last write wins; no conflict
// detection.
func (h *SubmissionHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	existing, err := h.submissionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}

	sub, err := h.submissionStore.UpdateNotes(id, req.Notes)
	if err != nil {
		h.logger.Error("update notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update submission")
		return
	}

	h.broadcast(websocket.NewMessage("submission", "updated", sub.ID, nil))
	writeJSON(w, http.StatusOK, sub)
}
