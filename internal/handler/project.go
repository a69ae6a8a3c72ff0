package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SonyCookies/bongwell/internal/auth"
	"github.com/SonyCookies/bongwell/internal/model"
	"github.com/SonyCookies/bongwell/internal/storage"
	"github.com/SonyCookies/bongwell/internal/store"
	"github.com/SonyCookies/bongwell/internal/websocket"
)

// Uploaded images are capped at 10 MiB each.
const maxImageSize = 10 << 20

type ProjectHandler struct {
	projectStore *store.ProjectStore
	uploader     *storage.Uploader
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewProjectHandler(ps *store.ProjectStore, up *storage.Uploader, hub *websocket.Hub, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectStore: ps,
		uploader:     up,
		hub:          hub,
		logger:       logger,
	}
}

func (h *ProjectHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ClientName  string `json:"client_name"`
}

func (r *projectRequest) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.Status == "" {
		r.Status = model.StatusPlanning
	}
	if !model.ValidStatus(r.Status) {
		return "status must be planning, in-progress, completed, or on-hold"
	}
	return ""
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	project, err := h.projectStore.Create(req.Title, req.Description, req.Status, req.ClientName, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("create project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	h.broadcast(websocket.NewMessage("project", "created", project.ID, nil))
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectStore.List()
	if err != nil {
		h.logger.Error("list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	project, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	project, err := h.projectStore.Update(id, req.Title, req.Description, req.Status, req.ClientName)
	if err != nil {
		h.logger.Error("update project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	h.broadcast(websocket.NewMessage("project", "updated", project.ID, nil))
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	if err := h.projectStore.Delete(id); err != nil {
		h.logger.Error("delete project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	h.broadcast(websocket.NewMessage("project", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadImage accepts one multipart image, stores it in object storage, and
// appends its URL to the project's ordered image list.
func (h *ProjectHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	project, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	if h.uploader == nil || !h.uploader.Configured() {
		writeError(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	url, err := h.uploader.UploadImage(r.Context(), header.Filename, contentType, file)
	if err != nil {
		h.logger.Error("upload image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload image")
		return
	}

	if err := h.projectStore.AddImage(id, url); err != nil {
		h.logger.Error("record image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record image")
		return
	}

	h.broadcast(websocket.NewMessage("project", "updated", id, nil))
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// RemoveImage deletes the image named by the url query parameter from both
// the project record and object storage.
func (h *ProjectHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	if err := h.projectStore.RemoveImage(id, url); err != nil {
		h.logger.Error("remove image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove image")
		return
	}

	if h.uploader != nil && h.uploader.Configured() {
		if err := h.uploader.Delete(r.Context(), url); err != nil {
			h.logger.Warn("delete stored image", "error", err)
		}
	}

	h.broadcast(websocket.NewMessage("project", "updated", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ToggleLike flips the acting user's like on a project. The set membership
// and the cached count move together in one write.
func (h *ProjectHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	existing, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	liked, likeCount, err := h.projectStore.ToggleLike(id, ac.UserID)
	if err != nil {
		h.logger.Error("toggle like", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	h.broadcast(websocket.NewMessage("project", "liked", id, map[string]any{
		"like_count": likeCount,
	}))
	writeJSON(w, http.StatusOK, map[string]any{
		"liked":      liked,
		"like_count": likeCount,
	})
}

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment appends a comment by the acting user.
func (h *ProjectHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	existing, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	userName := ac.Name
	if userName == "" {
		userName = "Anonymous"
	}

	comment, err := h.projectStore.AddComment(id, ac.UserID, userName, req.Content)
	if err != nil {
		h.logger.Error("add comment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add comment")
		return
	}

	h.broadcast(websocket.NewMessage("project", "commented", id, map[string]any{
		"comment_id": comment.ID,
	}))
	writeJSON(w, http.StatusCreated, comment)
}
