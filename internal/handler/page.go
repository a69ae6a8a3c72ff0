package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/SonyCookies/bongwell/internal/auth"
	"github.com/SonyCookies/bongwell/internal/model"
	"github.com/SonyCookies/bongwell/internal/store"
)

// PageHandler renders the public marketing pages and admin shell pages.
// All dynamic interaction on these pages goes through the JSON API.
type PageHandler struct {
	projectStore *store.ProjectStore
	templates    *template.Template
	logger       *slog.Logger
}

func NewPageHandler(ps *store.ProjectStore, logger *slog.Logger) *PageHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/*.html"))
	return &PageHandler{
		projectStore: ps,
		templates:    tmpl,
		logger:       logger,
	}
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", "template", name, "error", err)
	}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, "home.html", nil)
}

func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about.html", nil)
}

func (h *PageHandler) Services(w http.ResponseWriter, r *http.Request) {
	h.render(w, "services.html", nil)
}

func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, "contact.html", nil)
}

func (h *PageHandler) Projects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectStore.List()
	if err != nil {
		h.logger.Error("list projects", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	h.render(w, "projects.html", map[string]any{"Projects": projects})
}

// ProjectDetail renders a single project. A missing project gets the
// not-found placeholder with a 404 status rather than a redirect.
func (h *PageHandler) ProjectDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		h.render(w, "not_found.html", nil)
		return
	}

	project, err := h.projectStore.GetByID(id)
	if err != nil {
		h.logger.Error("get project", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if project == nil {
		w.WriteHeader(http.StatusNotFound)
		h.render(w, "not_found.html", nil)
		return
	}

	h.render(w, "project_detail.html", map[string]any{
		"Project": project,
		"UserID":  auth.UserID(r.Context()),
	})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", map[string]any{
		"Registered": r.URL.Query().Get("registered") == "true",
	})
}

func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", nil)
}

func (h *PageHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, "admin_dashboard.html", h.adminData(r))
}

func (h *PageHandler) AdminProjects(w http.ResponseWriter, r *http.Request) {
	h.render(w, "admin_projects.html", h.adminData(r))
}

func (h *PageHandler) AdminInbox(w http.ResponseWriter, r *http.Request) {
	h.render(w, "admin_inbox.html", h.adminData(r))
}

func (h *PageHandler) adminData(r *http.Request) map[string]any {
	ac, _ := auth.FromContext(r.Context())
	return map[string]any{"Name": ac.Name}
}
