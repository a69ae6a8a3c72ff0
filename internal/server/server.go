package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/SonyCookies/bongwell/internal/auth"
	"github.com/SonyCookies/bongwell/internal/config"
	"github.com/SonyCookies/bongwell/internal/email"
	"github.com/SonyCookies/bongwell/internal/handler"
	"github.com/SonyCookies/bongwell/internal/lockout"
	"github.com/SonyCookies/bongwell/internal/middleware"
	"github.com/SonyCookies/bongwell/internal/push"
	"github.com/SonyCookies/bongwell/internal/storage"
	"github.com/SonyCookies/bongwell/internal/store"
	ws "github.com/SonyCookies/bongwell/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	submissionH  *handler.SubmissionHandler
	projectH     *handler.ProjectHandler
	dashboardH   *handler.DashboardHandler
	pushH        *handler.PushHandler
	pageH        *handler.PageHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	issuer       *auth.TokenIssuer
	governor     *lockout.Governor
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg config.Config, secret []byte, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	submissionStore := store.NewSubmissionStore(db)
	projectStore := store.NewProjectStore(db)
	attemptStore := store.NewLoginAttemptStore(db)
	pushStore := store.NewPushStore(db)

	issuer := auth.NewTokenIssuer(secret)
	governor := lockout.New(attemptStore, logger.With("component", "lockout"))

	uploader := storage.NewUploader(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PublicURL: cfg.Storage.PublicURL,
	})

	pushSvc := push.NewService(cfg.Push.PublicKey, cfg.Push.PrivateKey)
	emailClient := email.NewClient(cfg.Email.ServerToken, cfg.Email.FromEmail)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, governor, issuer, logger.With("component", "auth")),
		submissionH:  handler.NewSubmissionHandler(submissionStore, pushStore, pushSvc, emailClient, cfg.AdminEmail, hub, logger.With("component", "submission")),
		projectH:     handler.NewProjectHandler(projectStore, uploader, hub, logger.With("component", "project")),
		dashboardH:   handler.NewDashboardHandler(projectStore, submissionStore, logger.With("component", "dashboard")),
		pushH:        handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		pageH:        handler.NewPageHandler(projectStore, logger.With("component", "page")),
		sessionStore: sessionStore,
		userStore:    userStore,
		issuer:       issuer,
		governor:     governor,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public pages
	outerMux.HandleFunc("GET /", s.pageH.Home)
	outerMux.HandleFunc("GET /about", s.pageH.About)
	outerMux.HandleFunc("GET /services", s.pageH.Services)
	outerMux.HandleFunc("GET /contact", s.pageH.Contact)
	outerMux.HandleFunc("GET /projects", s.pageH.Projects)
	outerMux.HandleFunc("GET /projects/{id}", s.pageH.ProjectDetail)
	outerMux.HandleFunc("GET /auth/login", s.pageH.Login)
	outerMux.HandleFunc("GET /auth/register", s.pageH.Register)

	// Public API
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/submissions", s.submissionH.Create)
	outerMux.HandleFunc("GET /api/projects", s.projectH.List)
	outerMux.HandleFunc("GET /api/projects/{id}", s.projectH.Get)
	outerMux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Authenticated routes
	authedMux := http.NewServeMux()
	s.registerAuthedRoutes(authedMux)

	// Admin routes, nested inside the authenticated mux
	adminMux := http.NewServeMux()
	s.registerAdminRoutes(adminMux)
	authedMux.Handle("/admin/", middleware.RequireAdmin(adminMux))
	authedMux.Handle("/admin", middleware.RequireAdmin(adminMux))
	authedMux.Handle("/api/admin/", middleware.RequireAdmin(adminMux))
	authedMux.Handle("/ws", middleware.RequireAdmin(adminMux))

	// Each mount carries a method so none of them overlaps the
	// method-less way with the "GET /" page catch-all above, which
	// ServeMux would reject at registration time.
	authMiddleware := middleware.RequireAuth(s.issuer, s.sessionStore, s.userStore)
	authed := authMiddleware(authedMux)
	outerMux.Handle("POST /api/auth/logout", authed)
	outerMux.Handle("POST /api/projects/{id}/like", authed)
	outerMux.Handle("POST /api/projects/{id}/comments", authed)
	outerMux.Handle("POST /api/push/subscribe", authed)
	outerMux.Handle("POST /api/push/unsubscribe", authed)
	outerMux.Handle("GET /admin", authed)
	outerMux.Handle("GET /admin/", authed)
	outerMux.Handle("GET /api/admin/", authed)
	outerMux.Handle("POST /api/admin/", authed)
	outerMux.Handle("PUT /api/admin/", authed)
	outerMux.Handle("DELETE /api/admin/", authed)
	outerMux.Handle("GET /ws", authed)

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerAuthedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("POST /api/projects/{id}/like", s.projectH.ToggleLike)
	mux.HandleFunc("POST /api/projects/{id}/comments", s.projectH.AddComment)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	// Admin pages
	mux.HandleFunc("GET /admin", s.pageH.AdminDashboard)
	mux.HandleFunc("GET /admin/projects", s.pageH.AdminProjects)
	mux.HandleFunc("GET /admin/inbox", s.pageH.AdminInbox)

	// Project management
	mux.HandleFunc("POST /api/admin/projects", s.projectH.Create)
	mux.HandleFunc("PUT /api/admin/projects/{id}", s.projectH.Update)
	mux.HandleFunc("DELETE /api/admin/projects/{id}", s.projectH.Delete)
	mux.HandleFunc("POST /api/admin/projects/{id}/images", s.projectH.UploadImage)
	mux.HandleFunc("DELETE /api/admin/projects/{id}/images", s.projectH.RemoveImage)

	// Submission triage
	mux.HandleFunc("GET /api/admin/submissions", s.submissionH.List)
	mux.HandleFunc("GET /api/admin/submissions/{id}", s.submissionH.Get)
	mux.HandleFunc("POST /api/admin/submissions/{id}/read", s.submissionH.ToggleRead)
	mux.HandleFunc("POST /api/admin/submissions/{id}/contacted", s.submissionH.ToggleContacted)
	mux.HandleFunc("PUT /api/admin/submissions/{id}/notes", s.submissionH.UpdateNotes)

	// Dashboard
	mux.HandleFunc("GET /api/admin/dashboard/stats", s.dashboardH.Stats)
	mux.HandleFunc("GET /api/admin/dashboard/activity", s.dashboardH.Activity)

	// Live updates feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
