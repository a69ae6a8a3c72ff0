package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/SonyCookies/bongwell/internal/config"
	"github.com/SonyCookies/bongwell/internal/database"
	"github.com/SonyCookies/bongwell/internal/store"
)

// setupServer builds the full server against an in-memory database. Page
// templates are loaded relative to the repository root, so chdir there first.
func setupServer(t *testing.T) *Server {
	t.Helper()
	t.Chdir("../..")

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(db, config.Config{}, []byte("test-secret"), slog.Default())
}

func loginTestUser(t *testing.T, s *Server, email string, admin bool) string {
	t.Helper()
	u, err := s.userStore.Create(email, "Test", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if admin {
		if err := s.userStore.SetAdmin(u.ID, true); err != nil {
			t.Fatalf("set admin: %v", err)
		}
	}
	token, jti, err := s.issuer.Issue(u.ID, email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := s.sessionStore.Create(jti, u.ID); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func TestRouterRegistersWithoutConflict(t *testing.T) {
	s := setupServer(t)

	// Building the route table must not panic; overlapping method-less
	// mounts next to the page catch-all used to blow up right here.
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}
}

func TestRouterPublicRoutes(t *testing.T) {
	s := setupServer(t)
	router := s.Router()

	for _, path := range []string{"/", "/about", "/contact", "/projects", "/auth/login"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/no-such-page", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /no-such-page status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/projects", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/projects status = %d, want 200", rec.Code)
	}
}

func TestRouterRejectsUnauthenticated(t *testing.T) {
	s := setupServer(t)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/logout", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST /api/auth/logout status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/admin", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("GET /admin status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Errorf("redirect Location = %q, want /auth/login", loc)
	}
}

func TestRouterAdminTier(t *testing.T) {
	s := setupServer(t)
	router := s.Router()

	visitor := loginTestUser(t, s, "visitor@example.com", false)
	admin := loginTestUser(t, s, "admin@example.com", true)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		req.AddCookie(&http.Cookie{Name: "bongwell_session", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/api/admin/submissions", visitor); rec.Code != http.StatusForbidden {
		t.Errorf("visitor GET /api/admin/submissions status = %d, want 403", rec.Code)
	}
	if rec := get("/admin", visitor); rec.Code != http.StatusForbidden {
		t.Errorf("visitor GET /admin status = %d, want 403", rec.Code)
	}

	if rec := get("/api/admin/submissions", admin); rec.Code != http.StatusOK {
		t.Errorf("admin GET /api/admin/submissions status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := get("/api/admin/dashboard/stats", admin); rec.Code != http.StatusOK {
		t.Errorf("admin GET /api/admin/dashboard/stats status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := get("/admin", admin); rec.Code != http.StatusOK {
		t.Errorf("admin GET /admin status = %d, want 200", rec.Code)
	}
}

func TestRouterAuthedInteraction(t *testing.T) {
	s := setupServer(t)
	router := s.Router()
	token := loginTestUser(t, s, "visitor@example.com", false)

	p, err := store.NewProjectStore(s.db).Create("Well No. 4", "Deep bore", "completed", "Acme Farms", 1)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/projects/"+strconv.FormatInt(p.ID, 10)+"/like", nil)
	req.AddCookie(&http.Cookie{Name: "bongwell_session", Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST like status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"liked":true`) {
		t.Errorf("like response = %s, want liked true", rec.Body.String())
	}
}
