package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SonyCookies/bongwell/internal/database"
	"github.com/SonyCookies/bongwell/internal/model"
	"github.com/SonyCookies/bongwell/internal/store"
)

func setupDashboardHandler(t *testing.T) (*DashboardHandler, *store.ProjectStore, *store.SubmissionStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ps := store.NewProjectStore(db)
	ss := store.NewSubmissionStore(db)
	return NewDashboardHandler(ps, ss, slog.Default()), ps, ss, store.NewUserStore(db)
}

func TestDashboardStats(t *testing.T) {
	h, ps, ss, us := setupDashboardHandler(t)
	admin, _ := us.Create("admin@example.com", "Admin", "h")

	ps.Create("A", "", model.StatusCompleted, "", admin.ID)
	p, _ := ps.Create("B", "", model.StatusInProgress, "", admin.ID)
	ps.ToggleLike(p.ID, admin.ID)
	ps.AddComment(p.ID, admin.ID, "Admin", "first")

	ss.Create("Jane", "j@example.com", "1", "addr", "msg")
	read, _ := ss.Create("Joe", "joe@example.com", "2", "addr", "msg")
	ss.ToggleRead(read.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats struct {
		TotalProjects     int            `json:"total_projects"`
		ProjectsByStatus  map[string]int `json:"projects_by_status"`
		TotalSubmissions  int            `json:"total_submissions"`
		UnreadSubmissions int            `json:"unread_submissions"`
		TotalLikes        int            `json:"total_likes"`
		TotalComments     int            `json:"total_comments"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalProjects != 2 {
		t.Errorf("total_projects = %d, want 2", stats.TotalProjects)
	}
	if stats.ProjectsByStatus[model.StatusCompleted] != 1 {
		t.Errorf("projects_by_status = %v", stats.ProjectsByStatus)
	}
	if stats.TotalSubmissions != 2 || stats.UnreadSubmissions != 1 {
		t.Errorf("submissions = %d/%d, want 2/1", stats.TotalSubmissions, stats.UnreadSubmissions)
	}
	if stats.TotalLikes != 1 || stats.TotalComments != 1 {
		t.Errorf("likes/comments = %d/%d, want 1/1", stats.TotalLikes, stats.TotalComments)
	}
}

func TestDashboardActivity(t *testing.T) {
	h, ps, ss, us := setupDashboardHandler(t)
	admin, _ := us.Create("admin@example.com", "Admin", "h")
	p, _ := ps.Create("A", "", model.StatusPlanning, "", admin.ID)

	ss.Create("Jane", "j@example.com", "1", "addr", "help")
	ps.AddComment(p.ID, admin.ID, "Admin", "looking good")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/activity", nil)
	rec := httptest.NewRecorder()
	h.Activity(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var items []struct {
		Kind string `json:"kind"`
		Who  string `json:"who"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	kinds := map[string]bool{}
	for _, it := range items {
		kinds[it.Kind] = true
	}
	if !kinds["submission"] || !kinds["comment"] {
		t.Errorf("kinds = %v, want both submission and comment", kinds)
	}
}

func TestDashboardActivityCapped(t *testing.T) {
	h, _, ss, _ := setupDashboardHandler(t)

	for i := 0; i < activityLimit+5; i++ {
		ss.Create("V", "v@example.com", "1", "addr", "msg")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/activity", nil)
	rec := httptest.NewRecorder()
	h.Activity(rec, req)

	var items []json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(items) != activityLimit {
		t.Errorf("items = %d, want %d", len(items), activityLimit)
	}
}
