package handler

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/SonyCookies/bongwell/internal/model"
	"github.com/SonyCookies/bongwell/internal/store"
)

const activityLimit = 10

type DashboardHandler struct {
	projectStore    *store.ProjectStore
	submissionStore *store.SubmissionStore
	logger          *slog.Logger
}

func NewDashboardHandler(ps *store.ProjectStore, ss *store.SubmissionStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		projectStore:    ps,
		submissionStore: ss,
		logger:          logger,
	}
}

type dashboardStats struct {
	TotalProjects     int            `json:"total_projects"`
	ProjectsByStatus  map[string]int `json:"projects_by_status"`
	TotalSubmissions  int            `json:"total_submissions"`
	UnreadSubmissions int            `json:"unread_submissions"`
	TotalLikes        int            `json:"total_likes"`
	TotalComments     int            `json:"total_comments"`
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	byStatus, err := h.projectStore.CountByStatus()
	if err != nil {
		h.logger.Error("count projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	subTotal, unread, err := h.submissionStore.CountUnread()
	if err != nil {
		h.logger.Error("count submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	likes, comments, err := h.projectStore.Totals()
	if err != nil {
		h.logger.Error("project totals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, dashboardStats{
		TotalProjects:     total,
		ProjectsByStatus:  byStatus,
		TotalSubmissions:  subTotal,
		UnreadSubmissions: unread,
		TotalLikes:        likes,
		TotalComments:     comments,
	})
}

type activityItem struct {
	Kind string    `json:"kind"` // "submission" or "comment"
	Who  string    `json:"who"`
	What string    `json:"what"`
	At   time.Time `json:"at"`
}

// Activity returns the latest submissions and project comments merged
// newest first.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissionStore.List()
	if err != nil {
		h.logger.Error("list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}

	comments, err := h.projectStore.RecentComments(activityLimit)
	if err != nil {
		h.logger.Error("recent comments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}

	items := make([]activityItem, 0, activityLimit*2)
	for _, s := range truncateSubmissions(subs, activityLimit) {
		items = append(items, activityItem{Kind: "submission", Who: s.Name, What: s.Message, At: s.Date})
	}
	for _, c := range comments {
		items = append(items, activityItem{Kind: "comment", Who: c.UserName, What: c.Content, At: c.CreatedAt})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].At.After(items[j].At) })
	if len(items) > activityLimit {
		items = items[:activityLimit]
	}

	writeJSON(w, http.StatusOK, items)
}

func truncateSubmissions(subs []model.Submission, n int) []model.Submission {
	if len(subs) > n {
		return subs[:n]
	}
	return subs
}
