package model

import "time"

// Project statuses.
const (
	StatusPlanning   = "planning"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOnHold     = "on-hold"
)

// ValidStatus reports whether s is one of the recognized project statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

type Project struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	ClientName   string    `json:"client_name"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedBy    *int64    `json:"created_by"`
	Images       []string  `json:"images"`
	Likes        []int64   `json:"likes"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
