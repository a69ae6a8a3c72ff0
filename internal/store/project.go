package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SonyCookies/bongwell/internal/model"
)

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func scanProject(scanner interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	var createdBy sql.NullInt64
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Description, &p.Status, &p.ClientName,
		&p.LikeCount, &p.CommentCount, &createdBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		p.CreatedBy = &createdBy.Int64
	}
	return &p, nil
}

const projectCols = `id, title, description, status, client_name, like_count, comment_count, created_by, created_at, updated_at`

func (s *ProjectStore) Create(title, description, status, clientName string, createdBy int64) (*model.Project, error) {
	result, err := s.db.Exec(
		`INSERT INTO projects (title, description, status, client_name, created_by) VALUES (?, ?, ?, ?, ?)`,
		title, description, status, clientName, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns a fully hydrated project (images, likes, comments), or nil
// if it does not exist.
func (s *ProjectStore) GetByID(id int64) (*model.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if p.Images, err = s.listImages(id); err != nil {
		return nil, err
	}
	if p.Likes, err = s.listLikes(id); err != nil {
		return nil, err
	}
	if p.Comments, err = s.ListComments(id); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all projects newest first, with images attached but without
// like membership or comments (the list views only need counts).
func (s *ProjectStore) List() ([]model.Project, error) {
	rows, err := s.db.Query(`SELECT ` + projectCols + ` FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		imgs, err := s.listImages(projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Images = imgs
	}
	return projects, nil
}

func (s *ProjectStore) Update(id int64, title, description, status, clientName string) (*model.Project, error) {
	_, err := s.db.Exec(
		`UPDATE projects SET title = ?, description = ?, status = ?, client_name = ?, updated_at = datetime('now') WHERE id = ?`,
		title, description, status, clientName, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProjectStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// CountByStatus returns project counts keyed by status.
func (s *ProjectStore) CountByStatus() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM projects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Images

func (s *ProjectStore) listImages(projectID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT url FROM project_images WHERE project_id = ? ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// AddImage appends an image URL at the end of the project's ordered list.
func (s *ProjectStore) AddImage(projectID int64, url string) error {
	_, err := s.db.Exec(
		`INSERT INTO project_images (project_id, position, url)
		 SELECT ?, COALESCE(MAX(position), -1) + 1, ? FROM project_images WHERE project_id = ?`,
		projectID, url, projectID,
	)
	if err != nil {
		return fmt.Errorf("add image: %w", err)
	}
	return nil
}

func (s *ProjectStore) RemoveImage(projectID int64, url string) error {
	_, err := s.db.Exec(
		`DELETE FROM project_images WHERE project_id = ? AND url = ?`,
		projectID, url,
	)
	if err != nil {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// Likes

func (s *ProjectStore) listLikes(projectID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM project_likes WHERE project_id = ? ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ToggleLike adds or removes the user's like. The membership change and the
// like_count adjustment happen in one transaction so readers never observe a
// count that disagrees with the set. Returns the new liked state and count.
func (s *ProjectStore) ToggleLike(projectID, userID int64) (liked bool, likeCount int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, 0, fmt.Errorf("begin toggle like: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM project_likes WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("check like: %w", err)
	}

	if exists > 0 {
		if _, err = tx.Exec(
			`DELETE FROM project_likes WHERE project_id = ? AND user_id = ?`,
			projectID, userID,
		); err != nil {
			return false, 0, fmt.Errorf("remove like: %w", err)
		}
		if _, err = tx.Exec(
			`UPDATE projects SET like_count = like_count - 1 WHERE id = ?`,
			projectID,
		); err != nil {
			return false, 0, fmt.Errorf("decrement like count: %w", err)
		}
		liked = false
	} else {
		if _, err = tx.Exec(
			`INSERT INTO project_likes (project_id, user_id) VALUES (?, ?)`,
			projectID, userID,
		); err != nil {
			return false, 0, fmt.Errorf("insert like: %w", err)
		}
		if _, err = tx.Exec(
			`UPDATE projects SET like_count = like_count + 1 WHERE id = ?`,
			projectID,
		); err != nil {
			return false, 0, fmt.Errorf("increment like count: %w", err)
		}
		liked = true
	}

	if err = tx.QueryRow(
		`SELECT like_count FROM projects WHERE id = ?`, projectID,
	).Scan(&likeCount); err != nil {
		return false, 0, fmt.Errorf("read like count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit toggle like: %w", err)
	}
	return liked, likeCount, nil
}

// Comments

func scanComment(scanner interface{ Scan(...any) error }) (*model.Comment, error) {
	var c model.Comment
	err := scanner.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const commentCols = `id, project_id, user_id, user_name, content, created_at`

// AddComment appends a comment and bumps comment_count in one transaction.
// The id is a random UUID rather than a wall-clock value so concurrent
// comments cannot collide.
func (s *ProjectStore) AddComment(projectID, userID int64, userName, content string) (*model.Comment, error) {
	id := uuid.NewString()
	content = strings.TrimSpace(content)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin add comment: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(
		`INSERT INTO project_comments (id, project_id, user_id, user_name, content) VALUES (?, ?, ?, ?, ?)`,
		id, projectID, userID, userName, content,
	); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	if _, err = tx.Exec(
		`UPDATE projects SET comment_count = comment_count + 1 WHERE id = ?`,
		projectID,
	); err != nil {
		return nil, fmt.Errorf("increment comment count: %w", err)
	}

	row := tx.QueryRow(`SELECT `+commentCols+` FROM project_comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add comment: %w", err)
	}
	return c, nil
}

// ListComments returns a project's comments in insertion order.
func (s *ProjectStore) ListComments(projectID int64) ([]model.Comment, error) {
	rows, err := s.db.Query(
		`SELECT `+commentCols+` FROM project_comments WHERE project_id = ? ORDER BY created_at, rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// RecentComments returns the latest comments across all projects.
func (s *ProjectStore) RecentComments(limit int) ([]model.Comment, error) {
	rows, err := s.db.Query(
		`SELECT `+commentCols+` FROM project_comments ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Totals returns overall like and comment counts for the dashboard.
func (s *ProjectStore) Totals() (likes, comments int, err error) {
	row := s.db.QueryRow(`SELECT COALESCE(SUM(like_count), 0), COALESCE(SUM(comment_count), 0) FROM projects`)
	if err := row.Scan(&likes, &comments); err != nil {
		return 0, 0, fmt.Errorf("project totals: %w", err)
	}
	return likes, comments, nil
}
