package store

import (
	"database/sql"
	"fmt"

	"github.com/SonyCookies/bongwell/internal/model"
)

type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func scanSubmission(scanner interface{ Scan(...any) error }) (*model.Submission, error) {
	var sub model.Submission
	var read, contacted int
	err := scanner.Scan(
		&sub.ID, &sub.Name, &sub.Email, &sub.Phone, &sub.Address, &sub.Message,
		&sub.Date, &read, &contacted, &sub.Notes,
	)
	if err != nil {
		return nil, err
	}
	sub.Read = read != 0
	sub.Contacted = contacted != 0
	return &sub, nil
}

const submissionCols = `id, name, email, phone, address, message, date, read, contacted, notes`

// Create inserts a contact form submission with a server-assigned timestamp
// and default triage flags (unread, not contacted, empty notes).
func (s *SubmissionStore) Create(name, email, phone, address, message string) (*model.Submission, error) {
	result, err := s.db.Exec(
		`INSERT INTO submissions (name, email, phone, address, message) VALUES (?, ?, ?, ?, ?)`,
		name, email, phone, address, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *SubmissionStore) GetByID(id int64) (*model.Submission, error) {
	row := s.db.QueryRow(`SELECT `+submissionCols+` FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// List returns all submissions, newest first.
func (s *SubmissionStore) List() ([]model.Submission, error) {
	rows, err := s.db.Query(`SELECT ` + submissionCols + ` FROM submissions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ToggleRead flips the read flag and returns the updated submission.
func (s *SubmissionStore) ToggleRead(id int64) (*model.Submission, error) {
	_, err := s.db.Exec(`UPDATE submissions SET read = 1 - read WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("toggle read: %w", err)
	}
	return s.GetByID(id)
}

// ToggleContacted flips the contacted flag and returns the updated submission.
func (s *SubmissionStore) ToggleContacted(id int64) (*model.Submission, error) {
	_, err := s.db.Exec(`UPDATE submissions SET contacted = 1 - contacted WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("toggle contacted: %w", err)
	}
	return s.GetByID(id)
}

// UpdateNotes replaces the triage notes. Last write wins.
func (s *SubmissionStore) UpdateNotes(id int64, notes string) (*model.Submission, error) {
	_, err := s.db.Exec(`UPDATE submissions SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	return s.GetByID(id)
}

// CountUnread returns total and unread submission counts.
func (s *SubmissionStore) CountUnread() (total, unread int, err error) {
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN read = 0 THEN 1 ELSE 0 END), 0) FROM submissions`)
	if err := row.Scan(&total, &unread); err != nil {
		return 0, 0, fmt.Errorf("count submissions: %w", err)
	}
	return total, unread, nil
}
