package model

import "time"

type Submission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
	Read      bool      `json:"read"`
	Contacted bool      `json:"contacted"`
	Notes     string    `json:"notes"`
}

// Submission list filters.
const (
	FilterAll          = "all"
	FilterUnread       = "unread"
	FilterRead         = "read"
	FilterContacted    = "contacted"
	FilterNotContacted = "not-contacted"
)

// FilterSubmissions returns the subset of subs matching the given filter.
// It operates purely on the in-memory slice; order is preserved. An
// unrecognized filter behaves like "all".
func FilterSubmissions(subs []Submission, filter string) []Submission {
	if filter == "" || filter == FilterAll {
		return subs
	}
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		switch filter {
		case FilterUnread:
			if !s.Read {
				out = append(out, s)
			}
		case FilterRead:
			if s.Read {
				out = append(out, s)
			}
		case FilterContacted:
			if s.Contacted {
				out = append(out, s)
			}
		case FilterNotContacted:
			if !s.Contacted {
				out = append(out, s)
			}
		default:
			out = append(out, s)
		}
	}
	return out
}
