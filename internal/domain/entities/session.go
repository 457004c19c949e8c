package entities

import "time"

// Session is one learner's run through one lesson. FinishedAt is nil while the
// session is open; at most one open session exists per (user, lesson) pair.
type Session struct {
	ID         string     `json:"id"` // 16-char opaque id
	LessonID   string     `json:"lesson_id"`
	UserID     int64      `json:"user_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Score      int        `json:"score"`
}

// Finished reports whether the session has reached its absorbing state.
func (s *Session) Finished() bool {
	return s.FinishedAt != nil
}
