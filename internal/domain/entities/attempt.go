package entities

import "time"

// SkipAnswer is the sentinel answer recorded when a learner skips a step.
const SkipAnswer = "__SKIP__"

// Attempt is an immutable log record of one answer submission or skip.
// Attempts are never updated or deleted; the count of correct attempts in a
// session is the session's current step index.
type Attempt struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	LessonID  string    `json:"lesson_id"`
	UserID    int64     `json:"user_id"`
	StepIndex int       `json:"step_index"`
	Answer    string    `json:"answer"`
	Correct   bool      `json:"correct"`
	Attempts  int       `json:"attempts"` // 1-based ordinal within the step
	TS        time.Time `json:"ts"`
}
