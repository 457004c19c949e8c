package entities

import "time"

// DefaultMaxAttempts is applied to steps created without an explicit limit.
const DefaultMaxAttempts = 3

// Lesson is an ordered curriculum unit composed of steps.
type Lesson struct {
	ID          string    `json:"id"` // 8-char opaque id
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	OrderIndex  int       `json:"order_index"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// LessonStep is one prompt/target/hint unit within a lesson, addressed by
// its 0-based position. The target comparison is case-insensitive.
type LessonStep struct {
	ID          int64  `json:"id"`
	LessonID    string `json:"lesson_id"`
	StepIndex   int    `json:"step_index"`
	Type        string `json:"type"` // free-form tag: input, select, match
	Prompt      string `json:"prompt"`
	Target      string `json:"target"`
	Hint        string `json:"hint"`
	MaxAttempts int    `json:"max_attempts"`
}

// LessonSummary is a lesson row joined with its step count, as listed in the
// teacher authoring view.
type LessonSummary struct {
	Lesson
	StepCount int `json:"step_count"`
}

// StudentLesson is a lesson row joined with the requesting student's stored
// progress, as listed in the student lesson picker.
type StudentLesson struct {
	Lesson
	TotalSteps int  `json:"total_steps"`
	Completed  bool `json:"completed"`
	Score      int  `json:"score"`
}
