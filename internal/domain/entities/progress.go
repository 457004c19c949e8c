package entities

import "time"

// StudentProgress is the stored per-lesson completion record shown in class
// and student listings. It is a denormalized convenience row; the attempt log
// remains the source of truth for the session state machine.
type StudentProgress struct {
	StudentID int64  `json:"student_id"`
	LessonID  string `json:"lesson_id"`
	Completed bool   `json:"completed"`
	Score     int    `json:"score"`
}

// StudentOverview is one dashboard row aggregated from the attempt log.
type StudentOverview struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Attempts     int        `json:"attempts"`
	Corrects     int        `json:"corrects"`
	Accuracy     float64    `json:"accuracy"`
	Completed    int        `json:"completed"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// LessonHistory is one per-lesson row of a student's session history.
type LessonHistory struct {
	LessonID        string     `json:"lesson_id"`
	Title           string     `json:"title"`
	Score           int        `json:"score"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	TotalAttempts   int        `json:"total_attempts"`
	CorrectAttempts int        `json:"correct_attempts"`
}

// StudentStats aggregates a student's activity across all sessions.
type StudentStats struct {
	LessonsAttempted int     `json:"lessons_attempted"`
	LessonsCompleted int     `json:"lessons_completed"`
	TotalAttempts    int     `json:"total_attempts"`
	CorrectAttempts  int     `json:"correct_attempts"`
	OverallAccuracy  float64 `json:"overall_accuracy"`
}

// LessonPerformance is one per-student row of a lesson's results, shown in
// the teacher lesson detail.
type LessonPerformance struct {
	FullName        string     `json:"full_name"`
	Score           int        `json:"score"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	TotalAttempts   int        `json:"total_attempts"`
	CorrectAttempts int        `json:"correct_attempts"`
}
