package entities

import "time"

// Class groups students under an optional teacher; lessons are assigned to
// classes and become visible to the enrolled students.
type Class struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeacherID   *int64    `json:"teacher_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassOverview is a class row with its teacher name and member count, as
// listed in the admin overview.
type ClassOverview struct {
	Class
	TeacherName   *string `json:"teacher_name,omitempty"`
	StudentsCount int     `json:"students_count"`
}

// TeacherClass is a class row with member counts plus the enrolled students,
// as listed in the teacher's class view.
type TeacherClass struct {
	Class
	StudentCount int            `json:"student_count"`
	LessonCount  int            `json:"lesson_count"`
	Students     []ClassStudent `json:"students"`
}

// ClassStudent is an enrolled student with completed-lesson aggregates.
type ClassStudent struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	FullName         string `json:"full_name"`
	CompletedLessons int    `json:"completed_lessons"`
	TotalScore       int    `json:"total_score"`
}

// ClassMember is an enrolled student as listed in the admin class detail.
type ClassMember struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
