package entities

import "time"

// Role values stored in users.role.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User represents a platform account: admin, teacher or student.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CI           *string   `json:"ci,omitempty"` // optional national document id
	Active       bool      `json:"active"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewUser(username, fullName, role string) *User {
	return &User{
		Username: username,
		FullName: fullName,
		Role:     role,
		Active:   true,
	}
}
