package model

// User represents an account that can sign in. Students get a STUDENT
// account when their registration is approved; staff accounts carry the
// ADMIN role. Only the bcrypt hash of the password is stored.
//
// Fields:
//  ID           – document identifier.
//  Email        – unique email address, lower-cased before storage.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or STUDENT.
//  StudentID    – linked Student record for STUDENT accounts, empty otherwise.
//  IsActive     – whether the account may sign in.
//  CreatedAt    – RFC 3339 creation timestamp.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	StudentID    string `json:"student_id,omitempty"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

// Roles accepted in the JWT "role" claim.
const (
	RoleAdmin   = "ADMIN"
	RoleStudent = "STUDENT"
)
