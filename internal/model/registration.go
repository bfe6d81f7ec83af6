package model

// RegistrationStatus is the review state of a membership request.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Registration is a membership request submitted by a prospective student.
// An admin approves it, which materializes a Student record, or rejects it.
type Registration struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	FatherName string             `json:"father_name,omitempty"`
	Phone      string             `json:"phone"`
	Address    string             `json:"address,omitempty"`
	Status     RegistrationStatus `json:"status"`
	StudentID  string             `json:"student_id,omitempty"` // set on approval
	CreatedAt  string             `json:"created_at"`
}
