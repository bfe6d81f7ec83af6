package model

// Payment is a fee entry recorded by an admin against a student.
type Payment struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	AmountCents int    `json:"amount_cents"`
	Month       string `json:"month"` // YYYY-MM the payment covers
	Method      string `json:"method,omitempty"`
	Note        string `json:"note,omitempty"`
	RecordedBy  string `json:"recorded_by,omitempty"`
	CreatedAt   string `json:"created_at"`
}
