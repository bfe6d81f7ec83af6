package model

// Attendance records one student's presence for one day. The document ID
// is the pair "<student_id>:<date>" so check-in is idempotent per day.
type Attendance struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out,omitempty"`
}
