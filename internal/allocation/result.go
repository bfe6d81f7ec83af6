// Package allocation implements the sheet/slot allocation engine: it
// validates slot compatibility, derives the aggregate sheet status and
// performs the create/update/fulfill/cancel/delete transitions across the
// Reservation, Sheet and Student collections.
//
// The external document store offers no multi-document transactions, so an
// operation that fails partway leaves already-applied writes in place. The
// engine reports such failures instead of rolling back; the resulting state
// is recoverable (a sheet or student referencing a missing reservation) and
// must be reconciled out of band. Double-booking races are closed in
// process: every operation holds a per-sheet mutex around its availability
// check and writes.
package allocation

import "errors"

// Kind classifies a failed operation so handlers can choose an HTTP status
// without matching on message strings.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindIntegrity  Kind = "data_integrity"
	KindUpstream   Kind = "upstream"
)

// Result is the uniform shape every engine operation returns. Failures are
// carried in-band rather than as Go errors because callers forward them to
// clients verbatim; Kind stays internal.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
	Err     string `json:"error,omitempty"`
	Kind    Kind   `json:"-"`
}

func ok[T any](data T, msg string) Result[T] {
	return Result[T]{Success: true, Message: msg, Data: data}
}

func fail[T any](kind Kind, msg string, err error) Result[T] {
	r := Result[T]{Success: false, Message: msg, Kind: kind}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// errStudentMissing marks the partial-failure case where the reservation
// and sheet were written but the student mirror could not be updated.
var errStudentMissing = errors.New("student record not found")
