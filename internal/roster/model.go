package roster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatus is returned when a marking action carries a status that is
// not an observable one. Callers map it to a validation failure, unlike store
// errors.
var ErrInvalidStatus = errors.New("invalid status")

// Status is the last observed session status for a student.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	// StatusUnset marks a student with no observation recorded yet.
	StatusUnset Status = ""
)

// Valid reports whether s is an observable status for a marking action.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// StudentRecord is one student's roster document.
type StudentRecord struct {
	Batch           string  `json:"batch_id"`
	Section         string  `json:"section_id"`
	StudentID       string  `json:"student_id"`
	Name            string  `json:"name"`
	RollNumber      string  `json:"roll_number"`
	Status          Status  `json:"status"`
	TotalClasses    int     `json:"total_classes"`
	ClassesAttended int     `json:"classes_attended"`
	Subject         *string `json:"subject,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
}

// Ref addresses a single student document.
type Ref struct {
	Batch     string
	Section   string
	StudentID string
}

// Path renders the hierarchical document path.
func (r Ref) Path() string {
	return fmt.Sprintf("batches/%s/sections/%s/students/%s", r.Batch, r.Section, r.StudentID)
}

// ParsePath parses a batches/{b}/sections/{s}/students/{id} path. Segments are
// case-sensitive and must all be present.
func ParsePath(p string) (Ref, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 6 || parts[0] != "batches" || parts[2] != "sections" || parts[4] != "students" {
		return Ref{}, fmt.Errorf("invalid student path %q", p)
	}
	ref := Ref{Batch: parts[1], Section: parts[3], StudentID: parts[5]}
	if ref.Batch == "" || ref.Section == "" || ref.StudentID == "" {
		return Ref{}, fmt.Errorf("invalid student path %q", p)
	}
	return ref, nil
}

// Patch is a partial update of the mutable roster fields. Nil fields are left
// untouched by the store.
type Patch struct {
	Name        *string
	RollNumber  *string
	Subject     *string
	PhoneNumber *string
}

// Observe returns the record after recording one observation: the status flips
// to observed, the session counter always advances, and the attended counter
// advances only on present. Missing counters count from zero. The repository
// applies the same transition as a single conditional write; this form exists
// so the arithmetic can be checked without a database.
func Observe(rec StudentRecord, observed Status) (StudentRecord, error) {
	if !observed.Valid() {
		return rec, fmt.Errorf("%w %q", ErrInvalidStatus, observed)
	}
	if rec.TotalClasses < 0 {
		rec.TotalClasses = 0
	}
	if rec.ClassesAttended < 0 {
		rec.ClassesAttended = 0
	}
	rec.Status = observed
	rec.TotalClasses++
	if observed == StatusPresent {
		rec.ClassesAttended++
	}
	return rec, nil
}
