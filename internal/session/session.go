// Package session persists the state of one split-and-print run: which
// files were produced, which passes were submitted, and under which job
// ids. One session per uploaded document, surviving process restarts.
package session

import (
	"fmt"
	"time"
)

// Subset names one half of a duplex run.
type Subset string

const (
	SubsetOdd  Subset = "odd"
	SubsetEven Subset = "even"
)

// Session is the serialized snapshot stored as session.json inside the
// session's directory. Printed flags are monotonic: once true they stay
// true until a fresh split overwrites the whole session.
type Session struct {
	ID            string    `json:"session_id"`
	Filename      string    `json:"filename"`
	UploadPath    string    `json:"upload_path"`
	OddPath       string    `json:"odd_path"`
	EvenPath      string    `json:"even_path"`
	TotalPages    int       `json:"total_pages"`
	SelectedCount int       `json:"selected_count"`
	PageRange     string    `json:"page_range,omitempty"`
	OddPrinted    bool      `json:"odd_printed"`
	EvenPrinted   bool      `json:"even_printed"`
	OddJobID      string    `json:"odd_job_id,omitempty"`
	EvenJobID     string    `json:"even_job_id,omitempty"`
	PrinterName   string    `json:"printer_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubsetPath returns the split file backing the given subset.
func (s *Session) SubsetPath(sub Subset) (string, error) {
	switch sub {
	case SubsetOdd:
		return s.OddPath, nil
	case SubsetEven:
		return s.EvenPath, nil
	}
	return "", fmt.Errorf("unknown subset: %q", sub)
}

// Printed reports whether the given subset was already submitted.
func (s *Session) Printed(sub Subset) bool {
	if sub == SubsetOdd {
		return s.OddPrinted
	}
	return s.EvenPrinted
}

// RecordSubmission marks one subset printed and stores the job id and
// the printer used. Exactly one flag/id pair changes per call.
func (s *Session) RecordSubmission(sub Subset, jobID, printerName string) {
	switch sub {
	case SubsetOdd:
		s.OddPrinted = true
		s.OddJobID = jobID
	case SubsetEven:
		s.EvenPrinted = true
		s.EvenJobID = jobID
	}
	s.PrinterName = printerName
}

// CanContinue reports whether a resumed session should prompt the user
// to feed the stack back in and print the odd pass: true exactly when
// the even pass is printed, the odd pass is not, and the odd file still
// exists on disk.
func (s *Session) CanContinue(oddExists bool) bool {
	return s.EvenPrinted && !s.OddPrinted && oddExists
}
