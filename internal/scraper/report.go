package scraper

import "time"

// PageError describes one recovered per-page failure
type PageError struct {
	Page    int    `json:"page"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// RunReport accumulates per-page outcomes of a collection run. It is a pure
// data accumulator: created at run start, mutated once per page by the
// paginator, read-only after the run ends. Progress observers read it; it
// never drives them.
type RunReport struct {
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
	PagesAttempted  int         `json:"pages_attempted"`
	EmptyPages      int         `json:"empty_pages"`
	CardsSeen       int         `json:"cards_seen"`
	Accepted        int         `json:"accepted"`
	RejectedMissing int         `json:"rejected_missing"`
	RejectedParse   int         `json:"rejected_parse"`
	RejectedZero    int         `json:"rejected_zero"`
	Errors          []PageError `json:"errors,omitempty"`
	Fatal           string      `json:"fatal,omitempty"`
}

// NewRunReport creates a report stamped with the run start time
func NewRunReport() *RunReport {
	return &RunReport{StartedAt: time.Now()}
}

// Rejected returns the total number of rejected cards
func (r *RunReport) Rejected() int {
	return r.RejectedMissing + r.RejectedParse + r.RejectedZero
}

// RecordReject counts one rejected card under its reason
func (r *RunReport) RecordReject(reason RejectReason) {
	switch reason {
	case RejectMissingField:
		r.RejectedMissing++
	case RejectParseFailure:
		r.RejectedParse++
	case RejectZeroValue:
		r.RejectedZero++
	}
}

// RecordError appends a recovered per-page error description
func (r *RunReport) RecordError(page int, stage, message string) {
	r.Errors = append(r.Errors, PageError{Page: page, Stage: stage, Message: message})
}

// Finish stamps the run end time
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
}
