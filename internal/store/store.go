package store

// Store defines the interface for the run report archive.
// Implementations must be safe for concurrent use.
//
// Reports are records of finished runs. They are listed and inspected, but
// never loaded back into an engine.
//
// Error handling conventions:
//   - Return ErrNotFound if the report doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveReport atomically writes the report for runID, replacing any
	// existing report.
	SaveReport(runID string, report *Report) error

	// LoadReport retrieves the report for runID.
	// Returns ErrNotFound if no report exists.
	LoadReport(runID string) (*Report, error)

	// ListReports returns metadata for all stored reports, newest first.
	ListReports() ([]ReportInfo, error)

	// DeleteReport removes the report and its trace.
	// Returns ErrNotFound if no report exists.
	DeleteReport(runID string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
