package models

// OutcomeKind tags the result of a tally submission. Callers must handle all
// three; a conflict is never a success.
type OutcomeKind string

const (
	// OutcomeCreated: first accepted report for the table.
	OutcomeCreated OutcomeKind = "created"
	// OutcomeDuplicate: identical to the accepted report; nothing was written.
	OutcomeDuplicate OutcomeKind = "duplicate"
	// OutcomeConflict: diverges from the accepted report; flagged for review.
	OutcomeConflict OutcomeKind = "conflict"
)

// Outcome is the tagged result of SubmitTally.
//
//   - Created:   Record is the newly stored report.
//   - Duplicate: Record is the stored report (unchanged).
//   - Conflict:  Record is the stored report, Incoming the rejected attempt,
//     ConflictID the audit entry (nil when the best-effort append failed).
type Outcome struct {
	Kind       OutcomeKind
	Record     *TallyReport
	Incoming   *TallyReport
	ConflictID *string
}

// IsSuccess reports whether the submitting device should treat the outcome as
// delivered. Duplicates are successes so retries from flaky networks never
// look like failures.
func (o *Outcome) IsSuccess() bool {
	return o.Kind == OutcomeCreated || o.Kind == OutcomeDuplicate
}
