// Package conflict decides whether a resubmitted tally agrees with the one
// already accepted for its table.
package conflict

import (
	"fmt"
	"strings"

	"tallysync/internal/tally/models"
)

type Classification int

const (
	Identical Classification = iota
	Conflicting
)

func (c Classification) String() string {
	switch c {
	case Identical:
		return "identical"
	case Conflicting:
		return "conflicting"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Classify compares the canonical counts only. Evidence fields, submitter and
// receive time never make two reports differ, and there is no tolerance: a
// one-vote difference is a conflict.
func Classify(existing, incoming models.TallyReport) Classification {
	if existing.CandidateVotes == incoming.CandidateVotes &&
		existing.TotalTableVotes == incoming.TotalTableVotes {
		return Identical
	}
	return Conflicting
}

// Divergence is one canonical field that differs between two reports.
type Divergence struct {
	Field    string `json:"field"`
	Stored   int    `json:"stored"`
	Incoming int    `json:"incoming"`
}

// Diff lists the canonical fields that differ, in a fixed order.
func Diff(existing, incoming models.TallyReport) []Divergence {
	var out []Divergence
	if existing.CandidateVotes != incoming.CandidateVotes {
		out = append(out, Divergence{Field: "candidate_votes", Stored: existing.CandidateVotes, Incoming: incoming.CandidateVotes})
	}
	if existing.TotalTableVotes != incoming.TotalTableVotes {
		out = append(out, Divergence{Field: "total_table_votes", Stored: existing.TotalTableVotes, Incoming: incoming.TotalTableVotes})
	}
	return out
}

// Summary renders a diff for log lines, e.g. "candidate_votes 145->140".
func Summary(diffs []Divergence) string {
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		parts = append(parts, fmt.Sprintf("%s %d->%d", d.Field, d.Stored, d.Incoming))
	}
	return strings.Join(parts, ", ")
}
