package models

import (
	"fmt"
	"net/http"
	"time"

	id "tallysync/pkg/domain"
)

// Class groups routes that share a per-caller limit.
type Class string

const (
	// ClassWrite covers tally and voter submissions.
	ClassWrite Class = "write"
	// ClassRead covers lookups and dashboard summaries.
	ClassRead Class = "read"
)

// ClassFor maps an HTTP method to its class.
func ClassFor(method string) Class {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limit allows Requests per sliding Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check. RetryAfter is only set when the
// request was refused.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Key scopes a counter to one caller of one tenant. Devices syncing for the
// same witness share the budget.
func Key(class Class, tenantID id.TenantID, subjectID id.SubjectID) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", class, tenantID, subjectID)
}
