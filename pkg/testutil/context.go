package testutil

import (
	"net/http"

	id "tallysync/pkg/domain"
	"tallysync/pkg/requestcontext"
)

// WithIdentity adds tenant, subject and roles to the request context.
// This simulates what the identity middleware does for trusted requests.
// Invalid identifiers are silently ignored.
func WithIdentity(req *http.Request, tenantID, subjectID string, roles ...string) *http.Request {
	tenant, err := id.ParseTenantID(tenantID)
	if err != nil {
		return req
	}
	subject, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithIdentity(req.Context(), tenant, subject, roles)
	return req.WithContext(ctx)
}
