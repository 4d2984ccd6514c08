package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"tallysync/pkg/platform/httputil"
)

func TestAssertionsDoNotDrainTheBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"outcome": "created", "tables": 2})
	})
	rr := DoRequest(handler, NewJSONRequest(t, http.MethodPost, "/v1/tallies", nil))

	AssertStatusOK(t, rr)
	AssertJSONContains(t, rr, "outcome", "created")
	AssertJSONContains(t, rr, "tables", float64(2))
	assert.Equal(t, "created", (*UnmarshalResponse[map[string]any](t, rr))["outcome"])
}

func TestWithGatewayHeaders(t *testing.T) {
	req := WithGatewayHeaders(NewRequest(t, http.MethodGet, "/v1/summary"), "t1", "reviewer-1", "reviewer", "viewer")
	assert.Equal(t, "t1", req.Header.Get("X-Tenant-ID"))
	assert.Equal(t, "reviewer-1", req.Header.Get("X-Subject-ID"))
	assert.Equal(t, "reviewer,viewer", req.Header.Get("X-Subject-Roles"))
}
