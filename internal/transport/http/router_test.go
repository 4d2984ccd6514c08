package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aggHandler "tallysync/internal/aggregation/handler"
	aggModels "tallysync/internal/aggregation/models"
	aggService "tallysync/internal/aggregation/service"
	"tallysync/internal/platform/metrics"
	rlMiddleware "tallysync/internal/ratelimit/middleware"
	rlModels "tallysync/internal/ratelimit/models"
	"tallysync/internal/ratelimit/store/bucket"
	stationModels "tallysync/internal/station/models"
	stationStore "tallysync/internal/station/store"
	tallyHandler "tallysync/internal/tally/handler"
	tallyService "tallysync/internal/tally/service"
	tallyStore "tallysync/internal/tally/store"
	voterHandler "tallysync/internal/voter/handler"
	voterService "tallysync/internal/voter/service"
	voterStore "tallysync/internal/voter/store"
	"tallysync/pkg/platform/middleware/identity"
	"tallysync/pkg/testutil"
)

func newTestRouter(t *testing.T, opts ...func(*Deps)) (http.Handler, *tallyStore.InMemory, *voterStore.InMemory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stations := stationStore.NewInMemory()
	for _, st := range []*stationModels.Station{
		{TenantID: "t1", ID: "kennedy", Name: "Colegio Kennedy", Department: "Bogotá D.C.", Municipality: "Bogotá", TotalTables: 2},
		{TenantID: "t1", ID: "tunal", Name: "Parque El Tunal", Department: "Bogotá D.C.", Municipality: "Bogotá", TotalTables: 20},
		{TenantID: "t2", ID: "kennedy", Name: "Colegio Kennedy", Department: "Bogotá D.C.", Municipality: "Bogotá", TotalTables: 2},
	} {
		require.NoError(t, stations.Put(st))
	}
	tallies := tallyStore.NewInMemory()
	voters := voterStore.NewInMemory()

	reg := prometheus.NewRegistry()
	deps := Deps{
		Logger:   logger,
		Resolver: identity.HeaderResolver{},
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Handlers: []Registrar{
			tallyHandler.New(tallyService.New(tallies, stations, tallyService.WithLogger(logger)), logger),
			voterHandler.New(voterService.New(voters, stations, voterService.WithLogger(logger)), logger),
			aggHandler.New(aggService.New(stations, tallies, aggService.WithLogger(logger)), logger),
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewRouter(deps), tallies, voters
}

func submitTally(t *testing.T, router http.Handler, tenant, station string, table, candidate, total int) (int, *tallyHandler.SubmitResponse) {
	t.Helper()
	body := map[string]any{"station_id": station, "table_number": table, "candidate_votes": candidate, "total_table_votes": total}
	req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies", body), tenant, "witness-1")
	rr := testutil.DoRequest(router, req)
	return rr.Code, testutil.UnmarshalResponse[tallyHandler.SubmitResponse](t, rr)
}

func stationSummary(t *testing.T, router http.Handler, tenant, station string) *aggModels.StationSummary {
	t.Helper()
	req := testutil.WithGatewayHeaders(testutil.NewRequest(t, http.MethodGet, "/v1/summaries/stations/"+station), tenant, "dashboard")
	rr := testutil.DoRequest(router, req)
	require.Equal(t, http.StatusOK, rr.Code)
	return testutil.UnmarshalResponse[aggModels.StationSummary](t, rr)
}

func TestKennedyTallyFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	testutil.Given(t, "Colegio Kennedy with two tables", func(t *testing.T) {
		testutil.When(t, "table 1 is submitted as 145 of 177", func(t *testing.T) {
			code, resp := submitTally(t, router, "t1", "kennedy", 1, 145, 177)
			testutil.Then(t, "it is created", func(t *testing.T) {
				assert.Equal(t, http.StatusCreated, code)
				assert.Equal(t, "created", resp.Outcome)
			})
		})

		testutil.When(t, "the same report is resubmitted", func(t *testing.T) {
			code, resp := submitTally(t, router, "t1", "kennedy", 1, 145, 177)
			testutil.Then(t, "it is a duplicate and the table counts once", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, code)
				assert.Equal(t, "duplicate", resp.Outcome)
				assert.Equal(t, 1, stationSummary(t, router, "t1", "kennedy").TablesReported)
			})
		})

		testutil.When(t, "table 1 is resubmitted as 140", func(t *testing.T) {
			code, resp := submitTally(t, router, "t1", "kennedy", 1, 140, 177)
			testutil.Then(t, "it conflicts and the stored count is untouched", func(t *testing.T) {
				assert.Equal(t, http.StatusConflict, code)
				require.NotNil(t, resp.Stored)
				assert.Equal(t, 145, resp.Stored.CandidateVotes)
				assert.Equal(t, 140, resp.Incoming.CandidateVotes)
				assert.NotEmpty(t, resp.ConflictID)

				req := testutil.WithGatewayHeaders(testutil.NewRequest(t, http.MethodGet, "/v1/tallies/kennedy/1"), "t1", "dashboard")
				rr := testutil.DoRequest(router, req)
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "candidate_votes", float64(145))
			})
			testutil.Then(t, "the table is pending until reviewed", func(t *testing.T) {
				s := stationSummary(t, router, "t1", "kennedy")
				assert.Zero(t, s.TablesReported)
				assert.Equal(t, 1, s.TablesPending)
			})
		})

		testutil.When(t, "a witness tries to resolve", func(t *testing.T) {
			req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies/kennedy/1/resolve", map[string]string{"note": "ok"}), "t1", "witness-1", "witness")
			testutil.Then(t, "it is forbidden", func(t *testing.T) {
				testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusForbidden, "forbidden")
			})
		})

		testutil.When(t, "a reviewer confirms the stored count", func(t *testing.T) {
			req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies/kennedy/1/resolve", map[string]string{"note": "acta E-14 reads 145"}), "t1", "reviewer-1", "reviewer")
			rr := testutil.DoRequest(router, req)
			testutil.Then(t, "the table counts as reported again", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				s := stationSummary(t, router, "t1", "kennedy")
				assert.Equal(t, 1, s.TablesReported)
				assert.Zero(t, s.TablesPending)
				assert.Equal(t, 145, s.CandidateVotes)
				assert.Equal(t, 32, s.OpponentVotes)
				assert.Equal(t, float64(50), s.Percentage)
			})
		})
	})
}

func TestValidationAndIdentity(t *testing.T) {
	router, tallies, _ := newTestRouter(t)

	testutil.When(t, "no identity is forwarded", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies", map[string]any{"station_id": "kennedy"})
		testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
			testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.When(t, "the table number exceeds the station", func(t *testing.T) {
		body := map[string]any{"station_id": "kennedy", "table_number": 3, "candidate_votes": 1, "total_table_votes": 2}
		req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies", body), "t1", "witness-1")
		rr := testutil.DoRequest(router, req)
		testutil.Then(t, "it is rejected as out of range and nothing is stored", func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			resp := testutil.UnmarshalResponse[tallyHandler.ValidationResponse](t, rr)
			assert.Equal(t, "out_of_range", resp.Kind)
			_, err := tallies.Get(t.Context(), "t1", "kennedy", 3)
			assert.Error(t, err)
		})
	})

	testutil.When(t, "candidate votes exceed the table total", func(t *testing.T) {
		code, _ := submitTally(t, router, "t1", "kennedy", 2, 200, 177)
		testutil.Then(t, "it is a validation error", func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, code)
		})
	})
}

func TestTenantIsolation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	testutil.Given(t, "t1 reported Kennedy table 1", func(t *testing.T) {
		code, _ := submitTally(t, router, "t1", "kennedy", 1, 145, 177)
		require.Equal(t, http.StatusCreated, code)

		testutil.Then(t, "t2 can submit the same table independently", func(t *testing.T) {
			code, resp := submitTally(t, router, "t2", "kennedy", 1, 10, 20)
			assert.Equal(t, http.StatusCreated, code)
			assert.Equal(t, "created", resp.Outcome)
		})
		testutil.Then(t, "t2's rollup does not see t1's votes", func(t *testing.T) {
			assert.Equal(t, 10, stationSummary(t, router, "t2", "kennedy").CandidateVotes)
			assert.Equal(t, 145, stationSummary(t, router, "t1", "kennedy").CandidateVotes)
		})
		testutil.Then(t, "t2 cannot read a station it does not own", func(t *testing.T) {
			req := testutil.WithGatewayHeaders(testutil.NewRequest(t, http.MethodGet, "/v1/summaries/stations/tunal"), "t2", "dashboard")
			testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusNotFound, "not_found")
		})
	})
}

func TestCampaignProgress(t *testing.T) {
	router, _, _ := newTestRouter(t)

	testutil.Given(t, "five of El Tunal's twenty tables reported", func(t *testing.T) {
		for table := 1; table <= 5; table++ {
			code, _ := submitTally(t, router, "t1", "tunal", table, 50, 100)
			require.Equal(t, http.StatusCreated, code)
		}

		testutil.Then(t, "the station is 25 percent reported", func(t *testing.T) {
			s := stationSummary(t, router, "t1", "tunal")
			assert.Equal(t, 5, s.TablesReported)
			assert.Equal(t, float64(25), s.Percentage)
		})

		testutil.Then(t, "the campaign list pages by station name", func(t *testing.T) {
			req := testutil.WithGatewayHeaders(testutil.NewRequest(t, http.MethodGet, "/v1/summaries/stations?limit=1&page=2&municipality=bogot%C3%A1"), "t1", "dashboard")
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatusOK(t, rr)
			resp := testutil.UnmarshalResponse[aggModels.CampaignSummary](t, rr)
			assert.Equal(t, 2, resp.Total)
			assert.Equal(t, 2, resp.TotalPages)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, "Parque El Tunal", resp.Items[0].Name)
			assert.Equal(t, 250, resp.Totals.CandidateVotes)
		})
	})
}

func TestVoterResync(t *testing.T) {
	router, _, voters := newTestRouter(t)
	post := func(phone string) int {
		body := map[string]any{"national_id": "123", "first_name": "Ana", "last_name": "Rojas", "phone": phone, "station_id": "kennedy", "consent_accepted": true}
		req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/voters", body), "t1", "registrar-1")
		return testutil.DoRequest(router, req).Code
	}

	testutil.When(t, "voter 123 is synced twice with different phones", func(t *testing.T) {
		first := post("3001112233")
		second := post("3009998877")
		testutil.Then(t, "the second sync updates the single record", func(t *testing.T) {
			assert.Equal(t, http.StatusCreated, first)
			assert.Equal(t, http.StatusOK, second)

			req := testutil.WithGatewayHeaders(testutil.NewRequest(t, http.MethodGet, "/v1/voters/123"), "t1", "registrar-1")
			rr := testutil.DoRequest(router, req)
			testutil.AssertJSONContains(t, rr, "phone", "3009998877")

			n, err := voters.CountByTenant(t.Context(), "t1")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, _ = submitTally(t, router, "t1", "kennedy", 1, 1, 2)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	assert.True(t, strings.Contains(rr.Body.String(), "tallysync_http_requests_total"))
}

func TestRateLimitedWitness(t *testing.T) {
	limiter := rlMiddleware.New(bucket.New(),
		rlMiddleware.WithLimit(rlModels.ClassWrite, rlModels.Limit{Requests: 2, Window: time.Minute}),
		rlMiddleware.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	router, _, _ := newTestRouter(t, func(d *Deps) { d.RateLimit = limiter.Handler })

	testutil.Given(t, "a witness replaying an offline queue", func(t *testing.T) {
		code, _ := submitTally(t, router, "t1", "kennedy", 1, 145, 177)
		require.Equal(t, http.StatusCreated, code)
		code, _ = submitTally(t, router, "t1", "kennedy", 2, 30, 100)
		require.Equal(t, http.StatusCreated, code)

		testutil.When(t, "the budget is spent", func(t *testing.T) {
			body := map[string]any{"station_id": "tunal", "table_number": 1, "candidate_votes": 1, "total_table_votes": 2}
			req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies", body), "t1", "witness-1")
			rr := testutil.DoRequest(router, req)
			testutil.Then(t, "the next submission is refused with 429", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limited")
				assert.NotEmpty(t, rr.Header().Get("Retry-After"))
			})
		})

		testutil.When(t, "another witness of the same tenant submits", func(t *testing.T) {
			body := map[string]any{"station_id": "tunal", "table_number": 1, "candidate_votes": 1, "total_table_votes": 2}
			req := testutil.WithGatewayHeaders(testutil.NewJSONRequest(t, http.MethodPost, "/v1/tallies", body), "t1", "witness-2")
			testutil.Then(t, "its own budget applies", func(t *testing.T) {
				assert.Equal(t, http.StatusCreated, testutil.DoRequest(router, req).Code)
			})
		})

		testutil.Then(t, "reads are not limited", func(t *testing.T) {
			assert.Equal(t, 2, stationSummary(t, router, "t1", "kennedy").TablesReported)
		})
	})
}
