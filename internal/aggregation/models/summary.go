package models

import (
	"fmt"
	"math"
	"strings"

	stationModels "tallysync/internal/station/models"
	tallyModels "tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// StationSummary is the live rollup for one polling station. Sums cover only
// accepted tables without an open conflict.
type StationSummary struct {
	StationID      id.StationID `json:"station_id"`
	Name           string       `json:"name"`
	Department     string       `json:"department"`
	Municipality   string       `json:"municipality"`
	TotalTables    int          `json:"total_tables"`
	TablesReported int          `json:"tables_reported"`
	TablesPending  int          `json:"tables_pending"`
	CandidateVotes int          `json:"candidate_votes"`
	OpponentVotes  int          `json:"opponent_votes"`
	Percentage     float64      `json:"percentage"`
	// Approximate flags rollups whose reference data cannot be trusted:
	// zero total tables, or more tables seen than the station declares.
	Approximate bool `json:"approximate"`
}

// Totals are grand totals over every station matching a query, not just the page.
type Totals struct {
	Stations       int     `json:"stations"`
	TotalTables    int     `json:"total_tables"`
	TablesReported int     `json:"tables_reported"`
	TablesPending  int     `json:"tables_pending"`
	CandidateVotes int     `json:"candidate_votes"`
	OpponentVotes  int     `json:"opponent_votes"`
	Percentage     float64 `json:"percentage"`
}

type CampaignSummary struct {
	Items      []StationSummary `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Totals     Totals           `json:"totals"`
}

// SummaryQuery is the list contract for station summaries.
type SummaryQuery struct {
	Page         int
	Limit        int
	Department   string
	Municipality string
	NameContains string
}

// Normalize applies paging defaults and clamps the limit.
func (q *SummaryQuery) Normalize(defaultLimit, maxLimit int) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Department = strings.TrimSpace(q.Department)
	q.Municipality = strings.TrimSpace(q.Municipality)
	q.NameContains = strings.TrimSpace(q.NameContains)
}

func (q SummaryQuery) Filter() stationModels.Filter {
	return stationModels.Filter{
		Department:   q.Department,
		Municipality: q.Municipality,
		NameContains: q.NameContains,
	}
}

// CacheKey identifies the query within a tenant. Filters are case-folded
// since matching is case-insensitive.
func (q SummaryQuery) CacheKey() string {
	return fmt.Sprintf("p=%d:l=%d:d=%s:m=%s:n=%s", q.Page, q.Limit,
		strings.ToLower(q.Department), strings.ToLower(q.Municipality), strings.ToLower(q.NameContains))
}

// Percentage is 100*reported/total rounded to two decimals, 0 when total is 0.
func Percentage(reported, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(reported)*10000/float64(total)) / 100
}

// Summarize combines reference data with the store's tally snapshot.
func Summarize(st *stationModels.Station, t tallyModels.StationTally) StationSummary {
	return StationSummary{
		StationID:      st.ID,
		Name:           st.Name,
		Department:     st.Department,
		Municipality:   st.Municipality,
		TotalTables:    st.TotalTables,
		TablesReported: t.TablesReported,
		TablesPending:  t.TablesPending,
		CandidateVotes: t.CandidateVotes,
		OpponentVotes:  t.TotalTableVotes - t.CandidateVotes,
		Percentage:     Percentage(t.TablesReported, st.TotalTables),
		Approximate:    st.TotalTables == 0 || t.TablesReported+t.TablesPending > st.TotalTables,
	}
}

// Add accumulates one station into the totals.
func (t *Totals) Add(s StationSummary) {
	t.Stations++
	t.TotalTables += s.TotalTables
	t.TablesReported += s.TablesReported
	t.TablesPending += s.TablesPending
	t.CandidateVotes += s.CandidateVotes
	t.OpponentVotes += s.OpponentVotes
	t.Percentage = Percentage(t.TablesReported, t.TotalTables)
}
