package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
	"tallysync/pkg/platform/sentinel"
)

type InMemoryTallyStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryTallyStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTallyStoreSuite))
}

func (s *InMemoryTallyStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC)
}

func (s *InMemoryTallyStoreSuite) report(tenant id.TenantID, station id.StationID, table, candidate, total int) *models.TallyReport {
	return &models.TallyReport{
		TenantID:        tenant,
		StationID:       station,
		TableNumber:     table,
		CandidateVotes:  candidate,
		TotalTableVotes: total,
		SubmitterID:     "witness-1",
		ReceivedAt:      s.now,
	}
}

func (s *InMemoryTallyStoreSuite) TestInsertIfAbsent() {
	s.Run("first insert wins and is readable", func() {
		s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.report("t1", "st-1", 1, 145, 177)))

		got, err := s.store.Get(s.ctx, "t1", "st-1", 1)
		s.Require().NoError(err)
		s.Equal(145, got.CandidateVotes)
	})

	s.Run("second insert returns the stored value", func() {
		err := s.store.InsertIfAbsent(s.ctx, s.report("t1", "st-1", 1, 140, 177))
		var exists *AlreadyExistsError
		s.Require().ErrorAs(err, &exists)
		s.ErrorIs(err, sentinel.ErrAlreadyExists)
		s.Equal(145, exists.Current.CandidateVotes)

		got, err := s.store.Get(s.ctx, "t1", "st-1", 1)
		s.Require().NoError(err)
		s.Equal(145, got.CandidateVotes, "stored report must not change")
	})

	s.Run("same key under another tenant is independent", func() {
		s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.report("t2", "st-1", 1, 3, 10)))
		_, err := s.store.Get(s.ctx, "t3", "st-1", 1)
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *InMemoryTallyStoreSuite) TestGetReturnsCopy() {
	s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.report("t1", "st-1", 1, 145, 177)))
	got, err := s.store.Get(s.ctx, "t1", "st-1", 1)
	s.Require().NoError(err)
	got.CandidateVotes = 0

	again, err := s.store.Get(s.ctx, "t1", "st-1", 1)
	s.Require().NoError(err)
	s.Equal(145, again.CandidateVotes)
}

func (s *InMemoryTallyStoreSuite) TestConcurrentInsertExactlyOneWins() {
	const goroutines = 50
	var wg sync.WaitGroup
	var created, exists atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.InsertIfAbsent(s.ctx, s.report("t1", "st-1", 2, i, 100))
			var ae *AlreadyExistsError
			switch {
			case err == nil:
				created.Add(1)
			case errors.As(err, &ae):
				exists.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), exists.Load())
}

func (s *InMemoryTallyStoreSuite) TestConflictLifecycle() {
	stored := s.report("t1", "st-1", 1, 145, 177)
	s.Require().NoError(s.store.InsertIfAbsent(s.ctx, stored))

	first := models.NewConflictRecord(*stored, *s.report("t1", "st-1", 1, 140, 177), s.now.Add(time.Minute))
	second := models.NewConflictRecord(*stored, *s.report("t1", "st-1", 1, 150, 177), s.now.Add(2*time.Minute))
	other := models.NewConflictRecord(*s.report("t2", "st-1", 1, 1, 2), *s.report("t2", "st-1", 1, 2, 2), s.now)
	for _, c := range []*models.ConflictRecord{first, second, other} {
		s.Require().NoError(s.store.AppendConflict(s.ctx, c))
	}

	s.Run("list is tenant scoped and newest first", func() {
		got, err := s.store.ListConflicts(s.ctx, "t1", models.ConflictFilter{OpenOnly: true})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(second.ID, got[0].ID)
		s.Equal(first.ID, got[1].ID)
	})

	s.Run("open conflicts make the table pending", func() {
		stats, err := s.store.StationStats(s.ctx, "t1", "")
		s.Require().NoError(err)
		s.Equal(models.StationTally{TablesPending: 1}, stats["st-1"])
	})

	s.Run("resolve stamps every open conflict of the table once", func() {
		n, err := s.store.ResolveConflicts(s.ctx, "t1", "st-1", 1, models.Resolution{
			ReviewerID: "reviewer-1", Note: "acta checked", ResolvedAt: s.now.Add(time.Hour),
		})
		s.Require().NoError(err)
		s.Equal(2, n)

		n, err = s.store.ResolveConflicts(s.ctx, "t1", "st-1", 1, models.Resolution{ReviewerID: "reviewer-2", ResolvedAt: s.now})
		s.Require().NoError(err)
		s.Zero(n)

		open, err := s.store.ListConflicts(s.ctx, "t1", models.ConflictFilter{OpenOnly: true})
		s.Require().NoError(err)
		s.Empty(open)

		all, err := s.store.ListConflicts(s.ctx, "t1", models.ConflictFilter{StationID: "st-1"})
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal(id.SubjectID("reviewer-1"), all[0].ResolvedBy)
		s.Equal("acta checked", all[0].ResolutionNote)
	})

	s.Run("resolved table counts as reported with the stored values", func() {
		stats, err := s.store.StationStats(s.ctx, "t1", "st-1")
		s.Require().NoError(err)
		s.Equal(models.StationTally{TablesReported: 1, CandidateVotes: 145, TotalTableVotes: 177}, stats["st-1"])
	})

	s.Run("other tenant's conflict is untouched", func() {
		got, err := s.store.ListConflicts(s.ctx, "t2", models.ConflictFilter{OpenOnly: true})
		s.Require().NoError(err)
		s.Len(got, 1)
	})
}

func (s *InMemoryTallyStoreSuite) TestStationStats() {
	for table := 1; table <= 5; table++ {
		s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.report("t1", "st-1", table, 10, 30)))
	}
	s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.report("t1", "st-2", 1, 7, 9)))
	s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.report("t2", "st-1", 1, 99, 99)))

	all, err := s.store.StationStats(s.ctx, "t1", "")
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(models.StationTally{TablesReported: 5, CandidateVotes: 50, TotalTableVotes: 150}, all["st-1"])
	s.Equal(models.StationTally{TablesReported: 1, CandidateVotes: 7, TotalTableVotes: 9}, all["st-2"])

	one, err := s.store.StationStats(s.ctx, "t1", "st-2")
	s.Require().NoError(err)
	s.Len(one, 1)
}
