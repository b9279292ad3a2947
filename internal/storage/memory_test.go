package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	apperrors "urbfisc/internal/errors"
	"urbfisc/internal/occurrence"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
	now   time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	s.store = NewMemory(WithMemoryClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
	s.Require().NoError(s.store.Init(s.ctx))
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func submission(street, neighborhood string) occurrence.Submission {
	return occurrence.Submission{
		Origin:       "Telefone",
		Street:       street,
		Neighborhood: neighborhood,
		Zone:         "Norte",
		Latitude:     occurrence.Float(0),
		Longitude:    occurrence.Float(0),
		Description:  "teste",
	}
}

func (s *MemoryStoreSuite) TestInsertAllocatesSequentialProtocols() {
	first, err := s.store.Insert(s.ctx, submission("Rua A", "Centro"))
	s.Require().NoError(err)
	s.Equal("001/2026", first)

	second, err := s.store.Insert(s.ctx, submission("Rua B", "Salgado"))
	s.Require().NoError(err)
	s.Equal("002/2026", second)

	rec, err := s.store.Get(s.ctx, first)
	s.Require().NoError(err)
	s.Equal("Rua A", rec.Street)
	s.Equal(occurrence.StatusPending, rec.Status)
	s.Equal(s.now, rec.CreatedAt.Time)
	// 0.0 from the form is stored as "not provided"
	s.Nil(rec.Latitude)
	s.False(rec.HasLocation())
}

func (s *MemoryStoreSuite) TestInsertRejectsMissingRequiredFields() {
	_, err := s.store.Insert(s.ctx, submission("", "Centro"))
	s.Require().Error(err)
	s.True(apperrors.IsValidation(err))

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *MemoryStoreSuite) TestListAllNewestFirst() {
	for _, street := range []string{"Rua A", "Rua B", "Rua C"} {
		_, err := s.store.Insert(s.ctx, submission(street, "Centro"))
		s.Require().NoError(err)
	}

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("Rua C", all[0].Street)
	s.Equal("003/2026", all[0].ExternalID)
	s.Equal("Rua A", all[2].Street)
}

func (s *MemoryStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(s.ctx, "999/2026")
	s.True(apperrors.IsNotFound(err))
}

func (s *MemoryStoreSuite) TestUpdateStatus() {
	id, err := s.store.Insert(s.ctx, submission("Rua A", "Centro"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.UpdateStatus(s.ctx, id, occurrence.StatusDone))
	rec, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(occurrence.StatusDone, rec.Status)

	s.True(apperrors.IsValidation(s.store.UpdateStatus(s.ctx, id, "Arquivada")))
	s.True(apperrors.IsNotFound(s.store.UpdateStatus(s.ctx, "404/2026", occurrence.StatusDone)))
}

func (s *MemoryStoreSuite) TestSeedContinuesSequence() {
	s.store.Seed(
		occurrence.Record{ExternalID: "001/2025", Street: "Rua Velha", Neighborhood: "Centro"},
		occurrence.Record{ExternalID: "002/2025", Street: "Rua Velha", Neighborhood: "Centro"},
	)

	id, err := s.store.Insert(s.ctx, submission("Rua Nova", "Centro"))
	s.Require().NoError(err)
	// numbering continues across the year boundary, like the legacy counter
	s.Equal("003/2026", id)
}

func (s *MemoryStoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.store.Insert(ctx, submission("Rua A", "Centro"))
	s.True(apperrors.IsStoreError(err))
	_, err = s.store.ListAll(ctx)
	s.True(apperrors.IsStoreError(err))
}

func (s *MemoryStoreSuite) TestConcurrentInsertsNeverCollide() {
	const writers = 50

	var wg sync.WaitGroup
	ids := make(chan string, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.store.Insert(s.ctx, submission("Rua A", "Centro"))
			s.NoError(err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		s.False(seen[id], "duplicate protocol %s", id)
		seen[id] = true
	}
	s.Len(seen, writers)
}
