package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "urbfisc/internal/errors"
	"urbfisc/internal/occurrence"
)

// Memory keeps occurrences in process memory.
//
// Thread-safety:
//   - All operations are protected by the mutex
//   - Allocation of the protocol number and the insert happen under one lock
//
// Data is lost on restart; Postgres is the persistent store.
type Memory struct {
	mu      sync.Mutex
	records []occurrence.Record // insertion order, oldest first
	byExtID map[string]int      // externalID → index in records
	counter int64               // last allocated protocol sequence
	clock   Clock
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMemoryClock sets the clock used for creation times and protocol years.
func WithMemoryClock(clock Clock) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		byExtID: make(map[string]int),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Init is a no-op; the maps are ready after NewMemory.
func (m *Memory) Init(context.Context) error {
	return nil
}

// Insert validates sub, allocates the next protocol number and stores it.
func (m *Memory) Insert(ctx context.Context, sub occurrence.Submission) (string, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewStoreError("insert occurrence", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	m.counter++
	rec := sub.Record()
	rec.ID = int64(len(m.records) + 1)
	rec.ExternalID = occurrence.FormatProtocol(m.counter, now.Year())
	rec.CreatedAt = occurrence.At(now)

	m.records = append(m.records, rec)
	m.byExtID[rec.ExternalID] = len(m.records) - 1
	return rec.ExternalID, nil
}

// ListAll returns copies of every record, newest first.
func (m *Memory) ListAll(ctx context.Context) ([]occurrence.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError("list occurrences", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]occurrence.Record, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Get returns the record with the given protocol number.
func (m *Memory) Get(ctx context.Context, externalID string) (occurrence.Record, error) {
	if err := ctx.Err(); err != nil {
		return occurrence.Record{}, apperrors.NewStoreError("get occurrence", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byExtID[externalID]
	if !ok {
		return occurrence.Record{}, fmt.Errorf("get %s: %w", externalID, apperrors.ErrNotFound)
	}
	return m.records[idx], nil
}

// UpdateStatus changes the status of a stored record.
func (m *Memory) UpdateStatus(ctx context.Context, externalID, status string) error {
	if !occurrence.ValidStatus(status) {
		return apperrors.NewValidationError(map[string]string{"status": "desconhecido"})
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("update status", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byExtID[externalID]
	if !ok {
		return fmt.Errorf("update %s: %w", externalID, apperrors.ErrNotFound)
	}
	m.records[idx].Status = status
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() {}

// Seed appends pre-built records as if they had been inserted, advancing the
// protocol counter past them. Used to load fixtures and imports.
func (m *Memory) Seed(records ...occurrence.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		rec.ID = int64(len(m.records) + 1)
		if rec.Status == "" {
			rec.Status = occurrence.StatusPending
		}
		m.counter++
		if rec.ExternalID == "" {
			rec.ExternalID = occurrence.FormatProtocol(m.counter, m.clock().Year())
		}
		m.records = append(m.records, rec)
		m.byExtID[rec.ExternalID] = len(m.records) - 1
	}
}
