// Package storage provides persistent and in-memory storage for occurrences.
//
// Two implementations share the Store interface:
//  1. Postgres: the production store (pgx pool, embedded SQL migrations)
//  2. Memory: mutex-guarded maps, used for local runs without a database
//     and in tests
//
// Protocol numbers ("001/2026") are allocated atomically by both stores.
// Postgres increments a counter row inside the insert transaction, so two
// concurrent submissions can never receive the same number. The legacy
// read-COUNT(*)-then-insert scheme is gone.
package storage

import (
	"context"
	"time"

	"urbfisc/internal/occurrence"
)

// Store is the record store used by the presentation layer.
type Store interface {
	// Init creates or migrates the schema. Safe to call repeatedly.
	Init(ctx context.Context) error
	// Insert stores a new occurrence and returns its protocol number.
	Insert(ctx context.Context, sub occurrence.Submission) (string, error)
	// ListAll returns every occurrence, newest first.
	ListAll(ctx context.Context) ([]occurrence.Record, error)
	// Get returns the occurrence with the given protocol number.
	Get(ctx context.Context, externalID string) (occurrence.Record, error)
	// UpdateStatus changes the lifecycle tag of an occurrence.
	UpdateStatus(ctx context.Context, externalID, status string) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	Close()
}

// Clock returns the current time. Stores take it as an option so tests can
// pin the protocol year.
type Clock func() time.Time

// counterName keys the protocol counter row.
const counterName = "denuncias"
