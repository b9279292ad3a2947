package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "urbfisc/internal/errors"
	"urbfisc/internal/logging"
	"urbfisc/internal/occurrence"
)

const selectColumns = `
	id, external_id, created_at, origem, tipo, num_encaminhamento, rua, numero,
	bairro, zona, ponto_referencia, latitude, longitude, link_maps, descricao,
	observacoes, quem_recebeu, status, acao_noturna`

// Postgres persists occurrences in the denuncias table.
type Postgres struct {
	pool   *pgxpool.Pool
	clock  Clock
	logger *zap.Logger
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithPostgresClock sets the clock used to pick the protocol year.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(p *Postgres) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithPostgresLogger sets the logger used for migrations.
func WithPostgresLogger(logger *zap.Logger) PostgresOption {
	return func(p *Postgres) {
		p.logger = logging.OrNop(logger)
	}
}

// OpenPostgres connects a pool to databaseURL and verifies connectivity.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns int, opts ...PostgresOption) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperrors.NewStoreError("parse database url", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperrors.NewStoreError("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStoreError("ping", err)
	}
	return NewPostgres(pool, opts...), nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool, opts ...PostgresOption) *Postgres {
	p := &Postgres{
		pool:   pool,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Init applies pending migrations.
func (p *Postgres) Init(ctx context.Context) error {
	if err := migrate(ctx, p.pool, p.logger); err != nil {
		return apperrors.NewStoreError("migrate", err)
	}
	return nil
}

// Insert allocates the protocol number and stores the occurrence in one
// transaction. The counter row stays locked until commit, which serializes
// concurrent inserts.
func (p *Postgres) Insert(ctx context.Context, sub occurrence.Submission) (string, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return "", err
	}
	rec := sub.Record()
	year := p.clock().Year()

	var externalID string
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
			INSERT INTO protocol_counters (name, last_value) VALUES ($1, 1)
			ON CONFLICT (name) DO UPDATE SET last_value = protocol_counters.last_value + 1
			RETURNING last_value`, counterName).Scan(&seq)
		if err != nil {
			return fmt.Errorf("allocate protocol: %w", err)
		}
		externalID = occurrence.FormatProtocol(seq, year)

		_, err = tx.Exec(ctx, `
			INSERT INTO denuncias (
				external_id, origem, tipo, num_encaminhamento, rua, numero, bairro, zona,
				ponto_referencia, latitude, longitude, link_maps, descricao, observacoes,
				quem_recebeu, status, acao_noturna)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			externalID, rec.Origin, rec.Type, rec.ReferralNumber, rec.Street, rec.Number,
			rec.Neighborhood, rec.Zone, rec.ReferencePoint, rec.Latitude, rec.Longitude,
			rec.MapsLink, rec.Description, rec.Observations, rec.ReceivedBy, rec.Status,
			rec.NightAction)
		if err != nil {
			return fmt.Errorf("insert occurrence: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", apperrors.NewStoreError("insert occurrence", err)
	}
	return externalID, nil
}

// ListAll returns every occurrence, newest first.
func (p *Postgres) ListAll(ctx context.Context) ([]occurrence.Record, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+selectColumns+` FROM denuncias ORDER BY id DESC`)
	if err != nil {
		return nil, apperrors.NewStoreError("list occurrences", err)
	}
	defer rows.Close()

	var records []occurrence.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("scan occurrence", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("list occurrences", err)
	}
	return records, nil
}

// Get returns the newest occurrence with the given protocol number.
func (p *Postgres) Get(ctx context.Context, externalID string) (occurrence.Record, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM denuncias WHERE external_id = $1 ORDER BY id DESC LIMIT 1`,
		externalID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return occurrence.Record{}, fmt.Errorf("get %s: %w", externalID, apperrors.ErrNotFound)
		}
		return occurrence.Record{}, apperrors.NewStoreError("get occurrence", err)
	}
	return rec, nil
}

// UpdateStatus changes the lifecycle tag of an occurrence.
func (p *Postgres) UpdateStatus(ctx context.Context, externalID, status string) error {
	if !occurrence.ValidStatus(status) {
		return apperrors.NewValidationError(map[string]string{"status": "desconhecido"})
	}
	tag, err := p.pool.Exec(ctx, `UPDATE denuncias SET status = $2 WHERE external_id = $1`, externalID, status)
	if err != nil {
		return apperrors.NewStoreError("update status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", externalID, apperrors.ErrNotFound)
	}
	return nil
}

// Ping checks the pool can reach the database.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return apperrors.NewStoreError("ping", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// scanRecord reads one row selected with selectColumns. Every column except
// id is nullable in legacy tables.
func scanRecord(row pgx.Row) (occurrence.Record, error) {
	var (
		rec       occurrence.Record
		extID     *string
		createdAt *time.Time
		texts     [13]*string
		night     *bool
	)
	err := row.Scan(
		&rec.ID, &extID, &createdAt,
		&texts[0], &texts[1], &texts[2], &texts[3], &texts[4], &texts[5], &texts[6], &texts[7],
		&rec.Latitude, &rec.Longitude,
		&texts[8], &texts[9], &texts[10], &texts[11], &texts[12],
		&night,
	)
	if err != nil {
		return occurrence.Record{}, err
	}

	rec.ExternalID = deref(extID)
	if createdAt != nil {
		rec.CreatedAt = occurrence.At(*createdAt)
	}
	rec.Origin = deref(texts[0])
	rec.Type = deref(texts[1])
	rec.ReferralNumber = deref(texts[2])
	rec.Street = deref(texts[3])
	rec.Number = deref(texts[4])
	rec.Neighborhood = deref(texts[5])
	rec.Zone = deref(texts[6])
	rec.ReferencePoint = deref(texts[7])
	rec.MapsLink = deref(texts[8])
	rec.Description = deref(texts[9])
	rec.Observations = deref(texts[10])
	rec.ReceivedBy = deref(texts[11])
	rec.Status = deref(texts[12])
	if rec.Status == "" {
		rec.Status = occurrence.StatusPending
	}
	rec.NightAction = night != nil && *night
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
