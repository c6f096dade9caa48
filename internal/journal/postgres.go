package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS event_journal (
	id         UUID PRIMARY KEY,
	seq        BIGINT NOT NULL,
	entity_id  BIGINT NOT NULL,
	event_type TEXT NOT NULL,
	component  TEXT NOT NULL DEFAULT '',
	body       JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists journal entries in Postgres via a pgx connection
// pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to the given DSN, verifies the connection, and
// ensures the journal table exists.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, journalSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure journal table: %w", err)
	}
	logger.Info("journal database connected",
		zap.Int32("total_conns", pool.Stat().TotalConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO event_journal (id, seq, entity_id, event_type, component, body, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Seq, int64(e.EntityID), string(e.EventType), string(e.Component), e.Body, e.At,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, seq, entity_id, event_type, component, body, recorded_at
		 FROM (
			SELECT * FROM event_journal ORDER BY seq DESC LIMIT $1
		 ) latest ORDER BY seq ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var entityID int64
		var eventType, component string
		if err := rows.Scan(&e.ID, &e.Seq, &entityID, &eventType, &component, &e.Body, &e.At); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.EntityID = ecs.EntityID(entityID)
		e.EventType = event.Type(eventType)
		e.Component = ecs.ComponentType(component)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
