package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lewisedginton/dating_coach/internal/store/sqlc"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// PostgresStore keeps snapshots as JSONB rows.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
	logger  logger.Logger
}

// NewPostgresStore connects with a pgxpool connection string and applies migrations.
func NewPostgresStore(ctx context.Context, connString string, log logger.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := newMigrator(stdlib.OpenDBFromPool(pool), dialectPostgres, log).Up(); err != nil {
		pool.Close()
		return nil, err
	}

	return NewPostgresStoreFromPool(pool, log), nil
}

// NewPostgresStoreFromPool wraps an existing pool. Migrations are not run.
func NewPostgresStoreFromPool(pool *pgxpool.Pool, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		queries: sqlc.New(pool),
		logger:  log,
	}
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.queries.UpsertSnapshot(ctx, sqlc.UpsertSnapshotParams{
		ConversationID: snap.ConversationID,
		Snapshot:       data,
		CreatedAt:      timestamptz(snap.CreatedAt),
		UpdatedAt:      timestamptz(snap.UpdatedAt),
	})
	if err != nil {
		s.logger.Error("failed to save snapshot", logger.ErrorField(err), logger.ConversationIDField(snap.ConversationID))
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot row.
func (s *PostgresStore) Delete(ctx context.Context, conversationID string) error {
	n, err := s.queries.DeleteSnapshot(ctx, conversationID)
	if err != nil {
		s.logger.Error("failed to delete snapshot", logger.ErrorField(err), logger.ConversationIDField(conversationID))
		return fmt.Errorf("delete snapshot: %w", err)
	}
	s.logger.Debug("deleted snapshot", logger.ConversationIDField(conversationID), logger.Int64Field("rows", n))
	return nil
}

// LoadAll reads every snapshot row.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.queries.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		var snap Snapshot
		if err := json.Unmarshal(row.Snapshot, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot %s: %w", row.ConversationID, err)
		}
		snap.ConversationID = row.ConversationID
		out = append(out, snap)
	}
	return out, nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = time.Now()
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
