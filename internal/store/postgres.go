package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brainstorm-platform/idea-engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed SessionStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pgx pool to databaseURL and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("database connected")
	return s, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Health checks the database connection.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ideation_sessions (
		id UUID PRIMARY KEY,
		stage VARCHAR(50) NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		warmup_questions TEXT[],
		associations TEXT[],
		ideas JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ideation_sessions_stage ON ideation_sessions(stage);
	CREATE INDEX IF NOT EXISTS idx_ideation_sessions_created ON ideation_sessions(created_at DESC);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	ideas, err := json.Marshal(session.Ideas)
	if err != nil {
		return fmt.Errorf("failed to encode ideas: %w", err)
	}

	query := `
		INSERT INTO ideation_sessions (id, stage, purpose, warmup_questions, associations, ideas, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		session.ID,
		string(session.Stage),
		session.Purpose,
		session.WarmupQuestions,
		session.Associations,
		ideas,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, stage, purpose, warmup_questions, associations, ideas, created_at
		FROM ideation_sessions
		WHERE id = $1
	`

	session := &models.Session{}
	var stage string
	var ideas []byte

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&stage,
		&session.Purpose,
		&session.WarmupQuestions,
		&session.Associations,
		&ideas,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	session.Stage = models.Stage(stage)
	if len(ideas) > 0 {
		if err := json.Unmarshal(ideas, &session.Ideas); err != nil {
			return nil, fmt.Errorf("failed to decode ideas: %w", err)
		}
	}
	return session, nil
}

func (s *PostgresStore) Update(ctx context.Context, session *models.Session) error {
	ideas, err := json.Marshal(session.Ideas)
	if err != nil {
		return fmt.Errorf("failed to encode ideas: %w", err)
	}

	query := `
		UPDATE ideation_sessions
		SET stage = $2, purpose = $3, warmup_questions = $4, associations = $5, ideas = $6
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		session.ID,
		string(session.Stage),
		session.Purpose,
		session.WarmupQuestions,
		session.Associations,
		ideas,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	// Deleting an absent row is a no-op, matching delete idempotency.
	if _, err := s.pool.Exec(ctx, `DELETE FROM ideation_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
