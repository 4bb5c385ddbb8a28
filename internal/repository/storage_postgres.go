package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type postgresStorage struct {
	*PostgresRepository
}

func NewPostgresStorage(db *sql.DB, logger zerolog.Logger) StorageRepository {
	return &postgresStorage{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *postgresStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	query := `SELECT value FROM session_storage WHERE session_id = $1 AND key = $2`

	var value string
	err := r.db.QueryRowContext(ctx, query, sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (r *postgresStorage) Set(ctx context.Context, sessionID, key, value string) error {
	query := `
		INSERT INTO session_storage (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *postgresStorage) Remove(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM session_storage WHERE session_id = $1 AND key = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, sessionID, pq.Array(keys)); err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

func (r *postgresStorage) Clear(ctx context.Context, sessionID string) error {
	query := `DELETE FROM session_storage WHERE session_id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *postgresStorage) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM session_storage
		WHERE session_id IN (
			SELECT session_id FROM session_storage
			GROUP BY session_id
			HAVING MAX(updated_at) < $1
		)
	`

	res, err := r.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info().Int64("rows", n).Msg("Expired sessions purged")
	}
	return n, nil
}
