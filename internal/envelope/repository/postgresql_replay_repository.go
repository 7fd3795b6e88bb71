package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	apperrors "github.com/allisson/msc/internal/errors"
)

// pqUniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const pqUniqueViolation = "23505"

// PostgreSQLReplayRepository persists replay nonces in PostgreSQL.
//
// Database schema requirements:
//   - request_id: TEXT PRIMARY KEY
//   - request_timestamp: BIGINT (epoch milliseconds)
//   - expires_at: TIMESTAMP WITH TIME ZONE
type PostgreSQLReplayRepository struct {
	db *sql.DB
}

// Remember inserts the nonce, mapping a unique violation to ErrReplayDetected.
//
// A row whose expires_at has passed but was not yet purged still blocks the request id.
// This is harmless because such a tuple would already fail the freshness check.
func (p *PostgreSQLReplayRepository) Remember(
	ctx context.Context,
	requestID string,
	timestamp int64,
	expiresAt time.Time,
) error {
	query := `INSERT INTO replay_nonces (request_id, request_timestamp, expires_at) VALUES ($1, $2, $3)`

	_, err := p.db.ExecContext(ctx, query, requestID, timestamp, expiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return envelopeDomain.ErrReplayDetected
		}
		return apperrors.Wrap(err, "failed to remember replay nonce")
	}
	return nil
}

// Purge deletes nonces that expired before the given time.
func (p *PostgreSQLReplayRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM replay_nonces WHERE expires_at < $1`

	result, err := p.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge replay nonces")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// NewPostgreSQLReplayRepository creates a PostgreSQLReplayRepository.
func NewPostgreSQLReplayRepository(db *sql.DB) *PostgreSQLReplayRepository {
	return &PostgreSQLReplayRepository{db: db}
}
