package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	apperrors "github.com/allisson/msc/internal/errors"
)

// mysqlDuplicateEntry is the MySQL error number for duplicate keys.
const mysqlDuplicateEntry = 1062

// MySQLReplayRepository persists replay nonces in MySQL.
//
// Database schema requirements:
//   - request_id: VARCHAR(255) PRIMARY KEY
//   - request_timestamp: BIGINT (epoch milliseconds)
//   - expires_at: DATETIME(6)
type MySQLReplayRepository struct {
	db *sql.DB
}

// Remember inserts the nonce, mapping a duplicate entry to ErrReplayDetected.
func (m *MySQLReplayRepository) Remember(
	ctx context.Context,
	requestID string,
	timestamp int64,
	expiresAt time.Time,
) error {
	query := `INSERT INTO replay_nonces (request_id, request_timestamp, expires_at) VALUES (?, ?, ?)`

	_, err := m.db.ExecContext(ctx, query, requestID, timestamp, expiresAt.UTC())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return envelopeDomain.ErrReplayDetected
		}
		return apperrors.Wrap(err, "failed to remember replay nonce")
	}
	return nil
}

// Purge deletes nonces that expired before the given time.
func (m *MySQLReplayRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM replay_nonces WHERE expires_at < ?`

	result, err := m.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge replay nonces")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// NewMySQLReplayRepository creates a MySQLReplayRepository.
func NewMySQLReplayRepository(db *sql.DB) *MySQLReplayRepository {
	return &MySQLReplayRepository{db: db}
}
