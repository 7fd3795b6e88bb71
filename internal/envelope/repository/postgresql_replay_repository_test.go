package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

func TestPostgreSQLReplayRepository_Remember(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO replay_nonces (request_id, request_timestamp, expires_at) VALUES ($1, $2, $3)`)
	expiresAt := time.Now().Add(time.Minute)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).
			WithArgs("req-1", int64(1700000000000), expiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLReplayRepository(db)
		require.NoError(t, repo.Remember(ctx, "req-1", 1700000000000, expiresAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).
			WillReturnError(&pq.Error{Code: pqUniqueViolation, Message: "duplicate key value violates unique constraint"})

		repo := NewPostgreSQLReplayRepository(db)
		err = repo.Remember(ctx, "req-1", 1, expiresAt)
		assert.ErrorIs(t, err, envelopeDomain.ErrReplayDetected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WillReturnError(errors.New("connection reset"))

		repo := NewPostgreSQLReplayRepository(db)
		err = repo.Remember(ctx, "req-1", 1, expiresAt)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, envelopeDomain.ErrReplayDetected)
		assert.Contains(t, err.Error(), "failed to remember replay nonce")
	})
}

func TestPostgreSQLReplayRepository_Purge(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`DELETE FROM replay_nonces WHERE expires_at < $1`)
	before := time.Now()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WithArgs(before).WillReturnResult(sqlmock.NewResult(0, 4))

		repo := NewPostgreSQLReplayRepository(db)
		removed, err := repo.Purge(ctx, before)
		require.NoError(t, err)
		assert.Equal(t, int64(4), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WillReturnError(errors.New("boom"))

		repo := NewPostgreSQLReplayRepository(db)
		_, err = repo.Purge(ctx, before)
		assert.Error(t, err)
	})
}
