package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

func TestMySQLReplayRepository_Remember(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO replay_nonces (request_id, request_timestamp, expires_at) VALUES (?, ?, ?)`)
	expiresAt := time.Now().Add(time.Minute)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).
			WithArgs("req-1", int64(1700000000000), expiresAt.UTC()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewMySQLReplayRepository(db)
		require.NoError(t, repo.Remember(ctx, "req-1", 1700000000000, expiresAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).
			WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry 'req-1'"})

		repo := NewMySQLReplayRepository(db)
		err = repo.Remember(ctx, "req-1", 1, expiresAt)
		assert.ErrorIs(t, err, envelopeDomain.ErrReplayDetected)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WillReturnError(errors.New("connection reset"))

		repo := NewMySQLReplayRepository(db)
		err = repo.Remember(ctx, "req-1", 1, expiresAt)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, envelopeDomain.ErrReplayDetected)
	})
}

func TestMySQLReplayRepository_Purge(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`DELETE FROM replay_nonces WHERE expires_at < ?`)
	before := time.Now()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(query).WithArgs(before.UTC()).WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewMySQLReplayRepository(db)
	removed, err := repo.Purge(ctx, before)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
