package passwordresets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qInsert     = `(?s)^INSERT\s+INTO\s+password_reset_requests\s*\(account_id,\s*otp_hash,\s*expires_at,\s*is_used\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*false\)\s*RETURNING\s+id,\s*created_at\s*$`
	qLatest     = `(?s)^SELECT\s+id,\s*account_id,\s*otp_hash,\s*expires_at,\s*is_used,\s*created_at\s+FROM\s+password_reset_requests\s+WHERE\s+account_id\s*=\s*\$1\s+AND\s+is_used\s*=\s*false\s+ORDER\s+BY\s+expires_at\s+DESC,\s*created_at\s+DESC\s+LIMIT\s+1$`
	qLatestLock = `(?s)^SELECT\s+id,.*FROM\s+password_reset_requests\s+WHERE.*ORDER\s+BY\s+expires_at\s+DESC,\s*created_at\s+DESC\s+LIMIT\s+1\s+FOR\s+UPDATE$`
	qMarkUsed   = `(?s)^UPDATE\s+password_reset_requests\s+SET\s+is_used\s*=\s*true\s+WHERE\s+id\s*=\s*\$1\s+AND\s+is_used\s*=\s*false\s*$`
)

var requestColumns = []string{"id", "account_id", "otp_hash", "expires_at", "is_used", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	exp := time.Date(2026, 5, 1, 10, 5, 0, 0, time.UTC)
	created := exp.Add(-5 * time.Minute)

	mock.ExpectQuery(qInsert).
		WithArgs("a-1", "otp-hash", exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("r-1", created))

	got, err := repo.Create(context.Background(), &models.PasswordResetRequest{AccountID: "a-1", OTPHash: "otp-hash", ExpiresAt: exp, IsUsed: true})
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)
	assert.False(t, got.IsUsed)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(qInsert).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.PasswordResetRequest{AccountID: "a-1"})
	require.ErrorContains(t, err, "db error: db down")
}

func TestFindLatestUnused(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	exp := time.Now().Add(time.Minute)
	mock.ExpectQuery(qLatest).WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow("r-2", "a-1", "h", exp, false, time.Now()))

	got, err := repo.FindLatestUnused(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "r-2", got.ID)
	assert.Equal(t, "h", got.OTPHash)
	assert.False(t, got.IsUsed)
}

func TestFindLatestUnused_None(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(qLatest).WithArgs("a-1").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindLatestUnused(context.Background(), "a-1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindLatestUnusedForUpdate(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(qLatestLock).WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow("r-3", "a-1", "h", time.Now(), false, time.Now()))
	mock.ExpectQuery(qLatestLock).WithArgs("a-1").WillReturnError(errors.New("lock timeout"))

	got, err := repo.FindLatestUnusedForUpdate(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "r-3", got.ID)

	_, err = repo.FindLatestUnusedForUpdate(context.Background(), "a-1")
	require.ErrorContains(t, err, "db error: lock timeout")
}

func TestMarkUsed(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(qMarkUsed).WithArgs("r-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qMarkUsed).WithArgs("r-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qMarkUsed).WithArgs("r-9").WillReturnError(errors.New("db down"))

	require.NoError(t, repo.MarkUsed(context.Background(), "r-1"))
	require.ErrorIs(t, repo.MarkUsed(context.Background(), "r-1"), common.ErrorNotFound, "second use must not succeed")
	require.ErrorContains(t, repo.MarkUsed(context.Background(), "r-9"), "db error")
}
