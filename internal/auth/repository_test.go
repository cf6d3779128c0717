// AngelaMos | 2026
// repository_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/foodgram/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestRepository_MarkRotatedLosesRace(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE refresh_tokens\s+SET is_used = TRUE.*WHERE id = \$1 AND NOT is_used`).
		WithArgs("t1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRotated(context.Background(), "t1", "t2")
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RevokeMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at = NOW\(\)\s+WHERE id = \$1 AND revoked_at IS NULL`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Revoke(context.Background(), "gone"), core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RevokeFamilyToleratesEmptyFamily(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`WHERE family_id = \$1 AND revoked_at IS NULL`).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.RevokeFamily(context.Background(), "f1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByHashMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM refresh_tokens\s+WHERE token_hash = \$1`).
		WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByHash(context.Background(), "h")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_DeleteExpired(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestRepository_FindByIDMalformed(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.FindByID(context.Background(), "session-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
