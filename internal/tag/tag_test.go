// AngelaMos | 2026
// tag_test.go

package tag

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lunchID = "5d8e2c1a-7b3f-4e6d-8c9a-1f2e3d4c5b6a"

func TestHandler_GetUnknownTagIs404(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM tags WHERE id = \$1`).
		WithArgs(lunchID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "slug"}))

	r := chi.NewRouter()
	NewHandler(NewRepository(sqlx.NewDb(db, "pgx"))).RegisterRoutes(r)

	for _, path := range []string{"/tags/" + lunchID, "/tags/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDs_EmptyInputSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tags, err := NewRepository(sqlx.NewDb(db, "pgx")).GetByIDs(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}
