// AngelaMos | 2026
// ingredient_test.go

package ingredient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
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

func TestList_PrefixIsEscapedAndCaseInsensitive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`WHERE LOWER\(name\) LIKE LOWER\(\$1\) \|\| '%'`).
		WithArgs(`Fl\%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}).
			AddRow("i1", "Flour", "g"))

	items, err := repo.List(context.Background(), "Fl%")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Flour", items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

const (
	eggID   = "0b6f3a52-8a1e-4c1b-9d47-2f0e6c5a9b01"
	flourID = "0b6f3a52-8a1e-4c1b-9d47-2f0e6c5a9b02"
)

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM ingredients WHERE id = \$1`).
		WithArgs(eggID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}))

	_, err := repo.GetByID(context.Background(), eggID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetByID_MalformedIDIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, core.ToAppError(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDs_ExpandsInClause(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`WHERE id IN \(\$1, \$2\)`).
		WithArgs(eggID, flourID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}).
			AddRow(eggID, "Egg", "pcs").
			AddRow(flourID, "Flour", "g"))

	items, err := repo.GetByIDs(context.Background(), []string{eggID, "abc", flourID})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDs_OnlyMalformedSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	items, err := repo.GetByIDs(context.Background(), []string{"abc", "i-egg"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_ListPassesNameFilter(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`LIKE`).
		WithArgs("egg").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}).
			AddRow("i1", "Egg", "pcs"))

	r := chi.NewRouter()
	NewHandler(repo).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/ingredients?name=egg", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool         `json:"success"`
		Data    []Ingredient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "pcs", body.Data[0].MeasurementUnit)
}
