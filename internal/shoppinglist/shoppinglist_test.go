// AngelaMos | 2026
// shoppinglist_test.go

package shoppinglist

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/middleware"
)

func TestAggregate_SumsSameIngredientAcrossRecipes(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "Flour", MeasurementUnit: "g", Amount: 200},
		{Name: "Flour", MeasurementUnit: "g", Amount: 300},
	})

	require.Len(t, items, 1)
	assert.Equal(t, "500", items[0].TotalAmount.String())
}

func TestAggregate_OrdersByNameThenUnit(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "Sugar", MeasurementUnit: "g", Amount: 10},
		{Name: "Milk", MeasurementUnit: "ml", Amount: 250},
		{Name: "Milk", MeasurementUnit: "cup", Amount: 1},
		{Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
	})

	got := make([]string, 0, len(items))
	for _, it := range items {
		got = append(got, it.Name+"/"+it.MeasurementUnit)
	}
	assert.Equal(t, []string{"Egg/pcs", "Milk/cup", "Milk/ml", "Sugar/g"}, got)
}

func TestAggregate_DoesNotOverflow(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "Salt", MeasurementUnit: "g", Amount: math.MaxInt64},
		{Name: "Salt", MeasurementUnit: "g", Amount: math.MaxInt64},
	})

	require.Len(t, items, 1)
	assert.Equal(t, "18446744073709551614", items[0].TotalAmount.String())
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Equal(t, "Shopping list:\n", RenderText(nil))
}

func TestRenderText(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "Flour", MeasurementUnit: "g", Amount: 200},
		{Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
	})

	assert.Equal(t, "Shopping list:\nEgg (pcs) - 2\nFlour (g) - 200\n", RenderText(items))
}

func newSQLMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewService(NewRepository(sqlx.NewDb(db, "pgx")), nil), mock
}

func TestService_AggregateShoppingList(t *testing.T) {
	svc, mock := newSQLMockService(t)

	mock.ExpectQuery(`FROM shopping_carts sc`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"name", "measurement_unit", "amount"}).
			AddRow("Flour", "g", 200).
			AddRow("Egg", "pcs", 2))

	items, err := svc.AggregateShoppingList(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Egg", items[0].Name)
	assert.Equal(t, "2", items[0].TotalAmount.String())
	assert.Equal(t, "Flour", items[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RequiresUser(t *testing.T) {
	svc, _ := newSQLMockService(t)

	_, err := svc.AggregateShoppingList(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(_ context.Context, token string) (*middleware.AccessTokenClaims, error) {
	return &middleware.AccessTokenClaims{UserID: token, Role: "user"}, nil
}

func TestHandler_Download(t *testing.T) {
	svc, mock := newSQLMockService(t)

	mock.ExpectQuery(`FROM shopping_carts sc`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"name", "measurement_unit", "amount"}).
			AddRow("Flour", "g", 200).
			AddRow("Flour", "g", 300))

	r := chi.NewRouter()
	NewHandler(svc, "cart.txt").RegisterRoutes(r, middleware.Authenticator(stubVerifier{}))

	req := httptest.NewRequest(http.MethodGet, "/recipes/download_shopping_cart", nil)
	req.Header.Set("Authorization", "Bearer alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=cart.txt", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Shopping list:\nFlour (g) - 500\n", w.Body.String())
}

func TestHandler_DownloadRequiresToken(t *testing.T) {
	svc, _ := newSQLMockService(t)

	r := chi.NewRouter()
	NewHandler(svc, "").RegisterRoutes(r, middleware.Authenticator(stubVerifier{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes/download_shopping_cart", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
