// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCount int

func (c fixedCount) Count(context.Context) (int, error) { return int(c), nil }

type failingCount struct{}

func (failingCount) Count(context.Context) (int, error) { return 0, errors.New("db down") }

type recordingPruner struct {
	got time.Duration
}

func (p *recordingPruner) PruneSessions(_ context.Context, olderThan time.Duration) (int64, error) {
	p.got = olderThan
	return 4, nil
}

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r, passthrough, passthrough)
	return r
}

func TestGetCatalogue(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Users:       fixedCount(3),
		Recipes:     fixedCount(12),
		Tags:        fixedCount(3),
		Ingredients: fixedCount(2000),
	})

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats/catalogue", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]int{
		"users": 3, "recipes": 12, "tags": 3, "ingredients": 2000,
	}, body.Data)
}

func TestGetStats_CounterFailure(t *testing.T) {
	h := NewHandler(HandlerConfig{Recipes: failingCount{}})

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPruneSessions(t *testing.T) {
	pruner := &recordingPruner{}
	h := NewHandler(HandlerConfig{Sessions: pruner})

	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sessions/prune?older_than=2h", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2*time.Hour, pruner.got)

	w = httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sessions/prune?older_than=soon", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
