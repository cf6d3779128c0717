// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metricLoop
				}
			}
			return m.GetCounter().GetValue()
		}
	}

	return 0
}

func TestCollector_RecordsDomainEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRecipeMutation("create")
	c.RecordRecipeMutation("create")
	c.RecordRecipeMutation("delete")
	c.RecordMembershipChange("favorite", "add")
	c.RecordShoppingListDownload(3)

	assert.InDelta(t, 2, counterValue(t, reg, "foodgram_recipe_mutations_total", map[string]string{"action": "create"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "foodgram_recipe_mutations_total", map[string]string{"action": "delete"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "foodgram_membership_changes_total",
		map[string]string{"kind": "favorite", "action": "add"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "foodgram_shopping_list_downloads_total", nil), 0)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest(http.MethodGet, "/v1/recipes", http.StatusOK, 15*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "foodgram_http_requests_total")
	assert.Contains(t, string(body), `route="/v1/recipes"`)
}
