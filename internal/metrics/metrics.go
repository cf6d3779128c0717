// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report into. Nop satisfies it
// for tests and for deployments with metrics disabled.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordRecipeMutation(action string)
	RecordMembershipChange(kind, action string)
	RecordShoppingListDownload(lines int)
}

type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	recipeMutations   *prometheus.CounterVec
	membershipChanges *prometheus.CounterVec
	shoppingLists     prometheus.Counter
	shoppingListLines prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		recipeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_recipe_mutations_total",
			Help: "Recipe create, update and delete operations",
		}, []string{"action"}),
		membershipChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_membership_changes_total",
			Help: "Favorite, shopping cart and subscription changes",
		}, []string{"kind", "action"}),
		shoppingLists: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Shopping list downloads",
		}),
		shoppingListLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Aggregated lines per downloaded shopping list",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.recipeMutations,
		c.membershipChanges,
		c.shoppingLists,
		c.shoppingListLines,
	)

	return c
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordRecipeMutation(action string) {
	c.recipeMutations.WithLabelValues(action).Inc()
}

func (c *Collector) RecordMembershipChange(kind, action string) {
	c.membershipChanges.WithLabelValues(kind, action).Inc()
}

func (c *Collector) RecordShoppingListDownload(lines int) {
	c.shoppingLists.Inc()
	c.shoppingListLines.Observe(float64(lines))
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordRecipeMutation(string)                          {}
func (Nop) RecordMembershipChange(string, string)                {}
func (Nop) RecordShoppingListDownload(int)                       {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
