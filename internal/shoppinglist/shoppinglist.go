// AngelaMos | 2026
// shoppinglist.go

package shoppinglist

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/metrics"
	"github.com/carterperez-dev/foodgram/internal/middleware"
)

type Repository interface {
	CartLines(ctx context.Context, userID string) ([]Line, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CartLines(ctx context.Context, userID string) ([]Line, error) {
	query := `
		SELECT i.name, i.measurement_unit, ri.amount
		FROM shopping_carts sc
		JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE sc.user_id = $1`

	lines := []Line{}
	if err := r.db.SelectContext(ctx, &lines, query, userID); err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}

	return lines, nil
}

type Service struct {
	repo    Repository
	metrics metrics.Recorder
}

func NewService(repo Repository, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{repo: repo, metrics: rec}
}

// AggregateShoppingList sums every ingredient across the user's cart. An
// empty cart yields an empty list.
func (s *Service) AggregateShoppingList(ctx context.Context, userID string) (items []Item, err error) {
	ctx, span := core.StartSpan(ctx, "shoppinglist.aggregate")
	defer func() { core.EndSpan(span, err) }()

	if userID == "" {
		return nil, fmt.Errorf("aggregate shopping list: %w", core.ErrUnauthorized)
	}

	lines, err := s.repo.CartLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	items = Aggregate(lines)
	core.AddSpanEvent(ctx, "shoppinglist.aggregated",
		attribute.Int("lines.in", len(lines)),
		attribute.Int("lines.out", len(items)),
	)

	return items, nil
}

type Handler struct {
	service  *Service
	filename string
}

func NewHandler(service *Service, filename string) *Handler {
	if filename == "" {
		filename = "shopping_cart.txt"
	}
	return &Handler{service: service, filename: filename}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.With(authenticator).Get("/recipes/download_shopping_cart", h.Download)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.AggregateShoppingList(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	body := RenderText(items)
	h.service.metrics.RecordShoppingListDownload(len(items))
	slog.DebugContext(r.Context(), "shopping list exported", "items", len(items))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": h.filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = w.Write([]byte(body))
}
