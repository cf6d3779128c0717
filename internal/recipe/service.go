// AngelaMos | 2026
// service.go

package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/ingredient"
	"github.com/carterperez-dev/foodgram/internal/metrics"
	"github.com/carterperez-dev/foodgram/internal/tag"
)

type TagLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]tag.Tag, error)
}

type IngredientLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]ingredient.Ingredient, error)
}

type SubscriptionLookup interface {
	SubscribedAmong(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error)
}

type ServiceConfig struct {
	Repo            Repository
	Tags            TagLookup
	Ingredients     IngredientLookup
	Subscriptions   SubscriptionLookup
	Metrics         metrics.Recorder
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	repo            Repository
	tags            TagLookup
	ingredients     IngredientLookup
	subscriptions   SubscriptionLookup
	metrics         metrics.Recorder
	defaultPageSize int
	maxPageSize     int
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = 6
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}

	return &Service{
		repo:            cfg.Repo,
		tags:            cfg.Tags,
		ingredients:     cfg.Ingredients,
		subscriptions:   cfg.Subscriptions,
		metrics:         cfg.Metrics,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

func (s *Service) Create(
	ctx context.Context,
	authorID string,
	req CreateRecipeRequest,
) (resp *RecipeResponse, err error) {
	ctx, span := core.StartSpan(ctx, "recipe.create")
	defer func() { core.EndSpan(span, err) }()

	if authorID == "" {
		return nil, fmt.Errorf("create recipe: %w", core.ErrUnauthorized)
	}

	if err := ValidateCreate(req); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	tagIDs, items, err := s.resolveComposition(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	rec := &Recipe{
		ID:          uuid.New().String(),
		AuthorID:    authorID,
		Name:        strings.TrimSpace(req.Name),
		Image:       req.Image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	err = s.repo.WithinTx(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, rec); err != nil {
			return err
		}
		return writeComposition(ctx, tx, rec.ID, tagIDs, items)
	})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.metrics.RecordRecipeMutation("create")
	core.AddSpanEvent(ctx, "recipe.composed",
		attribute.String("recipe.id", rec.ID),
		attribute.Int("recipe.ingredients", len(items)),
	)
	slog.DebugContext(ctx, "recipe created",
		"recipe_id", rec.ID,
		"author_id", authorID,
		"ingredients", len(items),
		"tags", len(tagIDs),
	)

	return s.Get(ctx, authorID, rec.ID)
}

func (s *Service) Update(
	ctx context.Context,
	requesterID, recipeID string,
	req UpdateRecipeRequest,
) (resp *RecipeResponse, err error) {
	ctx, span := core.StartSpan(ctx, "recipe.update",
		attribute.String("recipe.id", recipeID))
	defer func() { core.EndSpan(span, err) }()

	if _, err := s.authorize(ctx, requesterID, recipeID); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if err := ValidateUpdate(req); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	tagIDs, items, err := s.resolveComposition(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	// Omitted fields are merged onto the locked row, not the earlier read,
	// so a concurrent update to another field survives.
	err = s.repo.WithinTx(ctx, func(tx Repository) error {
		rec, err := tx.GetForUpdate(ctx, recipeID)
		if err != nil {
			return err
		}
		if rec.AuthorID != requesterID {
			return fmt.Errorf("recipe %s belongs to another author: %w", recipeID, core.ErrForbidden)
		}

		req.applyTo(rec)
		if err := tx.UpdateScalars(ctx, rec); err != nil {
			return err
		}
		return writeComposition(ctx, tx, rec.ID, tagIDs, items)
	})
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.metrics.RecordRecipeMutation("update")
	slog.DebugContext(ctx, "recipe updated", "recipe_id", recipeID)

	return s.Get(ctx, requesterID, recipeID)
}

func (s *Service) Delete(ctx context.Context, requesterID, recipeID string) (err error) {
	ctx, span := core.StartSpan(ctx, "recipe.delete",
		attribute.String("recipe.id", recipeID))
	defer func() { core.EndSpan(span, err) }()

	if _, err := s.authorize(ctx, requesterID, recipeID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	if err := s.repo.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	s.metrics.RecordRecipeMutation("delete")
	slog.DebugContext(ctx, "recipe deleted", "recipe_id", recipeID)

	return nil
}

// Get returns the composed recipe as seen by viewerID, which may be empty.
func (s *Service) Get(ctx context.Context, viewerID, recipeID string) (*RecipeResponse, error) {
	rec, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	composed, err := s.compose(ctx, viewerID, []Recipe{*rec})
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	return &composed[0], nil
}

func (s *Service) List(
	ctx context.Context,
	viewerID string,
	f Filter,
) ([]RecipeResponse, int, error) {
	f.Normalize(s.defaultPageSize, s.maxPageSize)

	recipes, total, err := s.repo.List(ctx, viewerID, f)
	if err != nil {
		return nil, 0, err
	}

	composed, err := s.compose(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	return composed, total, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) authorize(ctx context.Context, requesterID, recipeID string) (*Recipe, error) {
	if requesterID == "" {
		return nil, core.ErrUnauthorized
	}

	rec, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if rec.AuthorID != requesterID {
		return nil, fmt.Errorf("recipe %s belongs to another author: %w", recipeID, core.ErrForbidden)
	}

	return rec, nil
}

// resolveComposition checks every tag and ingredient id against the store
// and returns the de-duplicated tag ids plus the ingredient lines to write.
func (s *Service) resolveComposition(
	ctx context.Context,
	tagInput []string,
	ingredientInput []IngredientInput,
) ([]string, []IngredientAmount, error) {
	tagIDs := uniqueIDs(tagInput)

	found, err := s.tags.GetByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(found) != len(tagIDs) {
		known := make(map[string]struct{}, len(found))
		for _, t := range found {
			known[t.ID] = struct{}{}
		}
		for _, id := range tagIDs {
			if _, ok := known[id]; !ok {
				return nil, nil, core.NewValidationError("tags", fmt.Sprintf("tag %s does not exist", id))
			}
		}
	}

	ids := make([]string, 0, len(ingredientInput))
	for _, in := range ingredientInput {
		ids = append(ids, in.ID)
	}

	existing, err := s.ingredients.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]ingredient.Ingredient, len(existing))
	for _, i := range existing {
		byID[i.ID] = i
	}

	items := make([]IngredientAmount, 0, len(ingredientInput))
	for _, in := range ingredientInput {
		ing, ok := byID[in.ID]
		if !ok {
			return nil, nil, fmt.Errorf("ingredient %s: %w", in.ID, core.ErrIngredientNotFound)
		}
		items = append(items, IngredientAmount{
			IngredientID:    ing.ID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          in.Amount,
		})
	}

	return tagIDs, items, nil
}

func writeComposition(
	ctx context.Context,
	tx Repository,
	recipeID string,
	tagIDs []string,
	items []IngredientAmount,
) error {
	if err := tx.ReplaceTags(ctx, recipeID, tagIDs); err != nil {
		return err
	}
	return tx.ReplaceIngredients(ctx, recipeID, items)
}

func (s *Service) compose(ctx context.Context, viewerID string, recipes []Recipe) ([]RecipeResponse, error) {
	out := make([]RecipeResponse, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}
	authorIDs = uniqueIDs(authorIDs)

	tags, err := s.repo.TagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.repo.IngredientsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	authors, err := s.repo.AuthorsByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	favorited, err := s.repo.FavoritedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	inCart, err := s.repo.InCartAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	subscribed := map[string]bool{}
	if s.subscriptions != nil {
		subscribed, err = s.subscriptions.SubscribedAmong(ctx, viewerID, authorIDs)
		if err != nil {
			return nil, err
		}
	}

	for _, r := range recipes {
		a := authors[r.AuthorID]

		recipeTags := tags[r.ID]
		if recipeTags == nil {
			recipeTags = []tag.Tag{}
		}

		lines := ingredients[r.ID]
		ingResp := make([]IngredientResponse, 0, len(lines))
		for _, l := range lines {
			ingResp = append(ingResp, IngredientResponse{
				ID:              l.IngredientID,
				Name:            l.Name,
				MeasurementUnit: l.MeasurementUnit,
				Amount:          l.Amount,
			})
		}

		out = append(out, RecipeResponse{
			ID:   r.ID,
			Tags: recipeTags,
			Author: AuthorResponse{
				ID:           r.AuthorID,
				Email:        a.Email,
				Username:     a.Username,
				FirstName:    a.FirstName,
				LastName:     a.LastName,
				IsSubscribed: subscribed[r.AuthorID],
			},
			Ingredients:      ingResp,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		})
	}

	return out, nil
}
