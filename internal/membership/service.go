// AngelaMos | 2026
// service.go

package membership

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/metrics"
	"github.com/carterperez-dev/foodgram/internal/recipe"
	"github.com/carterperez-dev/foodgram/internal/user"
)

type RecipeLookup interface {
	GetByID(ctx context.Context, id string) (*recipe.Recipe, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type SubscriptionResponse struct {
	ID           string                       `json:"id"`
	Email        string                       `json:"email"`
	Username     string                       `json:"username"`
	FirstName    string                       `json:"first_name"`
	LastName     string                       `json:"last_name"`
	IsSubscribed bool                         `json:"is_subscribed"`
	Recipes      []recipe.ShortRecipeResponse `json:"recipes"`
	RecipesCount int                          `json:"recipes_count"`
}

type Service struct {
	repo    Repository
	recipes RecipeLookup
	users   UserLookup
	metrics metrics.Recorder
}

func NewService(repo Repository, recipes RecipeLookup, users UserLookup, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{repo: repo, recipes: recipes, users: users, metrics: rec}
}

// Add links userID to targetID under kind. The target must exist, a user
// may not follow themselves, and adding an existing link is an error.
func (s *Service) Add(ctx context.Context, kind Kind, userID, targetID string) error {
	if err := s.precheck(ctx, kind, userID, targetID, true); err != nil {
		return fmt.Errorf("add %s: %w", kind, err)
	}

	exists, err := s.repo.Exists(ctx, kind, userID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("add %s: %w", kind, core.ErrAlreadyExists)
	}

	if err := s.repo.Insert(ctx, kind, userID, targetID); err != nil {
		return err
	}

	s.metrics.RecordMembershipChange(string(kind), "add")
	slog.DebugContext(ctx, "membership added", "kind", kind, "user_id", userID, "target_id", targetID)

	return nil
}

func (s *Service) Remove(ctx context.Context, kind Kind, userID, targetID string) error {
	if err := s.precheck(ctx, kind, userID, targetID, false); err != nil {
		return fmt.Errorf("remove %s: %w", kind, err)
	}

	if err := s.repo.Delete(ctx, kind, userID, targetID); err != nil {
		return err
	}

	s.metrics.RecordMembershipChange(string(kind), "remove")
	slog.DebugContext(ctx, "membership removed", "kind", kind, "user_id", userID, "target_id", targetID)

	return nil
}

func (s *Service) precheck(ctx context.Context, kind Kind, userID, targetID string, adding bool) error {
	if userID == "" {
		return core.ErrUnauthorized
	}

	switch kind {
	case KindSubscription:
		if adding && userID == targetID {
			return core.ErrSelfSubscription
		}
		if _, err := s.users.GetByID(ctx, targetID); err != nil {
			return err
		}
	case KindFavorite, KindCart:
		if _, err := s.recipes.GetByID(ctx, targetID); err != nil {
			return err
		}
	default:
		_, _, err := kind.relation()
		return err
	}

	return nil
}

// AddRecipe marks a recipe as favorite or in-cart and returns its summary.
func (s *Service) AddRecipe(
	ctx context.Context,
	kind Kind,
	userID, recipeID string,
) (*recipe.ShortRecipeResponse, error) {
	if err := s.Add(ctx, kind, userID, recipeID); err != nil {
		return nil, err
	}

	rec, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	short := recipe.ToShortResponse(rec)
	return &short, nil
}

func (s *Service) Subscribe(
	ctx context.Context,
	userID, authorID string,
	recipesLimit *int,
) (*SubscriptionResponse, error) {
	if err := s.Add(ctx, KindSubscription, userID, authorID); err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	views, err := s.buildViews(ctx, []recipe.Author{{
		ID:        author.ID,
		Email:     author.Email,
		Username:  author.Username,
		FirstName: author.FirstName,
		LastName:  author.LastName,
	}}, recipesLimit)
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// ListSubscriptions returns the authors userID follows with each author's
// newest recipes, capped at recipesLimit when it is set (zero included).
func (s *Service) ListSubscriptions(
	ctx context.Context,
	userID string,
	recipesLimit *int,
	page, limit int,
) ([]SubscriptionResponse, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("list subscriptions: %w", core.ErrUnauthorized)
	}

	authors, total, err := s.repo.ListSubscriptions(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.buildViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}

	return views, total, nil
}

func (s *Service) buildViews(
	ctx context.Context,
	authors []recipe.Author,
	recipesLimit *int,
) ([]SubscriptionResponse, error) {
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	perAuthor := -1
	if recipesLimit != nil {
		perAuthor = *recipesLimit
	}

	recent, err := s.repo.RecentRecipes(ctx, ids, perAuthor)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.RecipeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string][]recipe.ShortRecipeResponse, len(authors))
	for i := range recent {
		r := &recent[i]
		if perAuthor >= 0 && len(byAuthor[r.AuthorID]) >= perAuthor {
			continue
		}
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], recipe.ToShortResponse(r))
	}

	views := make([]SubscriptionResponse, 0, len(authors))
	for _, a := range authors {
		recipes := byAuthor[a.ID]
		if recipes == nil {
			recipes = []recipe.ShortRecipeResponse{}
		}
		views = append(views, SubscriptionResponse{
			ID:           a.ID,
			Email:        a.Email,
			Username:     a.Username,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			IsSubscribed: true,
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		})
	}

	return views, nil
}
