// AngelaMos | 2026
// service_test.go

package membership

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/middleware"
	"github.com/carterperez-dev/foodgram/internal/recipe"
	"github.com/carterperez-dev/foodgram/internal/user"
)

type link struct {
	kind   Kind
	user   string
	target string
}

type fakeRepo struct {
	links   map[link]bool
	recipes []recipe.Recipe
	users   map[string]user.User
}

func (f *fakeRepo) Exists(_ context.Context, kind Kind, userID, targetID string) (bool, error) {
	return f.links[link{kind, userID, targetID}], nil
}

func (f *fakeRepo) Insert(_ context.Context, kind Kind, userID, targetID string) error {
	l := link{kind, userID, targetID}
	if f.links[l] {
		return core.ErrAlreadyExists
	}
	f.links[l] = true
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, kind Kind, userID, targetID string) error {
	l := link{kind, userID, targetID}
	if !f.links[l] {
		return core.ErrNotFound
	}
	delete(f.links, l)
	return nil
}

func (f *fakeRepo) ListSubscriptions(_ context.Context, userID string, limit, offset int) ([]recipe.Author, int, error) {
	var authors []recipe.Author
	for l := range f.links {
		if l.kind == KindSubscription && l.user == userID {
			u := f.users[l.target]
			authors = append(authors, recipe.Author{ID: u.ID, Username: u.Username, Email: u.Email})
		}
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].Username < authors[j].Username })

	total := len(authors)
	if offset >= total {
		return []recipe.Author{}, total, nil
	}
	end := min(offset+limit, total)
	return authors[offset:end], total, nil
}

func (f *fakeRepo) RecentRecipes(_ context.Context, authorIDs []string, _ int) ([]recipe.Recipe, error) {
	want := map[string]bool{}
	for _, id := range authorIDs {
		want[id] = true
	}
	var out []recipe.Recipe
	for _, r := range f.recipes {
		if want[r.AuthorID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out, nil
}

func (f *fakeRepo) RecipeCounts(_ context.Context, authorIDs []string) (map[string]int, error) {
	counts := map[string]int{}
	for _, r := range f.recipes {
		counts[r.AuthorID]++
	}
	return counts, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*recipe.Recipe, error) {
	for i := range f.recipes {
		if f.recipes[i].ID == id {
			return &f.recipes[i], nil
		}
	}
	return nil, core.ErrNotFound
}

type fakeUsers map[string]user.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func newTestService() (*Service, *fakeRepo) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users := map[string]user.User{
		"alice": {ID: "alice", Username: "alice", Email: "alice@example.com"},
		"bob":   {ID: "bob", Username: "bob", Email: "bob@example.com"},
	}
	repo := &fakeRepo{
		links: map[link]bool{},
		users: users,
		recipes: []recipe.Recipe{
			{ID: "r1", AuthorID: "bob", Name: "Soup", CookingTime: 30, PubDate: base},
			{ID: "r2", AuthorID: "bob", Name: "Stew", CookingTime: 90, PubDate: base.Add(time.Hour)},
			{ID: "r3", AuthorID: "bob", Name: "Salad", CookingTime: 5, PubDate: base.Add(2 * time.Hour)},
		},
	}

	return NewService(repo, repo, fakeUsers(users), nil), repo
}

func TestAdd_SecondAddIsAlreadyExists(t *testing.T) {
	for _, kind := range []Kind{KindFavorite, KindCart} {
		t.Run(string(kind), func(t *testing.T) {
			svc, _ := newTestService()
			ctx := context.Background()

			resp, err := svc.AddRecipe(ctx, kind, "alice", "r1")
			require.NoError(t, err)
			assert.Equal(t, "Soup", resp.Name)

			_, err = svc.AddRecipe(ctx, kind, "alice", "r1")
			assert.ErrorIs(t, err, core.ErrAlreadyExists)
		})
	}
}

func TestRemove_SecondRemoveIsNotFound(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, KindFavorite, "alice", "r2"))
	require.NoError(t, svc.Remove(ctx, KindFavorite, "alice", "r2"))
	assert.Empty(t, repo.links)

	assert.ErrorIs(t, svc.Remove(ctx, KindFavorite, "alice", "r2"), core.ErrNotFound)
}

func TestAdd_MissingTarget(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, KindCart, "alice", "ghost"), core.ErrNotFound)
	assert.ErrorIs(t, svc.Add(ctx, KindSubscription, "alice", "ghost"), core.ErrNotFound)
	assert.Empty(t, repo.links)
}

func TestSubscribe_SelfIsRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Subscribe(context.Background(), "alice", "alice", nil)
	require.ErrorIs(t, err, core.ErrSelfSubscription)
	assert.Empty(t, repo.links)
}

func TestAdd_RequiresUser(t *testing.T) {
	svc, _ := newTestService()
	assert.ErrorIs(t, svc.Add(context.Background(), KindFavorite, "", "r1"), core.ErrUnauthorized)
}

func TestSubscribe_ReturnsAuthorView(t *testing.T) {
	svc, _ := newTestService()
	limit := 2

	view, err := svc.Subscribe(context.Background(), "alice", "bob", &limit)
	require.NoError(t, err)

	assert.True(t, view.IsSubscribed)
	assert.Equal(t, 3, view.RecipesCount)
	require.Len(t, view.Recipes, 2)
	assert.Equal(t, "r3", view.Recipes[0].ID, "newest first")
	assert.Equal(t, "r2", view.Recipes[1].ID)
}

func TestListSubscriptions_RecipesLimit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, KindSubscription, "alice", "bob"))

	all, total, err := svc.ListSubscriptions(ctx, "alice", nil, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Recipes, 3)

	zero := 0
	none, _, err := svc.ListSubscriptions(ctx, "alice", &zero, 1, 6)
	require.NoError(t, err)
	assert.Empty(t, none[0].Recipes)
	assert.Equal(t, 3, none[0].RecipesCount)
}

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(_ context.Context, token string) (*middleware.AccessTokenClaims, error) {
	if token == "" {
		return nil, core.ErrTokenInvalid
	}
	return &middleware.AccessTokenClaims{UserID: token, Role: "user"}, nil
}

func TestHandler_FavoriteTwice(t *testing.T) {
	svc, _ := newTestService()

	r := chi.NewRouter()
	NewHandler(svc, 6, 100).RegisterRoutes(r, middleware.Authenticator(stubVerifier{}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/recipes/r1/favorite", nil)
		req.Header.Set("Authorization", "Bearer alice")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := do()
	require.Equal(t, http.StatusCreated, first.Code)

	second := do()
	require.Equal(t, http.StatusBadRequest, second.Code)

	var body core.Response
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "ALREADY_EXISTS", body.Error.Code)
}

func TestHandler_SubscribeWithoutTokenIs401(t *testing.T) {
	svc, _ := newTestService()

	r := chi.NewRouter()
	NewHandler(svc, 6, 100).RegisterRoutes(r, middleware.Authenticator(stubVerifier{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users/bob/subscribe", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
