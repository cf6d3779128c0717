// AngelaMos | 2026
// dto.go

package recipe

import (
	"strings"
	"time"

	"github.com/carterperez-dev/foodgram/internal/tag"
)

type IngredientInput struct {
	ID     string `json:"id"     validate:"required"`
	Amount int    `json:"amount"`
}

type CreateRecipeRequest struct {
	Name        string            `json:"name"         validate:"max=200"`
	Text        string            `json:"text"`
	CookingTime int               `json:"cooking_time"`
	Image       string            `json:"image"`
	Tags        []string          `json:"tags"`
	Ingredients []IngredientInput `json:"ingredients"  validate:"dive"`
}

// applyTo copies the scalar fields present in the request onto rec.
func (u UpdateRecipeRequest) applyTo(rec *Recipe) {
	if u.Name != nil {
		rec.Name = strings.TrimSpace(*u.Name)
	}
	if u.Text != nil {
		rec.Text = *u.Text
	}
	if u.Image != nil {
		rec.Image = *u.Image
	}
	if u.CookingTime != nil {
		rec.CookingTime = *u.CookingTime
	}
}

// UpdateRecipeRequest overwrites scalar fields only when present. Tags and
// ingredients are always required and replace the stored sets.
type UpdateRecipeRequest struct {
	Name        *string           `json:"name"         validate:"omitempty,max=200"`
	Text        *string           `json:"text"`
	CookingTime *int              `json:"cooking_time"`
	Image       *string           `json:"image"`
	Tags        []string          `json:"tags"`
	Ingredients []IngredientInput `json:"ingredients"  validate:"dive"`
}

type AuthorResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type IngredientResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               string               `json:"id"`
	Tags             []tag.Tag            `json:"tags"`
	Author           AuthorResponse       `json:"author"`
	Ingredients      []IngredientResponse `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
	PubDate          time.Time            `json:"pub_date"`
}

type ShortRecipeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func ToShortResponse(r *Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

type Filter struct {
	AuthorID         string
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Page             int
	Limit            int
}

func (f *Filter) Normalize(defaultLimit, maxLimit int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

func (f *Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}
