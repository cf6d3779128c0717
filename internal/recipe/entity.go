// AngelaMos | 2026
// entity.go

package recipe

import (
	"time"

	"github.com/carterperez-dev/foodgram/internal/tag"
)

type Recipe struct {
	ID          string    `db:"id"`
	AuthorID    string    `db:"author_id"`
	Name        string    `db:"name"`
	Image       string    `db:"image"`
	Text        string    `db:"text"`
	CookingTime int       `db:"cooking_time"`
	PubDate     time.Time `db:"pub_date"`
}

// IngredientAmount is one line of a recipe: an ingredient and how much of
// it. Name and MeasurementUnit are only populated on reads.
type IngredientAmount struct {
	IngredientID    string `db:"id"`
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
	Amount          int    `db:"amount"`
}

type Author struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

type recipeTagRow struct {
	RecipeID string `db:"recipe_id"`
	tag.Tag
}

type recipeIngredientRow struct {
	RecipeID string `db:"recipe_id"`
	IngredientAmount
}

type tagLink struct {
	RecipeID string `db:"recipe_id"`
	TagID    string `db:"tag_id"`
}

type ingredientLink struct {
	RecipeID     string `db:"recipe_id"`
	IngredientID string `db:"ingredient_id"`
	Amount       int    `db:"amount"`
}
