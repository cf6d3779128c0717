// AngelaMos | 2026
// validation_test.go

package recipe

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/foodgram/internal/core"
)

func validCreate() CreateRecipeRequest {
	return CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 15,
		Image:       "data:image/png;base64,AAAA",
		Tags:        []string{"t-breakfast"},
		Ingredients: []IngredientInput{
			{ID: "i-egg", Amount: 2},
			{ID: "i-flour", Amount: 200},
		},
	}
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRecipeRequest)
		field  string
		target error
	}{
		{"valid", func(*CreateRecipeRequest) {}, "", nil},
		{"blank name", func(r *CreateRecipeRequest) { r.Name = "  " }, "name", nil},
		{"long name", func(r *CreateRecipeRequest) { r.Name = strings.Repeat("a", 201) }, "name", nil},
		{"missing text", func(r *CreateRecipeRequest) { r.Text = "" }, "text", nil},
		{"zero cooking time", func(r *CreateRecipeRequest) { r.CookingTime = 0 }, "cooking_time", nil},
		{"missing image", func(r *CreateRecipeRequest) { r.Image = "" }, "image", nil},
		{"no tags", func(r *CreateRecipeRequest) { r.Tags = nil }, "tags", nil},
		{"no ingredients", func(r *CreateRecipeRequest) { r.Ingredients = nil }, "ingredients", nil},
		{"zero amount", func(r *CreateRecipeRequest) { r.Ingredients[0].Amount = 0 }, "ingredients", nil},
		{
			"duplicate ingredient",
			func(r *CreateRecipeRequest) {
				r.Ingredients = append(r.Ingredients, IngredientInput{ID: "i-egg", Amount: 1})
			},
			"",
			core.ErrDuplicateIngredient,
		},
		{
			"duplicate ingredient with zero amount",
			func(r *CreateRecipeRequest) {
				r.Ingredients = append(r.Ingredients, IngredientInput{ID: "i-egg", Amount: 0})
			},
			"",
			core.ErrDuplicateIngredient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)

			err := ValidateCreate(req)

			switch {
			case tt.target != nil:
				assert.ErrorIs(t, err, tt.target)
			case tt.field != "":
				var valErr *core.ValidationError
				require.True(t, errors.As(err, &valErr), "want ValidationError, got %v", err)
				assert.Equal(t, tt.field, valErr.Field)
				assert.ErrorIs(t, err, core.ErrValidation)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUpdate_PartialScalarsButFullComposition(t *testing.T) {
	name := "Crepes"
	req := UpdateRecipeRequest{
		Name:        &name,
		Tags:        []string{"t-breakfast"},
		Ingredients: []IngredientInput{{ID: "i-egg", Amount: 1}},
	}
	assert.NoError(t, ValidateUpdate(req))

	req.Tags = nil
	var valErr *core.ValidationError
	require.ErrorAs(t, ValidateUpdate(req), &valErr)
	assert.Equal(t, "tags", valErr.Field)

	zero := 0
	req.Tags = []string{"t-breakfast"}
	req.CookingTime = &zero
	require.ErrorAs(t, ValidateUpdate(req), &valErr)
	assert.Equal(t, "cooking_time", valErr.Field)
}

func TestUniqueIDs_KeepsFirstOccurrence(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, uniqueIDs([]string{"b", "a", "b", "c", "a"}))
}
