// AngelaMos | 2026
// validation.go

package recipe

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/carterperez-dev/foodgram/internal/core"
)

const (
	MaxNameLength  = 200
	MinCookingTime = 1
	MinAmount      = 1
)

// ValidateCreate checks a create payload without touching the store.
func ValidateCreate(req CreateRecipeRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return core.NewValidationError("text", "this field is required")
	}
	if req.CookingTime < MinCookingTime {
		return core.NewValidationError("cooking_time", "cooking time must be at least 1 minute")
	}
	if strings.TrimSpace(req.Image) == "" {
		return core.NewValidationError("image", "this field is required")
	}

	return validateComposition(req.Tags, req.Ingredients)
}

// ValidateUpdate checks only the scalar fields that are present; tags and
// ingredients must always be supplied.
func ValidateUpdate(req UpdateRecipeRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		return core.NewValidationError("text", "this field may not be blank")
	}
	if req.CookingTime != nil && *req.CookingTime < MinCookingTime {
		return core.NewValidationError("cooking_time", "cooking time must be at least 1 minute")
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		return core.NewValidationError("image", "this field may not be blank")
	}

	return validateComposition(req.Tags, req.Ingredients)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return core.NewValidationError("name", "this field is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return core.NewValidationError("name", "name must be at most 200 characters")
	}
	return nil
}

func validateComposition(tags []string, ingredients []IngredientInput) error {
	if len(tags) == 0 {
		return core.NewValidationError("tags", "at least one tag is required")
	}
	for _, id := range tags {
		if strings.TrimSpace(id) == "" {
			return core.NewValidationError("tags", "tag id may not be blank")
		}
	}

	if len(ingredients) == 0 {
		return core.NewValidationError("ingredients", "at least one ingredient is required")
	}

	// Repeated ids win over any per-line problem.
	seen := make(map[string]struct{}, len(ingredients))
	for _, in := range ingredients {
		if _, dup := seen[in.ID]; dup {
			return fmt.Errorf("ingredient %s listed twice: %w", in.ID, core.ErrDuplicateIngredient)
		}
		seen[in.ID] = struct{}{}
	}

	for _, in := range ingredients {
		if strings.TrimSpace(in.ID) == "" {
			return core.NewValidationError("ingredients", "ingredient id may not be blank")
		}
		if in.Amount < MinAmount {
			return core.NewValidationError("ingredients", "amount must be at least 1")
		}
	}

	return nil
}

// uniqueIDs drops repeated ids, keeping first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
