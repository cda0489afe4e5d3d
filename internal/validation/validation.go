package validation

import (
	"fmt"
	"regexp"

	"Go-Recipe-Share/domain"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// Constraints holds the scalar bounds the model enforces. It is passed
// explicitly into services instead of being read from ambient configuration.
type Constraints struct {
	CookingTimeMin int
	CookingTimeMax int
	AmountMin      int
	AmountMax      int

	EmailMax          int
	UsernameMax       int
	FirstNameMax      int
	LastNameMax       int
	PasswordMax       int
	RecipeNameMax     int
	TagNameMax        int
	TagColorMax       int
	IngredientNameMax int
}

func DefaultConstraints() Constraints {
	return Constraints{
		CookingTimeMin: 1,
		CookingTimeMax: 32000,
		AmountMin:      1,
		AmountMax:      32000,

		EmailMax:          254,
		UsernameMax:       150,
		FirstNameMax:      150,
		LastNameMax:       150,
		PasswordMax:       150,
		RecipeNameMax:     200,
		TagNameMax:        200,
		TagColorMax:       7,
		IngredientNameMax: 200,
	}
}

func (c Constraints) CookingTime(v int) error {
	if v < c.CookingTimeMin || v > c.CookingTimeMax {
		return domain.NewValidationError(
			"cooking_time",
			fmt.Sprintf("cooking time must be between %d and %d minutes", c.CookingTimeMin, c.CookingTimeMax),
		)
	}
	return nil
}

func (c Constraints) Amount(v int) error {
	if v < c.AmountMin || v > c.AmountMax {
		return domain.NewValidationError(
			"amount",
			fmt.Sprintf("amount must be between %d and %d", c.AmountMin, c.AmountMax),
		)
	}
	return nil
}

func (c Constraints) Slug(s string) error {
	if s == "" || len(s) > c.TagNameMax || !slugPattern.MatchString(s) {
		return domain.NewValidationError("slug", "slug may only contain letters, digits, hyphens and underscores")
	}
	return nil
}

func (c Constraints) Username(s string) error {
	if s == "" || len(s) > c.UsernameMax || !usernamePattern.MatchString(s) {
		return domain.NewValidationError("username", "username may only contain letters, digits and @ . + - _")
	}
	return nil
}
