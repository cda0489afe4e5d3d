package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"Go-Recipe-Share/domain"
)

func TestAmount(t *testing.T) {
	c := DefaultConstraints()

	assert.NoError(t, c.Amount(1))
	assert.NoError(t, c.Amount(150))
	assert.NoError(t, c.Amount(c.AmountMax))

	for _, v := range []int{0, -1, -100, c.AmountMax + 1} {
		err := c.Amount(v)
		assert.Error(t, err, "amount %d should be rejected", v)

		var fieldErr domain.ValidationError
		assert.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, "amount", fieldErr.Field)
	}
}

func TestCookingTime(t *testing.T) {
	c := DefaultConstraints()

	assert.NoError(t, c.CookingTime(c.CookingTimeMin))
	assert.NoError(t, c.CookingTime(45))
	assert.NoError(t, c.CookingTime(c.CookingTimeMax))

	for _, v := range []int{0, -10, c.CookingTimeMax + 1} {
		err := c.CookingTime(v)
		assert.Error(t, err, "cooking time %d should be rejected", v)

		var fieldErr domain.ValidationError
		assert.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, "cooking_time", fieldErr.Field)
	}
}

func TestSlug(t *testing.T) {
	c := DefaultConstraints()

	assert.NoError(t, c.Slug("breakfast"))
	assert.NoError(t, c.Slug("low-carb_2"))

	for _, s := range []string{"", "with space", "накротко", "semi;colon", "dot.dot"} {
		assert.Error(t, c.Slug(s), "slug %q should be rejected", s)
	}
}

func TestUsername(t *testing.T) {
	c := DefaultConstraints()

	assert.NoError(t, c.Username("chef_anna"))
	assert.NoError(t, c.Username("user.name@host-1"))

	for _, s := range []string{"", "with space", "has#hash", "q!"} {
		assert.Error(t, c.Username(s), "username %q should be rejected", s)
	}
}
