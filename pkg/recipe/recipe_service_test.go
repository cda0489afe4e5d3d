package recipe

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Go-Recipe-Share/domain"
	"Go-Recipe-Share/entities"
	"Go-Recipe-Share/internal/validation"
	"Go-Recipe-Share/pkg/ingredient"
	"Go-Recipe-Share/pkg/tag"
)

type fakeStorage struct {
	uploads int
}

func (f *fakeStorage) UploadImage(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.uploads++
	return "https://cdn.test/" + key, nil
}

type recipeFixture struct {
	db      *gorm.DB
	service RecipeService
	storage *fakeStorage

	author *entities.User
	reader *entities.User
	dinner *entities.Tag
	flour  *entities.Ingredient
	sugar  *entities.Ingredient
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Subscription{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.CartEntry{},
	))

	return db
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()

	db := newTestDB(t)

	author := &entities.User{ID: uuid.New(), Email: "anna@example.com", Username: "anna", FirstName: "Anna", LastName: "Baker"}
	reader := &entities.User{ID: uuid.New(), Email: "boris@example.com", Username: "boris", FirstName: "Boris", LastName: "Cook"}
	require.NoError(t, db.Create(author).Error)
	require.NoError(t, db.Create(reader).Error)

	dinner := &entities.Tag{ID: uuid.New(), Name: "dinner", Color: "#AA0000", Slug: "dinner"}
	require.NoError(t, db.Create(dinner).Error)

	flour := &entities.Ingredient{ID: uuid.New(), Name: "flour", MeasurementUnit: "g"}
	sugar := &entities.Ingredient{ID: uuid.New(), Name: "sugar", MeasurementUnit: "g"}
	require.NoError(t, db.Create(flour).Error)
	require.NoError(t, db.Create(sugar).Error)

	fake := &fakeStorage{}
	service := NewRecipeService(
		NewRecipeRepository(db),
		tag.NewTagRepository(db),
		ingredient.NewIngredientRepository(db),
		fake,
		validation.DefaultConstraints(),
	)

	return &recipeFixture{
		db:      db,
		service: service,
		storage: fake,
		author:  author,
		reader:  reader,
		dinner:  dinner,
		flour:   flour,
		sugar:   sugar,
	}
}

func (f *recipeFixture) validRequest() domain.RecipeRequest {
	return domain.RecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       "https://cdn.test/recipes/pancakes.png",
		CookingTime: 30,
		Ingredients: []domain.IngredientAmountRequest{
			{ID: f.flour.ID.String(), Amount: 100},
			{ID: f.sugar.ID.String(), Amount: 50},
		},
		Tags: []string{f.dinner.ID.String()},
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	res, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", res.Name)
	assert.Equal(t, 30, res.CookingTime)
	assert.Equal(t, f.author.ID.String(), res.Author.ID)
	assert.Len(t, res.Tags, 1)
	assert.Len(t, res.Ingredients, 2)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)

	var itemCount int64
	require.NoError(t, f.db.Model(&entities.RecipeIngredient{}).Count(&itemCount).Error)
	assert.EqualValues(t, 2, itemCount)
}

func TestCreateRecipeRejectsEmptySets(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.Ingredients = nil
	_, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	var fieldErr domain.ValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "ingredients", fieldErr.Field)

	req = f.validRequest()
	req.Tags = nil
	_, err = f.service.CreateRecipe(ctx, req, f.author.ID.String())
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "tags", fieldErr.Field)
}

func TestCreateRecipeRejectsDuplicates(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.Ingredients = append(req.Ingredients, domain.IngredientAmountRequest{ID: f.flour.ID.String(), Amount: 10})
	_, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	var fieldErr domain.ValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "ingredients", fieldErr.Field)

	req = f.validRequest()
	req.Tags = append(req.Tags, f.dinner.ID.String())
	_, err = f.service.CreateRecipe(ctx, req, f.author.ID.String())
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "tags", fieldErr.Field)
}

func TestCreateRecipeRejectsBadAmountAndCookingTime(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.Ingredients[0].Amount = 0
	_, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	var fieldErr domain.ValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "amount", fieldErr.Field)

	req = f.validRequest()
	req.CookingTime = 50000
	_, err = f.service.CreateRecipe(ctx, req, f.author.ID.String())
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "cooking_time", fieldErr.Field)
}

func TestCreateRecipeUnknownAssociations(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.Ingredients[0].ID = uuid.NewString()
	_, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

	req = f.validRequest()
	req.Tags = []string{uuid.NewString()}
	_, err = f.service.CreateRecipe(ctx, req, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	// a failed create must leave nothing behind
	var count int64
	require.NoError(t, f.db.Model(&entities.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeUploadsInlineImage(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))

	res, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 1, f.storage.uploads)
	assert.True(t, strings.HasPrefix(res.Image, "https://cdn.test/recipes/"), "got %q", res.Image)
	assert.True(t, strings.HasSuffix(res.Image, ".png"), "got %q", res.Image)
}

func TestCreateRecipeRejectsBadImagePayload(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.Image = "data:image/png;base64,not*base64*"
	_, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	req = f.validRequest()
	req.Image = "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi"))
	_, err = f.service.CreateRecipe(ctx, req, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	milk := &entities.Ingredient{ID: uuid.New(), Name: "milk", MeasurementUnit: "ml"}
	require.NoError(t, f.db.Create(milk).Error)

	update := domain.RecipeUpdateRequest{
		Name: "Thin pancakes",
		Ingredients: []domain.IngredientAmountRequest{
			{ID: milk.ID.String(), Amount: 10},
		},
		Tags: []string{f.dinner.ID.String()},
	}

	res, err := f.service.UpdateRecipe(ctx, created.ID, update, f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Thin pancakes", res.Name)
	assert.Equal(t, "Mix and fry.", res.Text)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, "milk", res.Ingredients[0].Name)
	assert.Equal(t, 10, res.Ingredients[0].Amount)

	// the old ingredient rows are gone, not orphaned
	var itemCount int64
	require.NoError(t, f.db.Model(&entities.RecipeIngredient{}).
		Where("recipe_id = ?", created.ID).
		Count(&itemCount).Error)
	assert.EqualValues(t, 1, itemCount)
}

func TestUpdateRecipeOnlyAuthor(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	update := domain.RecipeUpdateRequest{
		Ingredients: []domain.IngredientAmountRequest{{ID: f.flour.ID.String(), Amount: 1}},
		Tags:        []string{f.dinner.ID.String()},
	}

	_, err = f.service.UpdateRecipe(ctx, created.ID, update, f.reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRecipeAccess)

	err = f.service.DeleteRecipe(ctx, created.ID, f.reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRecipeAccess)
}

func TestUpdateRecipeNotFound(t *testing.T) {
	f := newRecipeFixture(t)

	update := domain.RecipeUpdateRequest{
		Ingredients: []domain.IngredientAmountRequest{{ID: f.flour.ID.String(), Amount: 1}},
		Tags:        []string{f.dinner.ID.String()},
	}

	_, err := f.service.UpdateRecipe(context.Background(), uuid.NewString(), update, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestDeleteRecipeRemovesReferences(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.FavoriteRecipe(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)
	_, err = f.service.AddToCart(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteRecipe(ctx, created.ID, f.author.ID.String()))

	_, err = f.service.GetRecipeByID(ctx, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	for _, model := range []any{&entities.RecipeIngredient{}, &entities.Favorite{}, &entities.CartEntry{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("recipe_id = ?", created.ID).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestFavoriteLifecycle(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	short, err := f.service.FavoriteRecipe(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)
	assert.Equal(t, created.Name, short.Name)

	_, err = f.service.FavoriteRecipe(ctx, created.ID, f.reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrFavoriteExists)

	res, err := f.service.GetRecipeByID(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)
	assert.True(t, res.IsFavorited)

	require.NoError(t, f.service.UnfavoriteRecipe(ctx, created.ID, f.reader.ID.String()))
	err = f.service.UnfavoriteRecipe(ctx, created.ID, f.reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrFavoriteNotFound)
}

func TestCartLifecycle(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.AddToCart(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)

	_, err = f.service.AddToCart(ctx, created.ID, f.reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrCartEntryExists)

	res, err := f.service.GetRecipeByID(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)
	assert.True(t, res.IsInShoppingCart)

	require.NoError(t, f.service.RemoveFromCart(ctx, created.ID, f.reader.ID.String()))
	err = f.service.RemoveFromCart(ctx, created.ID, f.reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrCartEntryNotFound)
}

func TestAnonymousRequesterSeesFalseFlags(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.FavoriteRecipe(ctx, created.ID, f.reader.ID.String())
	require.NoError(t, err)

	res, err := f.service.GetRecipeByID(ctx, created.ID, "")
	require.NoError(t, err)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.False(t, res.Author.IsSubscribed)
}

func TestShoppingListAggregates(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateRecipe(ctx, f.validRequest(), f.author.ID.String())
	require.NoError(t, err)

	req := f.validRequest()
	req.Name = "Cookies"
	req.Ingredients = []domain.IngredientAmountRequest{
		{ID: f.flour.ID.String(), Amount: 200},
	}
	second, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.AddToCart(ctx, first.ID, f.reader.ID.String())
	require.NoError(t, err)
	_, err = f.service.AddToCart(ctx, second.ID, f.reader.ID.String())
	require.NoError(t, err)

	items, err := f.service.GetShoppingList(ctx, f.reader.ID.String())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "flour", items[0].Name)
	assert.Equal(t, 300, items[0].Amount)
	assert.Equal(t, "g", items[0].MeasurementUnit)
	assert.Equal(t, "sugar", items[1].Name)
	assert.Equal(t, 50, items[1].Amount)
}

func TestGetRecipesPagination(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Soup", "Salad", "Stew"} {
		req := f.validRequest()
		req.Name = name
		_, err := f.service.CreateRecipe(ctx, req, f.author.ID.String())
		require.NoError(t, err)
	}

	recipes, count, err := f.service.GetRecipes(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, recipes, 2)

	recipes, _, err = f.service.GetRecipes(ctx, 2, 2, "")
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}
