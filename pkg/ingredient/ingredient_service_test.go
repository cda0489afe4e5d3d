package ingredient

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Go-Recipe-Share/domain"
	"Go-Recipe-Share/entities"
)

func newIngredientService(t *testing.T) IngredientService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entities.Ingredient{}))

	return NewIngredientService(NewIngredientRepository(db))
}

func TestCreateIngredient(t *testing.T) {
	service := newIngredientService(t)
	ctx := context.Background()

	res, err := service.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "flour", MeasurementUnit: "g"})
	require.NoError(t, err)
	assert.Equal(t, "flour", res.Name)
	assert.Equal(t, "g", res.MeasurementUnit)

	// same name with a different unit is a distinct ingredient
	_, err = service.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "flour", MeasurementUnit: "kg"})
	require.NoError(t, err)

	_, err = service.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "flour", MeasurementUnit: "g"})
	assert.ErrorIs(t, err, domain.ErrIngredientExists)
}

func TestGetIngredientsByNamePrefix(t *testing.T) {
	service := newIngredientService(t)
	ctx := context.Background()

	for _, name := range []string{"sugar", "sunflower oil", "salt"} {
		_, err := service.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: name, MeasurementUnit: "g"})
		require.NoError(t, err)
	}

	matches, err := service.GetIngredients(ctx, "su")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	all, err := service.GetIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetIngredientByIDNotFound(t *testing.T) {
	service := newIngredientService(t)

	_, err := service.GetIngredientByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
}
