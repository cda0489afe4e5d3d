package tag

import (
	"context"
	"errors"
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
)

func newTagService(t *testing.T) TagService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entities.Tag{}))

	return NewTagService(NewTagRepository(db), validation.DefaultConstraints())
}

func TestCreateTag(t *testing.T) {
	service := newTagService(t)
	ctx := context.Background()

	res, err := service.CreateTag(ctx, domain.CreateTagRequest{Name: "breakfast", Color: "#E26C2D", Slug: "breakfast"})
	require.NoError(t, err)
	assert.Equal(t, "breakfast", res.Name)
	assert.NotEmpty(t, res.ID)

	fetched, err := service.GetTagByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, fetched)
}

func TestCreateTagUniqueness(t *testing.T) {
	service := newTagService(t)
	ctx := context.Background()

	_, err := service.CreateTag(ctx, domain.CreateTagRequest{Name: "breakfast", Color: "#E26C2D", Slug: "breakfast"})
	require.NoError(t, err)

	// name, color and slug each collide on their own
	cases := []domain.CreateTagRequest{
		{Name: "breakfast", Color: "#000000", Slug: "other"},
		{Name: "other", Color: "#E26C2D", Slug: "other"},
		{Name: "other", Color: "#000000", Slug: "breakfast"},
	}
	for _, req := range cases {
		_, err := service.CreateTag(ctx, req)
		assert.ErrorIs(t, err, domain.ErrTagExists, "request %+v", req)
	}
}

func TestCreateTagRejectsBadSlug(t *testing.T) {
	service := newTagService(t)

	_, err := service.CreateTag(context.Background(), domain.CreateTagRequest{Name: "dinner", Color: "#49B64E", Slug: "bad slug"})
	var fieldErr domain.ValidationError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "slug", fieldErr.Field)
}

func TestGetTagByIDNotFound(t *testing.T) {
	service := newTagService(t)

	_, err := service.GetTagByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	_, err = service.GetTagByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrParseUUID)
}
