package user

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
	"Go-Recipe-Share/pkg/jwt"
)

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

func newUserService(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewUserService(NewUserRepository(db), jwt.NewJWTService()), db
}

func registerRequest() domain.UserRegisterRequest {
	return domain.UserRegisterRequest{
		Email:     "anna@example.com",
		Username:  "anna",
		FirstName: "Anna",
		LastName:  "Baker",
		Password:  "s3cret-pass",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	service, db := newUserService(t)
	ctx := context.Background()

	res, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "anna", res.Username)
	assert.False(t, res.IsSubscribed)

	// the stored password is a bcrypt hash, never the plain text
	var stored entities.User
	require.NoError(t, db.Where("username = ?", "anna").First(&stored).Error)
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.NotEmpty(t, stored.Password)

	login, err := service.Login(ctx, domain.UserLoginRequest{Email: "anna@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
}

func TestRegisterConflicts(t *testing.T) {
	service, _ := newUserService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Username = "anna2"
	_, err = service.Register(ctx, req)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	req = registerRequest()
	req.Email = "anna2@example.com"
	_, err = service.Register(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, _ := newUserService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = service.Login(ctx, domain.UserLoginRequest{Email: "anna@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrCredentialsNotMatched)

	// an unknown email gets the same answer as a wrong password
	_, err = service.Login(ctx, domain.UserLoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domain.ErrCredentialsNotMatched)
}

func TestGetProfile(t *testing.T) {
	service, db := newUserService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = service.GetProfile(ctx, uuid.NewString(), "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	profile, err := service.GetProfile(ctx, registered.ID, "")
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	follower := &entities.User{ID: uuid.New(), Email: "boris@example.com", Username: "boris"}
	require.NoError(t, db.Create(follower).Error)
	require.NoError(t, db.Create(&entities.Subscription{
		ID:       uuid.New(),
		UserID:   follower.ID,
		AuthorID: uuid.MustParse(registered.ID),
	}).Error)

	profile, err = service.GetProfile(ctx, registered.ID, follower.ID.String())
	require.NoError(t, err)
	assert.True(t, profile.IsSubscribed)
}
