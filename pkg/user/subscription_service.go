package user

import (
	"Go-Recipe-Share/domain"
	"Go-Recipe-Share/entities"
	"Go-Recipe-Share/pkg/recipe"
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	SubscriptionService interface {
		Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID string) error
		IsFollowing(ctx context.Context, userID, authorID string) (bool, error)
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
		SubscriptionSummary(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error)
	}

	subscriptionService struct {
		userRepository UserRepository
	}
)

func NewSubscriptionService(userRepository UserRepository) SubscriptionService {
	return &subscriptionService{userRepository: userRepository}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	if userID == authorID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	following, err := s.userRepository.IsFollowing(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if following {
		return domain.SubscriptionResponse{}, domain.ErrSubscriptionExists
	}

	if err := s.userRepository.CreateSubscription(ctx, userUUID, author.ID); err != nil {
		return domain.SubscriptionResponse{}, err
	}

	return s.SubscriptionSummary(ctx, userID, authorID, recipesLimit)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.ErrParseUUID
	}

	following, err := s.userRepository.IsFollowing(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if !following {
		return domain.ErrSubscriptionNotFound
	}

	return s.userRepository.DeleteSubscription(ctx, userUUID, authorUUID)
}

// IsFollowing answers false for an anonymous requester instead of erroring.
func (s *subscriptionService) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.userRepository.IsFollowing(ctx, userID, authorID)
}

func (s *subscriptionService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	authors, count, err := s.userRepository.GetFollowedAuthors(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		summary, err := s.SubscriptionSummary(ctx, userID, author.ID.String(), recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, summary)
	}

	return result, count, nil
}

// SubscriptionSummary reports the author's identity, the requester's follow
// status and a recipe list capped by recipesLimit. RecipesCount deliberately
// ignores the cap and counts every recipe the author published.
func (s *subscriptionService) SubscriptionSummary(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	isSubscribed, err := s.IsFollowing(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	var recipes []*entities.Recipe
	if userID != "" {
		if recipes, err = s.userRepository.GetRecipesOfFollowedAuthors(ctx, userID, recipesLimit); err != nil {
			return domain.SubscriptionResponse{}, err
		}
	}

	recipesCount, err := s.userRepository.CountRecipesByAuthor(ctx, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	shorts := make([]domain.RecipeShortResponse, 0, len(recipes))
	for _, r := range recipes {
		shorts = append(shorts, recipe.ToRecipeShortResponse(r))
	}

	return domain.SubscriptionResponse{
		ID:           author.ID.String(),
		Email:        author.Email,
		Username:     author.Username,
		FirstName:    author.FirstName,
		LastName:     author.LastName,
		IsSubscribed: isSubscribed,
		Recipes:      shorts,
		RecipesCount: recipesCount,
	}, nil
}
