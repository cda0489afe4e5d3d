package recipe

import (
	"Go-Recipe-Share/domain"
	"Go-Recipe-Share/entities"
	"Go-Recipe-Share/internal/utils/storage"
	"Go-Recipe-Share/internal/validation"
	"Go-Recipe-Share/pkg/ingredient"
	"Go-Recipe-Share/pkg/tag"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.RecipeRequest, authorID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeUpdateRequest, requesterID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, requesterID string) error
		GetRecipeByID(ctx context.Context, recipeID string, requesterID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, page, limit int, requesterID string) ([]domain.RecipeResponse, int64, error)

		FavoriteRecipe(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		UnfavoriteRecipe(ctx context.Context, recipeID, userID string) error
		AddToCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFromCart(ctx context.Context, recipeID, userID string) error
		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		s3                   storage.AwsS3
		constraints          validation.Constraints
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	s3 storage.AwsS3,
	constraints validation.Constraints,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		s3:                   s3,
		constraints:          constraints,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.RecipeRequest, authorID string) (domain.RecipeResponse, error) {
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	if err := s.constraints.CookingTime(req.CookingTime); err != nil {
		return domain.RecipeResponse{}, err
	}

	tags, items, err := s.resolveAssociations(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	image, err := s.resolveImage(ctx, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       image,
		CookingTime: req.CookingTime,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, tags, items); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeByID(ctx, recipe.ID.String(), authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeUpdateRequest, requesterID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != requesterID {
		return domain.RecipeResponse{}, domain.ErrUnauthorizedRecipeAccess
	}

	tags, items, err := s.resolveAssociations(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}
	if req.CookingTime != 0 {
		if err := s.constraints.CookingTime(req.CookingTime); err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.CookingTime = req.CookingTime
	}
	if req.Image != "" {
		image, err := s.resolveImage(ctx, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.Image = image
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, tags, items); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeByID(ctx, recipeID, requesterID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, requesterID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != requesterID {
		return domain.ErrUnauthorizedRecipeAccess
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipe.ID)
}

func (s *recipeService) GetRecipeByID(ctx context.Context, recipeID string, requesterID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	return s.toRecipeResponse(ctx, recipe, requesterID)
}

func (s *recipeService) GetRecipes(ctx context.Context, page, limit int, requesterID string) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		res, err := s.toRecipeResponse(ctx, r, requesterID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, res)
	}

	return result, count, nil
}

func (s *recipeService) FavoriteRecipe(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, userUUID, err := s.loadRecipeAndUser(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if favorited {
		return domain.RecipeShortResponse{}, domain.ErrFavoriteExists
	}

	if err := s.recipeRepository.AddFavorite(ctx, userUUID, recipe.ID); err != nil {
		return domain.RecipeShortResponse{}, err
	}

	return ToRecipeShortResponse(recipe), nil
}

func (s *recipeService) UnfavoriteRecipe(ctx context.Context, recipeID, userID string) error {
	recipe, userUUID, err := s.loadRecipeAndUser(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !favorited {
		return domain.ErrFavoriteNotFound
	}

	return s.recipeRepository.RemoveFavorite(ctx, userUUID, recipe.ID)
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, userUUID, err := s.loadRecipeAndUser(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	inCart, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if inCart {
		return domain.RecipeShortResponse{}, domain.ErrCartEntryExists
	}

	if err := s.recipeRepository.AddCartEntry(ctx, userUUID, recipe.ID); err != nil {
		return domain.RecipeShortResponse{}, err
	}

	return ToRecipeShortResponse(recipe), nil
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID, userID string) error {
	recipe, userUUID, err := s.loadRecipeAndUser(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	inCart, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !inCart {
		return domain.ErrCartEntryNotFound
	}

	return s.recipeRepository.RemoveCartEntry(ctx, userUUID, recipe.ID)
}

// GetShoppingList merges the ingredient lists of every recipe in the user's
// cart, summing amounts per (name, measurement unit).
func (s *recipeService) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	items, err := s.recipeRepository.GetCartIngredients(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*domain.ShoppingListItem)
	for _, item := range items {
		if item.Ingredient == nil {
			continue
		}
		key := item.Ingredient.Name + "|" + item.Ingredient.MeasurementUnit
		if entry, ok := totals[key]; ok {
			entry.Amount += item.Amount
			continue
		}
		totals[key] = &domain.ShoppingListItem{
			Name:            item.Ingredient.Name,
			MeasurementUnit: item.Ingredient.MeasurementUnit,
			Amount:          item.Amount,
		}
	}

	result := make([]domain.ShoppingListItem, 0, len(totals))
	for _, entry := range totals {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// resolveAssociations validates the tag and ingredient sets and resolves every
// id against the store before any write happens. Duplicates are rejected, not
// merged.
func (s *recipeService) resolveAssociations(ctx context.Context, tagIDs []string, ingredientEntries []domain.IngredientAmountRequest) ([]entities.Tag, []entities.RecipeIngredient, error) {
	if len(ingredientEntries) == 0 {
		return nil, nil, domain.NewValidationError("ingredients", "at least one ingredient is required")
	}
	if len(tagIDs) == 0 {
		return nil, nil, domain.NewValidationError("tags", "at least one tag is required")
	}

	seenIngredients := make(map[string]bool, len(ingredientEntries))
	ingredientUUIDs := make([]uuid.UUID, 0, len(ingredientEntries))
	for _, entry := range ingredientEntries {
		if seenIngredients[entry.ID] {
			return nil, nil, domain.NewValidationError("ingredients", "ingredients must not repeat")
		}
		seenIngredients[entry.ID] = true

		if err := s.constraints.Amount(entry.Amount); err != nil {
			return nil, nil, err
		}

		id, err := uuid.Parse(entry.ID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		ingredientUUIDs = append(ingredientUUIDs, id)
	}

	seenTags := make(map[string]bool, len(tagIDs))
	tagUUIDs := make([]uuid.UUID, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		if seenTags[tagID] {
			return nil, nil, domain.NewValidationError("tags", "tags must not repeat")
		}
		seenTags[tagID] = true

		id, err := uuid.Parse(tagID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		tagUUIDs = append(tagUUIDs, id)
	}

	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientUUIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientUUIDs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagUUIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagUUIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	amounts := make(map[uuid.UUID]int, len(ingredientEntries))
	for i, id := range ingredientUUIDs {
		amounts[id] = ingredientEntries[i].Amount
	}

	items := make([]entities.RecipeIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: ing.ID,
			Amount:       amounts[ing.ID],
		})
	}

	return tags, items, nil
}

// resolveImage accepts either an already-hosted URL or an inline base64 data
// URI, which gets decoded and uploaded to S3.
func (s *recipeService) resolveImage(ctx context.Context, image string) (string, error) {
	if !strings.HasPrefix(image, "data:") {
		return image, nil
	}

	meta, payload, found := strings.Cut(image, ",")
	if !found {
		return "", domain.ErrInvalidImage
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return "", domain.ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", domain.ErrInvalidImage
	}

	ext := strings.TrimPrefix(contentType, "image/")
	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)

	return s.s3.UploadImage(ctx, key, data, contentType)
}

func (s *recipeService) loadRecipeAndUser(ctx context.Context, recipeID, userID string) (*entities.Recipe, uuid.UUID, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, uuid.Nil, domain.ErrParseUUID
	}

	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, domain.ErrRecipeNotFound
		}
		return nil, uuid.Nil, err
	}

	return recipe, userUUID, nil
}

func (s *recipeService) toRecipeResponse(ctx context.Context, recipe *entities.Recipe, requesterID string) (domain.RecipeResponse, error) {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for i := range recipe.Tags {
		tags = append(tags, tag.ToTagResponse(&recipe.Tags[i]))
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, item := range recipe.Ingredients {
		if item.Ingredient == nil {
			continue
		}
		ingredients = append(ingredients, domain.RecipeIngredientResponse{
			ID:              item.Ingredient.ID.String(),
			Name:            item.Ingredient.Name,
			MeasurementUnit: item.Ingredient.MeasurementUnit,
			Amount:          item.Amount,
		})
	}

	var isFavorited, isInCart, isSubscribed bool
	if requesterID != "" {
		var err error
		if isFavorited, err = s.recipeRepository.IsFavorited(ctx, requesterID, recipe.ID.String()); err != nil {
			return domain.RecipeResponse{}, err
		}
		if isInCart, err = s.recipeRepository.IsInCart(ctx, requesterID, recipe.ID.String()); err != nil {
			return domain.RecipeResponse{}, err
		}
		if isSubscribed, err = s.recipeRepository.IsSubscribed(ctx, requesterID, recipe.AuthorID.String()); err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	author := domain.UserResponse{}
	if recipe.Author != nil {
		author = domain.UserResponse{
			ID:           recipe.Author.ID.String(),
			Email:        recipe.Author.Email,
			Username:     recipe.Author.Username,
			FirstName:    recipe.Author.FirstName,
			LastName:     recipe.Author.LastName,
			IsSubscribed: isSubscribed,
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}, nil
}

func ToRecipeShortResponse(recipe *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}
