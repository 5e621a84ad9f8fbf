package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	log    *logger.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, log *logger.Logger) *RecipeService {
	if log == nil {
		log = logger.Nop()
	}
	return &RecipeService{db: db, images: images, log: log}
}

// CreateRecipe persists a recipe owned by authorID with its tags and
// ingredient lines, and returns the hydrated view.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.Recipe, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Image == "" {
		return nil, newValidationError("image", "this field is required")
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.checkIngredients(ctx, req.Ingredients); err != nil {
		return nil, err
	}
	image, err := s.storeImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, &recipe, tags); err != nil {
			return err
		}
		return createIngredientLines(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.log.Info("Recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return s.GetRecipe(ctx, recipe.ID, authorID)
}

// UpdateRecipe overwrites a recipe owned by viewer. Ingredient lines are
// replaced wholesale; the image changes only when a new one is supplied.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, viewer uint, req *types.RecipeRequest) (*types.Recipe, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	recipe, err := s.ownedRecipe(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.checkIngredients(ctx, req.Ingredients); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         req.Name,
		"text":         req.Text,
		"cooking_time": req.CookingTime,
	}
	if req.Image != "" {
		image, err := s.storeImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		updates["image"] = image
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe, tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientRecipe{}).Error; err != nil {
			return err
		}
		return createIngredientLines(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	s.log.Info("Recipe updated", "recipe_id", recipe.ID)
	return s.GetRecipe(ctx, recipe.ID, viewer)
}

// GetRecipe returns the hydrated view of a recipe as seen by viewer
func (s *RecipeService) GetRecipe(ctx context.Context, id, viewer uint) (*types.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	views, err := newPresenter(s.db.WithContext(ctx), viewer).recipes(ctx, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns a page of recipes, newest first, narrowed by filter.
// The favorited and shopping cart filters only apply to a signed in viewer.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer uint, filter types.RecipeFilter) ([]types.Recipe, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.Tags) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if viewer != 0 && filter.IsFavorited {
		query = query.Where("recipes.id IN (?)",
			db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewer))
	}
	if viewer != 0 && filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)",
			db.Model(&models.ShoppingList{}).Select("recipe_id").Where("user_id = ?", viewer))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := preloadRecipe(query).
		Order("recipes.created_at DESC, recipes.id DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := newPresenter(db, viewer).recipes(ctx, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// DeleteRecipe removes a recipe owned by viewer
func (s *RecipeService) DeleteRecipe(ctx context.Context, id, viewer uint) error {
	recipe, err := s.ownedRecipe(ctx, id, viewer)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(recipe).Error; err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.log.Info("Recipe deleted", "recipe_id", id)
	return nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, id, viewer uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if recipe.AuthorID != viewer {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

func (s *RecipeService) storeImage(ctx context.Context, uri string) (string, error) {
	img, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	if s.images == nil {
		return "", errors.New("no image store configured")
	}
	return s.images.Save(ctx, img)
}

// resolveTags loads the referenced tags, ignoring repeated ids
func (s *RecipeService) resolveTags(ctx context.Context, ids []uint) ([]models.Tag, error) {
	unique := dedupe(ids)
	tags := []models.Tag{}
	if len(unique) == 0 {
		return tags, nil
	}

	if err := s.db.WithContext(ctx).Where("id IN ?", unique).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, newValidationError("tags", "unknown tag id")
	}
	return tags, nil
}

// checkIngredients rejects unknown or repeated ingredient ids
func (s *RecipeService) checkIngredients(ctx context.Context, lines []types.IngredientAmount) error {
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	unique := dedupe(ids)
	if len(unique) != len(ids) {
		return newValidationError("ingredients", "ingredients must not repeat")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", unique).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(unique) {
		return newValidationError("ingredients", "unknown ingredient id")
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	assoc := tx.Model(recipe).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

func createIngredientLines(tx *gorm.DB, recipeID uint, lines []types.IngredientAmount) error {
	rows := make([]models.IngredientRecipe, len(lines))
	for i, l := range lines {
		rows[i] = models.IngredientRecipe{RecipeID: recipeID, IngredientID: l.ID, Amount: l.Amount}
	}
	return tx.Omit("Ingredient").Create(&rows).Error
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// paginate applies 1-based page numbering. A non-positive limit disables paging.
func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
