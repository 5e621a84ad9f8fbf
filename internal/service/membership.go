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

// MembershipService guards the favorite, shopping cart and follow relations.
// Every pair is unique: the database index decides duplicates, so two
// concurrent adds for the same pair cannot both succeed.
type MembershipService struct {
	db           *gorm.DB
	recipesLimit int
	log          *logger.Logger
}

// NewMembershipService creates a MembershipService. recipesLimit caps the
// recipes embedded in each subscription.
func NewMembershipService(db *gorm.DB, recipesLimit int, log *logger.Logger) *MembershipService {
	if log == nil {
		log = logger.Nop()
	}
	return &MembershipService{db: db, recipesLimit: recipesLimit, log: log}
}

// AddFavorite marks a recipe as a favorite of userID
func (s *MembershipService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error) {
	return s.addRecipePair(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, recipeID, "favorites")
}

// RemoveFavorite drops a recipe from userID's favorites
func (s *MembershipService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.removeRecipePair(ctx, &models.Favorite{}, userID, recipeID, "favorites")
}

// AddToShoppingCart puts a recipe in userID's shopping cart
func (s *MembershipService) AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error) {
	return s.addRecipePair(ctx, &models.ShoppingList{UserID: userID, RecipeID: recipeID}, recipeID, "shopping cart")
}

// RemoveFromShoppingCart drops a recipe from userID's shopping cart
func (s *MembershipService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error {
	return s.removeRecipePair(ctx, &models.ShoppingList{}, userID, recipeID, "shopping cart")
}

func (s *MembershipService) addRecipePair(ctx context.Context, row interface{}, recipeID uint, list string) (*types.ShortRecipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("recipe %d: %w", recipeID, ErrNotFound)
			}
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		if isDuplicateError(err) {
			return nil, conflictf("recipe is already in %s", list)
		}
		return nil, err
	}

	short := shortRecipeView(recipe)
	return &short, nil
}

func (s *MembershipService) removeRecipePair(ctx context.Context, model interface{}, userID, recipeID uint, list string) error {
	db := s.db.WithContext(ctx)
	if err := requireExists(db, &models.Recipe{}, recipeID, "recipe"); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe is not in %s: %w", list, ErrNotInList)
	}
	return nil
}

// Follow subscribes userID to authorID and returns the subscription view
func (s *MembershipService) Follow(ctx context.Context, userID, authorID uint) (*types.Subscription, error) {
	if userID == authorID {
		return nil, conflictf("you cannot subscribe to yourself")
	}

	var author models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", authorID, ErrNotFound)
			}
			return err
		}
		return tx.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error
	})
	if err != nil {
		if isDuplicateError(err) {
			return nil, conflictf("already subscribed to this author")
		}
		return nil, err
	}

	s.log.Debug("Follow added", "user_id", userID, "author_id", authorID)
	subs, err := newPresenter(s.db.WithContext(ctx), userID).subscriptions(ctx, []models.User{author}, s.recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// Unfollow removes the subscription of userID to authorID
func (s *MembershipService) Unfollow(ctx context.Context, userID, authorID uint) error {
	db := s.db.WithContext(ctx)
	if err := requireExists(db, &models.User{}, authorID, "user"); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("not subscribed to this author: %w", ErrNotInList)
	}
	return nil
}

// Subscriptions lists the authors userID follows, oldest follow first.
// recipesLimit overrides the configured cap when it is not nil.
func (s *MembershipService) Subscriptions(ctx context.Context, userID uint, page, limit int, recipesLimit *int) ([]types.Subscription, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := query.
		Order("follows.created_at, follows.id").
		Scopes(paginate(page, limit)).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}

	embed := s.recipesLimit
	if recipesLimit != nil {
		embed = *recipesLimit
	}
	subs, err := newPresenter(db, userID).subscriptions(ctx, authors, embed)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func requireExists(db *gorm.DB, model interface{}, id uint, what string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
