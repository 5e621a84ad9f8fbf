package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// presenter projects models into response types for one viewer.
// A zero viewer is anonymous and sees every computed flag as false.
type presenter struct {
	db     *gorm.DB
	viewer uint
}

func newPresenter(db *gorm.DB, viewer uint) *presenter {
	return &presenter{db: db, viewer: viewer}
}

// idSet loads the subset of ids that the viewer is linked to through model
// (Favorite, ShoppingList or Follow) in column.
func (p *presenter) idSet(ctx context.Context, model interface{}, column string, ids []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(ids))
	if p.viewer == 0 || len(ids) == 0 {
		return set, nil
	}

	var found []uint
	err := p.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND "+column+" IN ?", p.viewer, ids).
		Pluck(column, &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

func (p *presenter) subscribedTo(ctx context.Context, authorIDs []uint) (map[uint]bool, error) {
	return p.idSet(ctx, &models.Follow{}, "author_id", authorIDs)
}

func authorView(u models.User, subscribed bool) types.Author {
	return types.Author{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func (p *presenter) authors(ctx context.Context, users []models.User) ([]types.Author, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := p.subscribedTo(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]types.Author, len(users))
	for i, u := range users {
		out[i] = authorView(u, subscribed[u.ID])
	}
	return out, nil
}

func tagView(t models.Tag) types.Tag {
	return types.Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientView(i models.Ingredient) types.Ingredient {
	return types.Ingredient{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func shortRecipeView(r models.Recipe) types.ShortRecipe {
	return types.ShortRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// recipes expects Author, Tags and Ingredients.Ingredient to be preloaded
func (p *presenter) recipes(ctx context.Context, recipes []models.Recipe) ([]types.Recipe, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := p.idSet(ctx, &models.Favorite{}, "recipe_id", recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := p.idSet(ctx, &models.ShoppingList{}, "recipe_id", recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.subscribedTo(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.Recipe, len(recipes))
	for i, r := range recipes {
		tags := make([]types.Tag, len(r.Tags))
		for j, t := range r.Tags {
			tags[j] = tagView(t)
		}
		lines := make([]types.RecipeIngredient, len(r.Ingredients))
		for j, ir := range r.Ingredients {
			lines[j] = types.RecipeIngredient{
				ID:              ir.Ingredient.ID,
				Name:            ir.Ingredient.Name,
				MeasurementUnit: ir.Ingredient.MeasurementUnit,
				Amount:          ir.Amount,
			}
		}
		out[i] = types.Recipe{
			ID:               r.ID,
			Tags:             tags,
			Author:           authorView(r.Author, subscribed[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

// subscriptions builds the followed-author view with up to recipesLimit of
// each author's newest recipes. A negative limit embeds all of them.
func (p *presenter) subscriptions(ctx context.Context, authors []models.User, recipesLimit int) ([]types.Subscription, error) {
	views, err := p.authors(ctx, authors)
	if err != nil {
		return nil, err
	}

	out := make([]types.Subscription, len(authors))
	for i, a := range authors {
		var count int64
		if err := p.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", a.ID).Count(&count).Error; err != nil {
			return nil, err
		}

		recipes := []models.Recipe{}
		if recipesLimit != 0 {
			q := p.db.WithContext(ctx).Where("author_id = ?", a.ID).Order("created_at DESC, id DESC")
			if recipesLimit > 0 {
				q = q.Limit(recipesLimit)
			}
			if err := q.Find(&recipes).Error; err != nil {
				return nil, err
			}
		}

		short := make([]types.ShortRecipe, len(recipes))
		for j, r := range recipes {
			short[j] = shortRecipeView(r)
		}
		out[i] = types.Subscription{Author: views[i], Recipes: short, RecipesCount: count}
	}
	return out, nil
}

// preloadRecipe adds the associations the recipe view needs
func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_recipes.id") }).
		Preload("Ingredients.Ingredient")
}
