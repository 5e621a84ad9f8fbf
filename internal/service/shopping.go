package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/logger"
	"gorm.io/gorm"
)

// ShoppingLine is one aggregated ingredient of a shopping list
type ShoppingLine struct {
	Name   string
	Unit   string
	Amount int
}

func (l ShoppingLine) String() string {
	return fmt.Sprintf("%s (%s) - %d", l.Name, l.Unit, l.Amount)
}

// ShoppingListService merges the ingredients of every recipe in a user's
// shopping cart into a list of totals.
type ShoppingListService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShoppingListService(db *gorm.DB, log *logger.Logger) *ShoppingListService {
	if log == nil {
		log = logger.Nop()
	}
	return &ShoppingListService{db: db, log: log}
}

type ingredientRow struct {
	Name   string
	Unit   string
	Amount int
}

// Aggregate sums ingredient amounts by name across the user's shopping cart.
// Lines come out in the order their ingredient was first seen, walking cart
// entries oldest first. When a name shows up with different units the first
// unit is kept.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uint) ([]ShoppingLine, error) {
	var rows []ingredientRow
	err := s.db.WithContext(ctx).
		Table("shopping_lists").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, ingredient_recipes.amount AS amount").
		Joins("JOIN ingredient_recipes ON ingredient_recipes.recipe_id = shopping_lists.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_recipes.ingredient_id").
		Where("shopping_lists.user_id = ?", userID).
		Order("shopping_lists.created_at, shopping_lists.id, ingredient_recipes.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}

	lines := []ShoppingLine{}
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Name]
		if !ok {
			index[r.Name] = len(lines)
			lines = append(lines, ShoppingLine{Name: r.Name, Unit: r.Unit, Amount: r.Amount})
			continue
		}
		if lines[i].Unit != r.Unit {
			s.log.Warn("Ingredient listed with different units; keeping the first",
				"user_id", userID, "ingredient", r.Name, "kept", lines[i].Unit, "ignored", r.Unit)
		}
		lines[i].Amount += r.Amount
	}
	return lines, nil
}

// Render formats lines as the plain text shopping list, one per line
func Render(lines []ShoppingLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}
