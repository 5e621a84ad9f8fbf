package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService serves the ingredient and tag reference data
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case, ordered by name.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]types.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}

	out := make([]types.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ingredientView(ing)
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.Ingredient, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ingredient %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	view := ingredientView(ing)
	return &view, nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}

	out := make([]types.Tag, len(tags))
	for i, t := range tags {
		out[i] = tagView(t)
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	view := tagView(tag)
	return &view, nil
}

// CreateTag stores a tag, deriving the slug from the name and falling back
// to the default color when either is blank.
func (s *CatalogService) CreateTag(ctx context.Context, t types.Tag) (*types.Tag, error) {
	tag := models.Tag{
		Name:  strings.TrimSpace(t.Name),
		Slug:  strings.TrimSpace(t.Slug),
		Color: strings.TrimSpace(t.Color),
	}
	if tag.Name == "" {
		return nil, newValidationError("name", "this field is required")
	}
	if tag.Slug == "" {
		tag.Slug = slug.Make(tag.Name)
	}
	if !slug.IsSlug(tag.Slug) {
		return nil, newValidationError("slug", "must contain only lowercase letters, digits and hyphens")
	}
	if tag.Color == "" {
		tag.Color = models.DefaultTagColor
	}

	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if isDuplicateError(err) {
			return nil, conflictf("tag with slug %q already exists", tag.Slug)
		}
		return nil, err
	}
	view := tagView(tag)
	return &view, nil
}

// ImportIngredients inserts ingredients in batches, skipping names that
// already exist. It returns the number of rows inserted.
func (s *CatalogService) ImportIngredients(ctx context.Context, items []types.Ingredient) (int64, error) {
	rows := make([]models.Ingredient, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		rows = append(rows, models.Ingredient{Name: name, MeasurementUnit: strings.TrimSpace(it.MeasurementUnit)})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		CreateInBatches(&rows, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
