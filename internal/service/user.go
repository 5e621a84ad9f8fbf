package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// UserService exposes user profiles as seen by a viewer
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUser returns a single user; IsSubscribed reflects whether viewer follows them
func (s *UserService) GetUser(ctx context.Context, id, viewer uint) (*types.Author, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	views, err := newPresenter(s.db.WithContext(ctx), viewer).authors(ctx, []models.User{user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListUsers returns one page of users ordered by id
func (s *UserService) ListUsers(ctx context.Context, viewer uint, page, limit int) ([]types.Author, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := db.Order("id").Scopes(paginate(page, limit)).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	views, err := newPresenter(db, viewer).authors(ctx, users)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}
