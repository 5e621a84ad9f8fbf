package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/pageza/foodgram/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain text password of every user made by CreateUser
const TestPassword = "password123"

// TinyPNG is a valid data URI for a 1x1 transparent PNG
const TinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// CreateUser inserts a user named username with TestPassword
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

func CreateTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug, Color: models.DefaultTagColor}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return tag
}

// Line is an ingredient and amount for CreateRecipe
type Line struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe directly, bypassing the service layer.
// Each call is one second newer than the last so ordering by creation
// time is deterministic.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, lines ...Line) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		CreatedAt:   nextTimestamp(),
		AuthorID:    author.ID,
		Name:        name,
		Image:       "/media/recipes/test.png",
		Text:        name + " instructions",
		CookingTime: 10,
	}
	if err := db.Omit("Tags", "Ingredients").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	for _, l := range lines {
		row := models.IngredientRecipe{RecipeID: recipe.ID, IngredientID: l.Ingredient.ID, Amount: l.Amount}
		if err := db.Omit("Ingredient").Create(&row).Error; err != nil {
			t.Fatalf("failed to add ingredient to %s: %v", name, err)
		}
	}
	return recipe
}

var clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func nextTimestamp() time.Time {
	clock = clock.Add(time.Second)
	return clock
}
