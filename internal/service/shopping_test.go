package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingListAggregate(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "author")
	buyer := testhelpers.CreateUser(t, db, "buyer")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")

	recipeA := testhelpers.CreateRecipe(t, db, author, "A",
		testhelpers.Line{Ingredient: flour, Amount: 100},
		testhelpers.Line{Ingredient: egg, Amount: 2})
	recipeB := testhelpers.CreateRecipe(t, db, author, "B",
		testhelpers.Line{Ingredient: flour, Amount: 50})

	members := service.NewMembershipService(db, 3, nil)
	_, err := members.AddToShoppingCart(ctx, buyer.ID, recipeA.ID)
	require.NoError(t, err)
	_, err = members.AddToShoppingCart(ctx, buyer.ID, recipeB.ID)
	require.NoError(t, err)

	svc := service.NewShoppingListService(db, nil)
	lines, err := svc.Aggregate(ctx, buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, []service.ShoppingLine{
		{Name: "flour", Unit: "g", Amount: 150},
		{Name: "egg", Unit: "pcs", Amount: 2},
	}, lines)
	assert.Equal(t, "flour (g) - 150\negg (pcs) - 2\n", service.Render(lines))
}

func TestShoppingListAggregateEmpty(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "empty")

	lines, err := service.NewShoppingListService(db, nil).Aggregate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, "", service.Render(lines))
}

func TestShoppingListAggregateIsPerUser(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "author")
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	sugar := testhelpers.CreateIngredient(t, db, "sugar", "g")

	salty := testhelpers.CreateRecipe(t, db, author, "salty", testhelpers.Line{Ingredient: salt, Amount: 5})
	sweet := testhelpers.CreateRecipe(t, db, author, "sweet", testhelpers.Line{Ingredient: sugar, Amount: 30})

	require.NoError(t, db.Create(&models.ShoppingList{UserID: alice.ID, RecipeID: salty.ID}).Error)
	require.NoError(t, db.Create(&models.ShoppingList{UserID: bob.ID, RecipeID: sweet.ID}).Error)

	lines, err := service.NewShoppingListService(db, nil).Aggregate(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []service.ShoppingLine{{Name: "salt", Unit: "g", Amount: 5}}, lines)
}

func TestShoppingLineString(t *testing.T) {
	line := service.ShoppingLine{Name: "milk", Unit: "ml", Amount: 250}
	assert.Equal(t, "milk (ml) - 250", line.String())
}
