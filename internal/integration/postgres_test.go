package integration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgres runs the storage rules against a real PostgreSQL server,
// including the SQL migrations shipped with the service.
func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	db := testhelpers.SetupPostgresDatabase(t)
	require.NoError(t, database.RunMigrations(db, "../../migrations", logger.Nop()))
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "author")
	buyer := testhelpers.CreateUser(t, db, "buyer")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")

	t.Run("migrations are recorded", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Table("migrations").Where("name = ?", "001_constraints.sql").Count(&count).Error)
		assert.EqualValues(t, 1, count)

		require.NoError(t, database.RunMigrations(db, "../../migrations", logger.Nop()))
	})

	t.Run("check constraints", func(t *testing.T) {
		recipe := testhelpers.CreateRecipe(t, db, author, "Checked")
		err := db.Create(&models.IngredientRecipe{RecipeID: recipe.ID, IngredientID: flour.ID, Amount: -1}).Error
		assert.Error(t, err)

		err = db.Create(&models.Follow{UserID: author.ID, AuthorID: author.ID}).Error
		assert.Error(t, err)

		err = db.Omit("Tags", "Ingredients").Create(&models.Recipe{AuthorID: author.ID, Name: "Zero", Image: "x", Text: "x", CookingTime: 0}).Error
		assert.Error(t, err)
	})

	t.Run("shopping list aggregation", func(t *testing.T) {
		a := testhelpers.CreateRecipe(t, db, author, "A",
			testhelpers.Line{Ingredient: flour, Amount: 100},
			testhelpers.Line{Ingredient: egg, Amount: 2})
		b := testhelpers.CreateRecipe(t, db, author, "B",
			testhelpers.Line{Ingredient: flour, Amount: 50})

		members := service.NewMembershipService(db, 3, nil)
		_, err := members.AddToShoppingCart(ctx, buyer.ID, a.ID)
		require.NoError(t, err)
		_, err = members.AddToShoppingCart(ctx, buyer.ID, b.ID)
		require.NoError(t, err)

		lines, err := service.NewShoppingListService(db, nil).Aggregate(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flour (g) - 150\negg (pcs) - 2\n", service.Render(lines))
	})

	t.Run("concurrent favorites keep one row", func(t *testing.T) {
		recipe := testhelpers.CreateRecipe(t, db, author, "Popular")
		members := service.NewMembershipService(db, 3, nil)

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = members.AddFavorite(ctx, buyer.ID, recipe.ID)
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, service.ErrConflict)
		}
		assert.Equal(t, 1, ok)

		var rows int64
		require.NoError(t, db.Model(&models.Favorite{}).Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
		assert.EqualValues(t, 1, rows)
	})

	t.Run("catalog search and import", func(t *testing.T) {
		catalog := service.NewCatalogService(db)
		found, err := catalog.ListIngredients(ctx, "fl")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, flour.ID, found[0].ID)

		added, err := catalog.ImportIngredients(ctx, []types.Ingredient{
			{Name: "Flour", MeasurementUnit: "kg"},
			{Name: "salt", MeasurementUnit: "g"},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, added)
	})

	t.Run("author with recipes cannot be deleted", func(t *testing.T) {
		assert.Error(t, db.Delete(&models.User{}, author.ID).Error)
	})
}
