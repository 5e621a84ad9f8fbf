package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes  *service.RecipeService
	members  *service.MembershipService
	shopping *service.ShoppingListService
	pageSize int
	log      *logger.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, members *service.MembershipService, shopping *service.ShoppingListService, pageSize int, log *logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		members:  members,
		shopping: shopping,
		pageSize: pageSize,
		log:      log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, mw Middlewares) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/", mw.OptionalAuth, h.ListRecipes)
		recipes.POST("/", mw.Auth, mw.WriteLimit, h.CreateRecipe)
		recipes.GET("/download_shopping_cart/", mw.Auth, h.DownloadShoppingCart)
		recipes.GET("/:id/", mw.OptionalAuth, h.GetRecipe)
		recipes.PATCH("/:id/", mw.Auth, mw.WriteLimit, h.UpdateRecipe)
		recipes.PUT("/:id/", mw.Auth, mw.WriteLimit, h.UpdateRecipe)
		recipes.DELETE("/:id/", mw.Auth, h.DeleteRecipe)

		recipes.GET("/:id/favorite/", mw.Auth, h.AddFavorite)
		recipes.POST("/:id/favorite/", mw.Auth, h.AddFavorite)
		recipes.DELETE("/:id/favorite/", mw.Auth, h.RemoveFavorite)

		recipes.GET("/:id/shopping_cart/", mw.Auth, h.AddToShoppingCart)
		recipes.POST("/:id/shopping_cart/", mw.Auth, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart/", mw.Auth, h.RemoveFromShoppingCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, limit := pageParams(c, h.pageSize)
	filter := types.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
		Page:             page,
		Limit:            limit,
	}
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "author must be a user id", "field": "author"})
			return
		}
		filter.AuthorID = uint(author)
	}

	recipes, total, err := h.recipes.ListRecipes(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, recipes, total, page, limit))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, middleware.UserID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addToList(c, h.members.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeFromList(c, h.members.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addToList(c, h.members.AddToShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeFromList(c, h.members.RemoveFromShoppingCart)
}

type addFunc func(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error)
type removeFunc func(ctx context.Context, userID, recipeID uint) error

func (h *RecipeHandler) addToList(c *gin.Context, add addFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	short, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeFromList(c *gin.Context, remove removeFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the caller's aggregated shopping list as a text file
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	lines, err := h.shopping.Aggregate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ShoppingList.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.Render(lines)))
}
