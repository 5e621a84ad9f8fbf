package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"gorm.io/gorm"
)

// Middlewares are the per-route guards handlers attach to their endpoints
type Middlewares struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	WriteLimit   gin.HandlerFunc
}

// Services bundles everything the HTTP layer needs
type Services struct {
	DB         *gorm.DB
	Auth       *service.AuthService
	Users      *service.UserService
	Recipes    *service.RecipeService
	Members    *service.MembershipService
	Shopping   *service.ShoppingListService
	Catalog    *service.CatalogService
	PageSize   int
	Middleware Middlewares
}

// RegisterRoutes mounts the health check and the /api resource tree
func RegisterRoutes(router *gin.Engine, svc Services, log *logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	router.GET("/health", healthHandler(svc.DB))

	mw := svc.Middleware
	if mw.WriteLimit == nil {
		mw.WriteLimit = func(c *gin.Context) { c.Next() }
	}

	v1 := router.Group("/api")
	{
		NewUserHandler(svc.Auth, svc.Users, svc.Members, svc.PageSize, log).RegisterRoutes(v1, mw)
		NewRecipeHandler(svc.Recipes, svc.Members, svc.Shopping, svc.PageSize, log).RegisterRoutes(v1, mw)
		NewCatalogHandler(svc.Catalog, log).RegisterRoutes(v1)
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.HealthCheck(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
