package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts, token auth and subscriptions
type UserHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	members  *service.MembershipService
	pageSize int
	log      *logger.Logger
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, members *service.MembershipService, pageSize int, log *logger.Logger) *UserHandler {
	return &UserHandler{
		auth:     auth,
		users:    users,
		members:  members,
		pageSize: pageSize,
		log:      log,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, mw Middlewares) {
	token := router.Group("/auth/token")
	{
		token.POST("/login/", h.Login)
		token.POST("/logout/", mw.Auth, h.Logout)
	}

	users := router.Group("/users")
	{
		users.GET("/", mw.OptionalAuth, h.ListUsers)
		users.POST("/", h.Register)
		users.GET("/me/", mw.Auth, h.Me)
		users.POST("/set_password/", mw.Auth, h.SetPassword)
		users.GET("/subscriptions/", mw.Auth, h.Subscriptions)
		users.GET("/:id/", mw.OptionalAuth, h.GetUser)

		users.GET("/:id/subscribe/", mw.Auth, h.Subscribe)
		users.POST("/:id/subscribe/", mw.Auth, h.Subscribe)
		users.DELETE("/:id/subscribe/", mw.Auth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	author, err := h.users.GetUser(c.Request.Context(), user.ID, 0)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, author)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

func (h *UserHandler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c, h.pageSize)
	users, total, err := h.users.ListUsers(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, users, total, page, limit))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.users.GetUser(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.auth.SetPassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists the authors the caller follows. ?recipes_limit= caps
// the embedded recipe previews.
func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, limit := pageParams(c, h.pageSize)

	var recipesLimit *int
	if raw := c.Query("recipes_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipes_limit must be a non-negative integer", "field": "recipes_limit"})
			return
		}
		recipesLimit = &n
	}

	subs, total, err := h.members.Subscriptions(c.Request.Context(), middleware.UserID(c), page, limit, recipesLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, subs, total, page, limit))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	sub, err := h.members.Follow(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.members.Unfollow(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
