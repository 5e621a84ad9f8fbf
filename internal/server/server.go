package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Server represents the HTTP server and the resources it owns
type Server struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *gorm.DB
	redis  *redis.Client
	router *gin.Engine
	http   *http.Server
}

// New wires the application on top of an open database. Redis is optional:
// without it logout only succeeds on the client side and recipe writes are
// not rate limited.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, log: log, db: db}

	redisClient, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn("Redis unavailable, token revocation and rate limiting disabled", "error", err)
	} else {
		s.redis = redisClient
	}

	images, err := s.imageStore(ctx)
	if err != nil {
		return nil, err
	}

	var revoker service.TokenRevoker
	var limiter *middleware.RateLimiter
	if s.redis != nil {
		revoker = service.NewRedisTokenRevoker(s.redis)
		limiter = middleware.NewRecipeWriteRateLimiter(s.redis, cfg.RateLimitWindow, cfg.RateLimitMax, log)
	}

	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, revoker, log)
	svc := api.Services{
		DB:       db,
		Auth:     auth,
		Users:    service.NewUserService(db),
		Recipes:  service.NewRecipeService(db, images, log),
		Members:  service.NewMembershipService(db, cfg.RecipesLimit, log),
		Shopping: service.NewShoppingListService(db, log),
		Catalog:  service.NewCatalogService(db),
		PageSize: cfg.PageSize,
		Middleware: api.Middlewares{
			Auth:         middleware.AuthMiddleware(auth),
			OptionalAuth: middleware.OptionalAuthMiddleware(auth),
			WriteLimit:   limiter.RateLimitMiddleware(),
		},
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSOrigins),
	)
	if cfg.S3Bucket == "" && strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(mediaRoute(cfg.MediaURL), cfg.MediaDir)
	}
	api.RegisterRoutes(router, svc, log)

	s.router = router
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) imageStore(ctx context.Context) (service.ImageStore, error) {
	s3Config, err := config.NewS3Config(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3: %w", err)
	}
	if s3Config != nil {
		s.log.Info("Storing recipe images in S3", "bucket", s3Config.BucketName)
		return service.NewS3ImageStore(s3Config, s.log), nil
	}
	s.log.Info("Storing recipe images on disk", "dir", s.cfg.MediaDir)
	return service.NewLocalImageStore(s.cfg.MediaDir, s.cfg.MediaURL), nil
}

// Router exposes the HTTP handler, mostly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the Redis and database connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			s.log.Warn("Failed to close Redis client", "error", cerr)
		}
	}
	if sqlDB, derr := s.db.DB(); derr == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			s.log.Warn("Failed to close database", "error", cerr)
		}
	}
	return err
}

func mediaRoute(mediaURL string) string {
	route := "/" + strings.Trim(mediaURL, "/")
	if route == "/" {
		return "/media"
	}
	return route
}
