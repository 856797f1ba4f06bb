package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"taskforge/api/internal/cache"
	"taskforge/api/internal/config"
	"taskforge/api/internal/middleware"
	"taskforge/api/internal/models"
	"taskforge/api/internal/repository"
	"taskforge/api/internal/security"
	"taskforge/api/internal/service"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	db             *pgxpool.Pool
	cache          *redis.Client
	tokens         *security.TokenService
	users          *repository.UserRepository
	authService    *service.AuthService
	profileService *service.ProfileService
	taskService    *service.TaskService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	tokens := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	statsCache := cache.NewStatsCache(redisClient, cfg.Cache.StatsTTL)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          redisClient,
		tokens:         tokens,
		users:          userRepo,
		authService:    service.NewAuthService(userRepo, tokens, log),
		profileService: service.NewProfileService(userRepo, log),
		taskService:    service.NewTaskService(taskRepo, statsCache, log),
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)

	authGuard := middleware.Auth(h.tokens, h.users)

	me := v1.Group("/auth")
	me.Use(authGuard)
	me.GET("/me", h.Me)

	users := v1.Group("/users")
	users.Use(authGuard)
	users.PUT("/profile", h.UpdateProfile)
	users.PUT("/password", h.UpdatePassword)

	tasks := v1.Group("/tasks")
	tasks.Use(authGuard)
	tasks.GET("", h.ListTasks)
	tasks.GET("/stats", h.TaskStats)
	tasks.POST("", h.CreateTask)
	tasks.GET("/:id", h.GetTask)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)

	admin := v1.Group("/admin")
	admin.Use(authGuard, middleware.RequireRoles(models.UserRoleAdmin))
	admin.GET("/users", h.AdminListUsers)
}

// respondError maps service and repository errors onto the HTTP taxonomy.
// Not-found and not-owner are deliberately the same 404; store failures are
// logged and surfaced as an opaque 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg})
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, repository.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
