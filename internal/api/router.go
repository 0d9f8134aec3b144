package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chathaus/friends-api/internal/api/handler"
	"github.com/chathaus/friends-api/internal/api/middleware"
	"github.com/chathaus/friends-api/internal/core/service"
	mongostore "github.com/chathaus/friends-api/internal/infrastructure/db/mongo"
	redisstore "github.com/chathaus/friends-api/internal/infrastructure/db/redis"
)

// RouterConfig carries the secrets the router's middleware needs.
type RouterConfig struct {
	JWTSecret     string
	WebhookSecret string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg RouterConfig, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("friends"))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	requestRepo := mongostore.NewRequestRepository(db)
	friendshipRepo := mongostore.NewFriendshipRepository(db)
	pairLock := redisstore.NewPairLock(rdb)

	resolver := service.NewIdentityResolver(userRepo)
	requestSvc := service.NewRequestService(resolver, userRepo, requestRepo, friendshipRepo, pairLock, log)
	querySvc := service.NewQueryService(resolver, userRepo, requestRepo, log)
	userSvc := service.NewUserService(userRepo, log)

	requestHandler := handler.NewRequestHandler(requestSvc, querySvc)
	userHandler := handler.NewUserHandler(userSvc)

	// --- Request lifecycle routes (authenticated) ---
	v1 := e.Group("/v1", middleware.Auth(cfg.JWTSecret))
	v1.POST("/requests", requestHandler.Create)
	v1.GET("/requests", requestHandler.List)
	v1.GET("/requests/count", requestHandler.Count)
	v1.POST("/requests/:id/accept", requestHandler.Accept)
	v1.DELETE("/requests/:id", requestHandler.Deny)

	// --- Provisioning webhook (shared secret, no JWT) ---
	internal := e.Group("/internal", middleware.WebhookSecret(cfg.WebhookSecret))
	internal.POST("/users", userHandler.Provision)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
