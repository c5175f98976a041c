package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"buppha/internal/cache"
	"buppha/internal/config"
	"buppha/internal/database"
	"buppha/internal/i18n"
	custommiddleware "buppha/internal/middleware"
	"buppha/internal/repository"
	"buppha/internal/service"
	"buppha/internal/token"
	"buppha/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// Services bundles the business layer so callers outside the HTTP stack
// (startup seeding, tests) can reach it.
type Services struct {
	Auth    service.AuthService
	OAuth   service.OAuthService
	Catalog service.CatalogService
	Cart    service.CartService
	Order   service.OrderService
	Stats   service.StatsService
	Tokens  *token.Manager
}

// NewServices wires repositories and services over db and redisClient
func NewServices(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Services {
	userRepo := repository.NewUserRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())
	statsRepo := repository.NewStatsRepository(db.DB())

	pricing := service.ShippingPolicy{
		FreeShippingThreshold: cfg.Shop.FreeShippingThreshold,
		FlatFee:               cfg.Shop.FlatShippingFee,
	}
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := service.NewAuthService(userRepo, tokens, logger)

	var google service.IdentityProvider
	if cfg.OAuth.GoogleEnabled() {
		google = service.NewGoogleProvider(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
	} else {
		logger.Warn("Google sign-in disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	return &Services{
		Auth:    authService,
		OAuth:   service.NewOAuthService(google, cache.NewRedisCache(redisClient, "buppha"), authService, logger),
		Catalog: service.NewCatalogService(productRepo, categoryRepo, logger),
		Cart:    service.NewCartService(cartRepo, productRepo, pricing),
		Order:   service.NewOrderService(orderRepo, pricing, logger),
		Stats:   service.NewStatsService(statsRepo, cfg.Shop.LowStockThreshold),
		Tokens:  tokens,
	}
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, services *Services) *Server {
	localizer := i18n.New(cfg.Shop.DefaultLanguage)
	secure := cfg.Server.IsProduction()

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(localizer, logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.Server.IsProduction()))
	router.Use(custommiddleware.OptionalAuth(services.Tokens, logger))

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	// Health check endpoint
	router.Get("/health", server.health)

	respond := transport.NewResponder(localizer, logger)
	limiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "buppha:ratelimit",
	}, localizer, logger)
	cartSession := custommiddleware.CartSession(secure)
	requireAdmin := custommiddleware.RequireAdmin(localizer, logger)

	// Register routes
	transport.NewAuthHandler(services.Auth, services.OAuth, respond, cfg.JWT.Expiry(), secure, logger).
		RegisterRoutes(router, limiter)
	transport.NewCatalogHandler(services.Catalog, respond, logger).
		RegisterRoutes(router)
	transport.NewCartHandler(services.Cart, respond, logger).
		RegisterRoutes(router, cartSession)
	transport.NewOrderHandler(services.Order, respond, logger).
		RegisterRoutes(router, cartSession, limiter)
	transport.NewAdminHandler(services.Catalog, services.Order, services.Stats, respond, logger).
		RegisterRoutes(router, requireAdmin)

	return server
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	dbHealth := s.db.Health(r.Context())
	body["database"] = dbHealth
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}

	// Redis only backs rate limiting and OAuth state, so it degrades without failing
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		body["redis"] = "down"
		body["status"] = "degraded"
	} else {
		body["redis"] = "up"
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
