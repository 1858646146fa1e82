package server

import (
	"fmt"
	"net/http"
	"time"

	"digitronix/internal/auth"
	"digitronix/internal/config"
	"digitronix/internal/database"
	"digitronix/internal/metrics"
	custommiddleware "digitronix/internal/middleware"
	"digitronix/internal/repository"
	"digitronix/internal/service"
	"digitronix/internal/storage"
	"digitronix/internal/transport"

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

// NewServer wires repositories, services and handlers into one router.
// Authorization middleware runs before any handler reads a body.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, blobs *storage.BlobStore) *Server {
	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Create router
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware(m))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(custommiddleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(custommiddleware.AuthMiddleware(tokens, custommiddleware.AuthConfig{
		CookieName: cfg.Cookie.Name,
		Exempt:     custommiddleware.DefaultExemptRoutes,
	}, logger))

	router.Get("/health", healthHandler(db))
	router.Method(http.MethodGet, "/metrics", m.Handler())
	router.Handle(storage.URLPrefix+"*", blobs.Handler())

	// Initialize repositories
	sqlDB := db.DB()
	userRepo := repository.NewUserRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	orderRepo := repository.NewOrderRepository(sqlDB)

	// Initialize services
	userService := service.NewUserService(userRepo, tokens, m)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, blobs)
	orderService := service.NewOrderService(orderRepo, service.NewCatalogLookup(productRepo, categoryRepo), m)

	authLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Redis.AuthRequestsPerWindow,
		Window:            cfg.Redis.AuthWindow,
		KeyPrefix:         "rate_limit:auth",
	}, logger)

	transport.RegisterRoutes(router, transport.Handlers{
		Users: transport.NewUserHandler(userService, transport.SessionCookie{
			Name:   cfg.Cookie.Name,
			Secure: cfg.Cookie.Secure,
			MaxAge: tokens.Expiry(),
		}, logger),
		Products:   transport.NewProductHandler(catalogService, logger),
		Categories: transport.NewCategoryHandler(catalogService, logger),
		Orders:     transport.NewOrderHandler(orderService, logger),
	}, custommiddleware.RequireAdmin(logger), authLimiter)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})

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

	return server
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
