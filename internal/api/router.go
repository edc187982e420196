package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/volunteerhub/volunteer-backend/internal/api/handler"
	"github.com/volunteerhub/volunteer-backend/internal/api/middleware"
	"github.com/volunteerhub/volunteer-backend/internal/config"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
	"github.com/volunteerhub/volunteer-backend/internal/service"
	"github.com/volunteerhub/volunteer-backend/internal/tokens"
	"go.uber.org/zap"
)

type Router struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *pgxpool.Pool
	store    *repository.Store
	denylist *tokens.Denylist
	redis    redis.Cmdable
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, store *repository.Store, denylist *tokens.Denylist, redisClient redis.Cmdable) *Router {
	return &Router{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    store,
		denylist: denylist,
		redis:    redisClient,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Trace-ID"},
		AllowCredentials: true,
	}))

	// Services
	authSvc := service.NewAuthService(api.store, api.cfg.JWTSecret, api.cfg.JWTIssuer, api.cfg.JWTAudience, api.cfg.JWTExpiry)
	ledgerSvc := service.NewLedgerService(api.store).WithAudit(service.NewAuditService(api.store))
	importSvc := service.NewImportService(ledgerSvc, api.cfg.ImportMaxRows)
	activitySvc := service.NewActivityService(api.store)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, api.denylist)
	userHandler := handler.NewUserHandler(api.store.Queries())
	recordHandler := handler.NewRecordHandler(ledgerSvc, importSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
		r.Post("/api/admin/auth/login", authHandler.AdminLogin)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/users/me", userHandler.Me)

		// Admin-only ledger operations
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/api/admin/service-records", recordHandler.Create)
			r.Get("/api/admin/service-records", recordHandler.List)
			r.Put("/api/admin/service-records/{id}", recordHandler.Update)
			r.Delete("/api/admin/service-records/{id}", recordHandler.Delete)
			r.Post("/api/admin/service-records/import", recordHandler.Import)
			r.Get("/api/admin/service-records/template", recordHandler.Template)

			r.Post("/api/admin/activities", activityHandler.Create)
			r.Get("/api/admin/activities", activityHandler.List)
		})
	})

	return r
}
