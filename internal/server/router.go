// Package server assembles the HTTP router of the ShopIT backend
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopit/backend/internal/auth/middleware"
	"github.com/shopit/backend/internal/auth/password"
	"github.com/shopit/backend/internal/auth/reset"
	"github.com/shopit/backend/internal/auth/service"
	"github.com/shopit/backend/internal/config"
	"github.com/shopit/backend/internal/directory"
	"github.com/shopit/backend/internal/handlers"
	loggerMiddleware "github.com/shopit/backend/internal/logger/middleware"
	"github.com/shopit/backend/internal/mail"
	"github.com/shopit/backend/internal/metrics"
	"github.com/shopit/backend/internal/middlewares"
	"github.com/shopit/backend/internal/models"
	"github.com/shopit/backend/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// APIPrefix is the root of all JSON routes
const APIPrefix = "/api/v1"

// Deps are the external collaborators of the router
type Deps struct {
	Config   *config.Config
	Store    directory.Store
	Sender   mail.Sender
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter wires the credential stack on top of deps and returns the root handler
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	log := deps.Logger

	hasher := password.NewHasher(cfg.Password.BcryptCost)
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.Expiry)
	resetCodec := reset.NewCodec(cfg.Password.ResetTokenExpiry)
	users := directory.New(deps.Store, hasher, log)

	authService := services.NewAuthService(users, hasher, tokenGenerator, resetCodec, deps.Sender, log, cfg.FrontendURL)
	profileService := services.NewProfileService(users, hasher, tokenGenerator, log)
	adminService := services.NewAdminService(users, log)

	cookie := handlers.CookieConfig{TTL: cfg.JWT.Expiry, Secure: cfg.JWT.CookieSecure}
	authHandler := handlers.NewAuthHandler(authService, cookie, log)
	profileHandler := handlers.NewProfileHandler(profileService, cookie, log)
	adminHandler := handlers.NewAdminHandler(adminService, log)

	authMiddleware := middleware.AuthMiddleware(tokenGenerator, users, log)
	adminMiddleware := middleware.RoleMiddleware(models.RoleAdmin)

	r := chi.NewRouter()

	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(log))
	r.Use(middlewares.RecoveryMiddleware(log))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.Server.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	}
	r.Use(middlewares.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route(APIPrefix, func(r chi.Router) {
		authHandler.RegisterRoutes(r, authMiddleware)
		profileHandler.RegisterRoutes(r, authMiddleware)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			adminHandler.RegisterRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middlewares.WriteJSONError(w, http.StatusNotFound, "Route not found")
	})

	return r
}
