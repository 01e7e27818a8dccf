// Package app wires the stub catalog API.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pearguacamole/VroomVault/internal/config"
	"github.com/pearguacamole/VroomVault/internal/platform/web"
	"github.com/pearguacamole/VroomVault/internal/stubserver/auth"
	"github.com/pearguacamole/VroomVault/internal/stubserver/handler"
	"github.com/pearguacamole/VroomVault/internal/stubserver/store"
)

type Dependencies struct {
	Store  store.CatalogStore
	Issuer *auth.Issuer
	Logger *slog.Logger
}

// SetupDependencies builds an empty in-memory catalog.
func SetupDependencies(cfg *config.StubConfig, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		Store:  store.NewInMemoryStore(),
		Issuer: auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Logger: logger,
	}
}

// SetupHttpHandler initializes the routes of the stub catalog API.
// Used by E2E tests to serve the API from an httptest.Server.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	cApi := handler.NewAPI(deps.Store, deps.Issuer, deps.Logger)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(deps.Logger))
	mux.Use(web.Recoverer(deps.Logger))

	mux.Post("/signup", cApi.Signup)
	mux.Post("/token", cApi.Token)
	mux.Get("/images/{name}", cApi.Image)

	mux.Route("/cars", func(r chi.Router) {
		r.Use(cApi.Authenticate)
		r.Get("/", cApi.ListCars)
		r.Post("/", cApi.CreateCar)
		r.Get("/search", cApi.SearchCars)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cApi.FindCar)
			r.Put("/", cApi.UpdateCar)
			r.Delete("/", cApi.DeleteCar)
		})
	})

	mux.Get("/healthz", cApi.HealthCheck)

	return mux
}

// SetupHttpServer creates and configures the HTTP server of the stub catalog API.
func SetupHttpServer(deps *Dependencies, cfg *config.StubConfig) *http.Server {
	mux := SetupHttpHandler(deps)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:           mux,
		ReadTimeout:       cfg.HTTPServer.Timeout.Read,
		WriteTimeout:      cfg.HTTPServer.Timeout.Write,
		IdleTimeout:       cfg.HTTPServer.Timeout.Idle,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.HTTPServer.MaxHeaderBytes,
	}
	return server
}
