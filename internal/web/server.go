// Package web provides the HTTP API for the house-market server.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/evcraddock/house-market/internal/alert"
	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/bookmark"
	"github.com/evcraddock/house-market/internal/compare"
	"github.com/evcraddock/house-market/internal/logging"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/schema"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Deps are the services the API is served from. Passkeys may be nil when
// WebAuthn is not configured.
type Deps struct {
	Auth        *auth.Service
	Passkeys    *auth.Passkeys
	Properties  *property.Service
	Bookmarks   *bookmark.Repository
	Compare     *compare.Store
	Alerts      *alert.Service
	Inbox       *notify.Inbox
	Schemas     *schema.Validator
	CORSOrigins []string

	// TrustProxy applies X-Forwarded-For and X-Real-IP to the caller
	// address. Off, the rate limiter keys on the connection address.
	TrustProxy bool
}

// Server is the API HTTP server.
type Server struct {
	deps   Deps
	router chi.Router
}

// NewServer builds the router over deps.
func NewServer(deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Properties == nil || deps.Alerts == nil || deps.Bookmarks == nil || deps.Inbox == nil {
		return nil, errors.New("web: missing a required service")
	}
	if deps.Compare == nil {
		deps.Compare = compare.NewStore()
	}
	if deps.Schemas == nil {
		v, err := schema.New()
		if err != nil {
			return nil, fmt.Errorf("compiling schemas: %w", err)
		}
		deps.Schemas = v
	}
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}

	s := &Server{deps: deps, router: chi.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	if s.deps.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.deps.Auth.Identify)

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.Post("/signout", s.handleSignOut)
			r.Post("/reset", s.handleResetRequest)
			r.Post("/reset/confirm", s.handleResetConfirm)
			r.Post("/passkey/login/begin", s.handlePasskeyLoginBegin)
			r.Post("/passkey/login/finish", s.handlePasskeyLoginFinish)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Get("/profile", s.handleProfile)
				r.Patch("/profile", s.handleUpdateProfile)
				r.Post("/password", s.handleChangePassword)
				r.Post("/passkey/register/begin", s.handlePasskeyRegisterBegin)
				r.Post("/passkey/register/finish", s.handlePasskeyRegisterFinish)
			})
		})

		r.Get("/properties", s.handleListProperties)
		r.Get("/properties/{id}", s.handleGetProperty)
		r.Get("/map/markers", s.handleMarkers)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Post("/properties", s.handleCreateProperty)
			r.Put("/properties/{id}", s.handleUpdateProperty)
			r.Delete("/properties/{id}", s.handleDeleteProperty)
			r.Post("/properties/{id}/images", s.handleUploadImage)

			r.Get("/bookmarks", s.handleListBookmarks)
			r.Put("/bookmarks/{propertyID}", s.handleAddBookmark)
			r.Delete("/bookmarks/{propertyID}", s.handleRemoveBookmark)

			r.Get("/compare", s.handleGetComparison)
			r.Post("/compare/{propertyID}", s.handleAddToComparison)
			r.Delete("/compare/{propertyID}", s.handleRemoveFromComparison)
			r.Delete("/compare", s.handleClearComparison)

			r.Get("/alerts", s.handleListAlerts)
			r.Post("/alerts", s.handleCreateAlert)
			r.Get("/alerts/{id}", s.handleGetAlert)
			r.Delete("/alerts/{id}", s.handleDeleteAlert)
			r.Post("/alerts/{id}/toggle", s.handleToggleAlert)
			r.Post("/alerts/{id}/check", s.handleCheckAlert)
			r.Get("/alerts/{id}/matches", s.handleAlertMatches)

			r.Get("/notifications", s.handleListNotifications)
			r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", codeNotFound, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", codeInvalidArgument, http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
