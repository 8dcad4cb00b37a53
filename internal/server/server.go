// Package server exposes templates, form validation and stored documents
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
	"github.com/goliatone/go-invoiceform/pkg/storage"
)

// PasswordHeader carries the document password on document requests.
const PasswordHeader = "X-Document-Password"

// EncryptedHeader reports on HEAD whether a stored document is encrypted.
const EncryptedHeader = "X-Document-Encrypted"

const shutdownTimeout = 5 * time.Second

// Option customises a Server.
type Option func(*Server)

// WithStore mounts the /documents routes.
func WithStore(store storage.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRules replaces the validation rules.
func WithRules(rules ...form.Rule) Option {
	return func(s *Server) { s.rules = rules }
}

// WithPreviewRenderer replaces the embedded HTML preview renderer.
func WithPreviewRenderer(renderer render.Renderer) Option {
	return func(s *Server) { s.preview = renderer }
}

// WithThemeSelector sets the selector used to theme previews.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(s *Server) { s.themes = selector }
}

// WithClock overrides time.Now for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTheme sets the theme and variant previews use unless the request names
// its own.
func WithTheme(name, variant string) Option {
	return func(s *Server) {
		s.themeName = name
		s.themeVariant = variant
	}
}

// Server serves the HTTP API.
type Server struct {
	templates    *cellmap.Registry
	store        storage.Store
	logger       *slog.Logger
	rules        []form.Rule
	preview      render.Renderer
	themes       theme.ThemeSelector
	themeName    string
	themeVariant string
	now          func() time.Time
	router       chi.Router
}

// New builds a server over templates.
func New(templates *cellmap.Registry, options ...Option) (*Server, error) {
	if templates == nil {
		return nil, errors.New("server: template registry is required")
	}
	s := &Server{templates: templates, logger: slog.Default(), now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	if s.preview == nil {
		preview, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("server: preview renderer: %w", err)
		}
		s.preview = preview
	}
	if s.themes == nil {
		selector, err := html.NewSelector(html.DefaultManifest())
		if err != nil {
			return nil, fmt.Errorf("server: themes: %w", err)
		}
		s.themes = selector
	}

	s.router = s.routes()
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(html.AssetsFS())))

	r.Get("/templates", s.handleListTemplates)
	r.Route("/templates/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetTemplate)
		r.Get("/schema", s.handleTemplateSchema)
		r.Route("/footers/{footer}", func(r chi.Router) {
			r.Get("/sections", s.handleSections)
			r.Get("/schema", s.handleFooterSchema)
			r.Get("/preview", s.handlePreview)
			r.Post("/preview", s.handlePreviewSubmit)
			r.Post("/validate", s.handleValidate)
			r.Post("/cells", s.handleCells)
		})
	})

	if s.store != nil {
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Head("/", s.handleHeadDocument)
				r.Put("/", s.handlePutDocument)
				r.Delete("/", s.handleDeleteDocument)
			})
		})
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
