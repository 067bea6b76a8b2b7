package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 10 * time.Second

	// maxBodyBytes caps request bodies; drafts and AI prompts are short text.
	maxBodyBytes = 64 << 10
)

// UserCounter reports how many users are registered locally.
type UserCounter interface {
	CountUsers() (int, error)
}

// Server exposes the marketplace and the AI helpers over HTTP.
type Server struct {
	catalog *marketplace.Catalog
	advisor llm.Advisor
	drafts  *listing.DraftService
	users   UserCounter
}

// NewServer creates a Server. users may be nil.
func NewServer(catalog *marketplace.Catalog, advisor llm.Advisor, drafts *listing.DraftService, users UserCounter) *Server {
	return &Server{
		catalog: catalog,
		advisor: advisor,
		drafts:  drafts,
		users:   users,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", s.ListMaterials)
			r.Post("/", s.PublishMaterial)
			r.Get("/categories", s.ListCategories)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetMaterial)
				r.Post("/claim", s.ClaimMaterial)
			})
		})

		r.Get("/stats", s.GetStats)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/category", s.SuggestCategory)
			r.Post("/impact", s.EstimateImpact)
		})

		r.Post("/drafts/analyze", s.AnalyzeDraft)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("stopping http api")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
