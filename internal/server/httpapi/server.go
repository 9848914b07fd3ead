package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vikinglab/contentvault/internal/logging"
)

type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer assembles the router. Auth endpoints and uptime are public;
// everything under /api/files requires a Bearer token.
func NewServer(addr string, secretKey []byte, handler *Handler, logger logging.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handler.Register)
		r.Post("/auth/login", handler.Login)
		r.Get("/uptime", handler.Uptime)

		r.Route("/files", func(r chi.Router) {
			r.Use(Authenticator(secretKey))
			r.Post("/", handler.Upload)
			r.Get("/latest", handler.LatestUpload)
			r.Get("/export", handler.ExportCSV)
			r.Get("/{name}/content", handler.Download)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("module", "httpapi"),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info(shutdownCtx, "http server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
