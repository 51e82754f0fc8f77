package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mealwise/mealwise/internal/config"
	"github.com/mealwise/mealwise/internal/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg     *config.Config
	http    *http.Server
	svc     *Services
	limiter *middleware.RateLimiter
}

func New(cfg *config.Config, svc *Services) *Server {
	router, limiter := NewRouter(cfg, svc)

	return &Server{
		cfg:     cfg,
		svc:     svc,
		limiter: limiter,
		http: &http.Server{
			Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Chat requests may run up to their own timeout plus encoding.
			WriteTimeout: time.Duration(cfg.AgentTimeout)*time.Second + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// releases data source connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Str("api_prefix", s.cfg.APIPrefix).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	defer s.limiter.Close()
	defer s.svc.Close()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
