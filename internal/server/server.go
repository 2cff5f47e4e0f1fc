package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/headline-goat/ratechart/internal/metrics"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/rs/zerolog"
)

// Config holds the server's startup options.
type Config struct {
	Port int
	// TokenFile receives the dashboard token so other commands can print
	// the dashboard link. Empty skips writing it.
	TokenFile string
	// Token fixes the dashboard token; empty generates a random one.
	Token  string
	Logger zerolog.Logger
}

type Server struct {
	store     store.Store
	port      int
	token     string
	tokenFile string
	router    *mux.Router
	logger    zerolog.Logger
	metrics   *metrics.Collector
	pages     *pages
	startTime time.Time
}

func New(s store.Store, cfg Config) (*Server, error) {
	token := cfg.Token
	if token == "" {
		token = generateToken()
	}

	p, err := loadPages()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		store:     s,
		port:      cfg.Port,
		token:     token,
		tokenFile: cfg.TokenFile,
		router:    mux.NewRouter(),
		logger:    cfg.Logger,
		metrics:   metrics.NewCollector(),
		pages:     p,
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv, nil
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(s.instrument)

	// Public endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/assets/{file}", s.handleAsset).Methods(http.MethodGet)
	r.HandleFunc("/embed.js", s.handleEmbedJS).Methods(http.MethodGet)
	r.HandleFunc("/embed/{name}/chart.{format:svg|png}", s.handleEmbedChart).Methods(http.MethodGet)

	// Dashboard endpoints (protected)
	r.Handle("/dashboard", s.protect(s.handleDashboard)).Methods(http.MethodGet)
	r.Handle("/dashboard/datasets/{name}", s.protect(s.handleDataset)).Methods(http.MethodGet)
	r.Handle("/dashboard/datasets/{name}/chart.{format:svg|png}", s.protect(s.handleChart)).Methods(http.MethodGet)
	r.Handle("/dashboard/datasets/{name}/thumb.png", s.protect(s.handleThumbnail)).Methods(http.MethodGet)
	r.Handle("/dashboard/datasets/{name}/export.{format:csv|json|xlsx}", s.protect(s.handleExport)).Methods(http.MethodGet)

	api := "/dashboard/api/datasets"
	r.Handle(api, s.protect(s.handleListAPI)).Methods(http.MethodGet)
	r.Handle(api+"/{name}", s.protect(s.handleDeleteAPI)).Methods(http.MethodDelete)
	r.Handle(api+"/{name}/data", s.protect(s.handleDataAPI)).Methods(http.MethodGet)
	r.Handle(api+"/{name}/data", s.protect(s.handleImportAPI)).Methods(http.MethodPost, http.MethodPut)
	r.Handle(api+"/{name}/series", s.protect(s.handleSeriesAPI)).Methods(http.MethodGet)
	r.Handle(api+"/{name}/tooltip", s.protect(s.handleTooltipAPI)).Methods(http.MethodGet)
	r.Handle(api+"/{name}/summary", s.protect(s.handleSummaryAPI)).Methods(http.MethodGet)
}

func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.authMiddleware(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	return s.StartWithOptions(ctx, true)
}

func (s *Server) StartWithOptions(ctx context.Context, printMessages bool) error {
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn().Err(err).Str("path", s.tokenFile).Msg("failed to write token file")
		}
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if printMessages {
		fmt.Println()
		fmt.Printf("ratechart running on http://localhost:%d\n", s.port)
		fmt.Printf("Dashboard: http://localhost:%d/dashboard?token=%s\n", s.port, s.token)
		fmt.Println()
		fmt.Println("Press Ctrl+C to stop")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

type pages struct {
	layout *template.Template
	list   *template.Template
	detail *template.Template
	css    template.CSS
}
