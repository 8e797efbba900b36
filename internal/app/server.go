package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"scholarfeed/internal/feed"
)

// Config holds runtime settings for the server.
type Config struct {
	SweepInterval   time.Duration
	SearchTimeout   time.Duration
	ResultLimit     int
	UserAgent       string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		SweepInterval:   time.Hour,
		SearchTimeout:   30 * time.Second,
		ResultLimit:     100,
		UserAgent:       "Mozilla/5.0 (compatible; scholarfeed/1.0)",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server wires the feed cache, the assembler and the HTTP surface together.
type Server struct {
	cfg       *Config
	cache     *FeedCache
	assembler *feed.Assembler
	router    *mux.Router
	log       *zap.Logger
	shutdown  chan struct{}
}

// NewServer creates a Server with the provided config and search backend.
func NewServer(cfg *Config, searcher feed.Searcher, log *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:       cfg,
		cache:     NewFeedCache(),
		assembler: feed.NewAssembler(searcher, cfg.ResultLimit, log.Named("assembler")),
		router:    mux.NewRouter(),
		log:       log,
		shutdown:  make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.requestLogging, commonHeaders)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	// Every other path serves the feed; only the query string matters.
	s.router.PathPrefix("/").HandlerFunc(s.handleFeed)
}

// Handler exposes the HTTP handler tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully. The expiry sweeper runs alongside and stops with the server.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.sweepLoop()
	defer close(s.shutdown)

	h := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- h.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return h.Shutdown(shutdownCtx)
}

// sweepLoop clears the whole cache at a fixed interval. The clear is
// wholesale: individual entries carry no timestamps of their own.
func (s *Server) sweepLoop() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n := s.cache.Size()
			s.cache.Clear()
			s.log.Info("cleared feed cache", zap.Int("entries", n))
		case <-s.shutdown:
			return
		}
	}
}

// commonHeaders adds the permissive CORS header every response carries.
func commonHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// requestLogging tags each request with an id and logs it on completion.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// handleHealth returns JSON health information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":     "ok",
		"service":    "scholarfeed",
		"cache_size": s.cache.Size(),
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
