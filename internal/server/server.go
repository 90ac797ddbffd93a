package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/pkg/linkaudit"
	"github.com/cognicore/linkaudit/pkg/linkaudit/config"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/metrics"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server exposes a session over HTTP
type Server struct {
	session  *linkaudit.Session
	settings config.Settings
	sources  []string
	filtered bool
	runs     store.Store
	log      *zap.Logger
	metrics  *metrics.Collectors
	started  time.Time

	mux    *http.ServeMux
	server *http.Server
}

// Config contains server configuration
type Config struct {
	Addr        string
	Settings    config.Settings
	Sources     []string // filtered source pages
	Filtered    bool
	Runs        store.Store // optional
	Logger      *zap.Logger
	Metrics     *metrics.Collectors
	CORSEnabled bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	d := config.Default()
	return Config{
		Addr:        d.Server.Addr,
		Settings:    d,
		CORSEnabled: true,
	}
}

// NewServer creates a server over session
func NewServer(cfg Config, session *linkaudit.Session) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = cfg.Settings.Server.Addr
	}
	s := &Server{
		session:  session,
		settings: cfg.Settings,
		sources:  cfg.Sources,
		filtered: cfg.Filtered,
		runs:     cfg.Runs,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()

	handler := s.middleware(s.mux)
	if cfg.CORSEnabled {
		handler = cors(handler)
	}
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", s.metrics.Handler())
	s.mux.HandleFunc("/api/opportunities", s.handleOpportunities)
	s.mux.HandleFunc("/api/similarities", s.handleSimilarities)
	s.mux.HandleFunc("/api/incoming", s.handleIncoming)
	s.mux.HandleFunc("/api/detail", s.handleDetail)
	s.mux.HandleFunc("/api/themes", s.handleThemes)
	s.mux.HandleFunc("/api/broken", s.handleBroken)
	s.mux.HandleFunc("/api/anchors", s.handleAnchors)
	s.mux.HandleFunc("/api/structure", s.handleStructure)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.HandleFunc("/api/runs/", s.handleRun) // /api/runs/{id} and /api/runs/{id}/opportunities
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	s.log.Info("starting api server", zap.String("addr", s.server.Addr))
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// middleware tags each request with an id, logs it and records metrics
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if strings.HasPrefix(route, "/api/runs/") {
			route = "/api/runs/"
		}
		s.metrics.ObserveRequest(route, strconv.Itoa(rec.status), elapsed)
		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			s.log.Info("request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", elapsed))
		}
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErr maps the error taxonomy to HTTP status codes.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput), errors.Is(err, internalerr.ErrInvalidFilter):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, internalerr.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}
