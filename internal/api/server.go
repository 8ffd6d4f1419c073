// Package api exposes the diagram pipeline over HTTP.
//
// The API is the backend of the web editor: it computes layouts for
// posted models, manages editing sessions and persists saved documents.
// All responses are JSON except the export endpoint, which streams the
// artifact in its native content type.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fpbviz/fpbviz/pkg/config"
	"github.com/fpbviz/fpbviz/pkg/pipeline"
	"github.com/fpbviz/fpbviz/pkg/session"
	"github.com/fpbviz/fpbviz/pkg/store"
)

// Server wires the pipeline, session store and document store into an
// HTTP handler.
type Server struct {
	router   chi.Router
	runner   *pipeline.Runner
	sessions session.Store
	docs     store.Store
	logger   *log.Logger
	cfg      config.Config
}

// NewServer assembles the API server. Any of sessions/docs may be nil;
// the corresponding endpoints then answer 503.
func NewServer(cfg config.Config, runner *pipeline.Runner, sessions session.Store, docs store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:   runner,
		sessions: sessions,
		docs:     docs,
		logger:   logger,
		cfg:      cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/export/{format}", s.handleExport)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleSessionCreate)
			r.Get("/{id}", s.handleSessionGet)
			r.Put("/{id}", s.handleSessionUpdate)
			r.Delete("/{id}", s.handleSessionDelete)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleDocumentList)
			r.Get("/{id}", s.handleDocumentGet)
			r.Put("/{id}", s.handleDocumentPut)
			r.Delete("/{id}", s.handleDocumentDelete)
		})
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs one line per request with method, path, status and
// duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// cors answers preflight requests and stamps the allowed origins from
// the config.
func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.Server.CORSOrigins))
	for _, o := range s.cfg.Server.CORSOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
