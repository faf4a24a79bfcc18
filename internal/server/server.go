// Package server exposes import sessions over HTTP. Uploads are parsed into
// sessions held in a TTL cache until they are confirmed or discarded.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/config"
	"github.com/sells-group/fleet-import/internal/ingest"
)

// Server routes import requests to an orchestrator.
type Server struct {
	orch     *ingest.Orchestrator
	cfg      config.ServerConfig
	sessions *cache.Cache
}

// New builds a Server. Sessions expire after cfg.SessionTTLMinutes.
func New(orch *ingest.Orchestrator, cfg config.ServerConfig) *Server {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Server{
		orch:     orch,
		cfg:      cfg,
		sessions: cache.New(ttl, 2*ttl),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/imports", func(r chi.Router) {
		r.With(s.limitBody).Post("/trips", s.previewTrips)
		r.With(s.limitBody).Post("/expenses", s.previewExpenses)
		r.Get("/{id}", s.getSession)
		r.Post("/{id}/confirm", s.confirm)
		r.Delete("/{id}", s.discard)
		r.Get("/{id}/report", s.report)
	})
	return r
}

// ListenAndServe serves on port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	limit := s.maxUploadBytes()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) << 20
}

func (s *Server) session(id string) (*ingest.Session, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*ingest.Session)
	return sess, ok
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}
