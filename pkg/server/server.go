// Package server exposes the ingestion pipeline and the article cache over a
// small REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"feedbook/pkg/db"
	"feedbook/pkg/domain"
	"feedbook/pkg/proc"
	"feedbook/pkg/render"
)

// Store is the article cache surface the server queries
type Store interface {
	GetArticlesByDateAndSource(ctx context.Context, date, sourceURL string, limit int) ([]db.StoredArticle, error)
	GetArticle(ctx context.Context, id int64) (db.StoredArticle, error)
	DeleteArticle(ctx context.Context, id int64) error
	GetSources(ctx context.Context) ([]domain.Source, error)
	DeleteSource(ctx context.Context, id int64) error
}

// Pipeline runs feed ingestion on demand
type Pipeline interface {
	Ingest(ctx context.Context, url string, limit int) (*proc.Result, error)
}

// Renderer writes article collections into output documents
type Renderer interface {
	Render(format render.Format, articles []domain.Article, target string) (string, error)
}

// Config holds server settings
type Config struct {
	Listen    string
	Timeout   time.Duration
	OutputDir string // where render requests write their documents
	Version   string
	Debug     bool
}

// Server represents the HTTP server instance
type Server struct {
	cfg      Config
	store    Store
	pipeline Pipeline
	renderer Renderer

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a server over the given collaborators
func New(cfg Config, store Store, pipeline Pipeline, renderer Renderer) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		renderer: renderer,
		router:   routegroup.New(http.NewServeMux()),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	lgr.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("feedbook", "feedbook", s.cfg.Version))
	s.router.Use(rest.Ping)
	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}
	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("POST /feeds", s.ingestHandler)
		r.HandleFunc("GET /articles", s.articlesHandler)
		r.HandleFunc("GET /articles/{id}", s.articleHandler)
		r.HandleFunc("DELETE /articles/{id}", s.deleteArticleHandler)
		r.HandleFunc("GET /sources", s.sourcesHandler)
		r.HandleFunc("DELETE /sources/{id}", s.deleteSourceHandler)
		r.HandleFunc("POST /render", s.renderHandler)
	})
}

// renderJSON sends a JSON response with the given status code
func renderJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		lgr.Printf("[WARN] failed to encode response: %v", err)
	}
}

// sendError sends a JSON error response and logs the cause
func sendError(w http.ResponseWriter, code int, err error, msg string) {
	lgr.Printf("[WARN] %s: %v", msg, err)
	renderJSON(w, code, map[string]string{"error": msg, "details": err.Error()})
}
