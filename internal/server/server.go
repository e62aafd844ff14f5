// Package server exposes the ledger over JSON/HTTP for the web front end
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/forca/trading/internal/service"
)

// Server routes trading requests to the ledger
type Server struct {
	router  *chi.Mux
	server  *http.Server
	service *service.Service
}

// NewServer is constructor
func NewServer(addr string, allowedOrigins []string, srv *service.Service) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: srv,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/quotes/{symbol}", s.getQuote)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/account", s.createAccount)
			r.Get("/account", s.getAccount)
			r.Delete("/account", s.deleteAccount)
			r.Post("/positions", s.openPosition)
			r.Post("/positions/{id}/close", s.closePosition)
			r.Get("/positions", s.listPositions)
			r.Get("/holdings", s.getHoldings)
		})
	})
}

// Router returns the handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving requests until Shutdown
func (s *Server) Start() error {
	log.Infof("http server listening on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Infof("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
