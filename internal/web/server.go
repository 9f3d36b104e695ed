// Package web serves a completed assessment over HTTP.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/peekknuf/sage/internal/engine"
	"github.com/peekknuf/sage/internal/report"
)

// Server exposes one grade result: an HTML report at /, the raw result at
// /api/result, and a health probe at /healthz.
type Server struct {
	result *engine.GradeResult
	opts   report.Options
}

func NewServer(result *engine.GradeResult, opts report.Options) *Server {
	return &Server{result: result, opts: opts}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.handleReport)
	r.Get("/api/result", s.handleResult)
	r.Get("/healthz", s.handleHealth)
	return r
}

// ListenAndServe blocks serving the assessment on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	page, err := report.RenderHTML(s.result, s.opts)
	if err != nil {
		http.Error(w, "error rendering report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
