package web

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/emotion-recognizer/internal/web/handlers"
	"github.com/kozaktomas/emotion-recognizer/internal/web/middleware"
	"github.com/kozaktomas/emotion-recognizer/internal/web/static"
)

func (s *Server) setupRoutes() {
	predictHandler := handlers.NewPredictHandler(s.config, s.classifier, s.sessionManager)
	sessionsHandler := handlers.NewSessionsHandler(s.config, s.sessionManager)
	configHandler := handlers.NewConfigHandler(s.config, s.classifier)
	predictionsHandler := handlers.NewPredictionsHandler()

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Get("/api/status", handlers.Status)
	s.router.Post("/api/predict", predictHandler.Predict)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)

		// Smoothing sessions
		r.Post("/sessions", sessionsHandler.Create)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(s.sessionManager))
			r.Get("/sessions/{id}", sessionsHandler.Get)
			r.Post("/sessions/{id}/reset", sessionsHandler.Reset)
			r.Delete("/sessions/{id}", sessionsHandler.Delete)
		})

		// Prediction log
		r.Get("/predictions", predictionsHandler.List)
		r.Get("/predictions/labels", predictionsHandler.Labels)
	})

	// Serve static files for frontend (SPA)
	s.router.With(middleware.SecurityHeaders()).Get("/*", s.serveSPA)
}

// serveSPA serves the embedded demo page. Unknown paths fall back to index.html.
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	p := r.URL.Path
	if p == "/" {
		p = "/index.html"
	}

	f, err := fs.Open(p)
	if err != nil {
		p = "/index.html"
		if f, err = fs.Open(p); err != nil {
			http.NotFound(w, r)
			return
		}
	}
	defer f.Close()

	if stat, err := f.Stat(); err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if strings.HasSuffix(p, ".html") {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
