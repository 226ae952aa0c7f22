package http

import (
	"net/http"

	"learning-friend-service/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the REST API and the websocket endpoint.
func NewRouter(quiz *app.QuizService, progress *app.ProgressService) http.Handler {
	api := NewHandler(quiz, progress)
	ws := NewWSHandler(quiz)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/subjects", api.ListSubjects)

		r.Post("/sessions", api.StartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", api.GetSession)
			r.Delete("/", api.AbandonSession)
			r.Post("/select", api.SelectOption)
			r.Post("/submit", api.SubmitAnswer)
			r.Post("/advance", api.Advance)
		})

		r.Post("/sync-progress", api.SyncProgress)
		r.Get("/progress", api.Progress)
	})
	return r
}
