package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter собирает все маршруты: HTML страницу, формы и JSON API
func NewRouter(h *TaskHandler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	// Страница и формы
	r.Get("/", h.Index)
	r.Get("/static/app.css", h.Stylesheet)
	r.Post("/tasks", h.AddForm)
	r.Post("/tasks/clear-completed", h.ClearCompletedForm)
	r.Post("/tasks/{id}/toggle", h.ToggleForm)
	r.Post("/tasks/{id}/delete", h.DeleteForm)
	r.Get("/filter/{mode}", h.FilterForm)
	r.Post("/filter/{mode}", h.FilterForm)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", h.List)
		r.Post("/tasks", h.Create)
		r.Post("/tasks/clear-completed", h.ClearCompleted)
		r.Post("/tasks/{id}/toggle", h.Toggle)
		r.Delete("/tasks/{id}", h.Delete)
		r.Put("/filter", h.SetFilter)
	})

	return r
}

// RequestLogger пишет каждый запрос в zap
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
