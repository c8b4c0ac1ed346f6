package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Rrock-k/interval-learn-bot/internal/api"
	"github.com/Rrock-k/interval-learn-bot/internal/platform/logger"
)

// setupRouter configures the operational HTTP surface: a health check plus
// the per-card trigger, grade, and history endpoints.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		api.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	cardHandler := api.NewCardHandler(app.loop, app.reviews, app.cardStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cards/{id}", func(r chi.Router) {
			r.Post("/trigger", cardHandler.TriggerCard)
			r.Post("/grade", cardHandler.SubmitGrade)
			r.Get("/history", cardHandler.CardHistory)
		})
	})

	return r
}

// requestLogger stores a request-scoped logger on the context so the service
// layer logs with the request id attached.
func (app *application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := app.logger
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			log = log.With("request_id", reqID)
		}
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), log)))
	})
}
