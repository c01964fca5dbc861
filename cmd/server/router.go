package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opsgrove/helpdesk-api/internal/api"
	apiMiddleware "github.com/opsgrove/helpdesk-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	templateHandler := api.NewTemplateHandler(
		app.templateStore,
		app.generationLog,
		app.materializer,
		app.evaluator,
		app.logger,
	)
	ticketHandler := api.NewTicketHandler(app.ticketStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/templates", func(r chi.Router) {
			r.Post("/", templateHandler.CreateTemplate)
			r.Get("/", templateHandler.ListTemplates)
			r.Get("/{id}", templateHandler.GetTemplate)
			r.Put("/{id}", templateHandler.UpdateTemplate)
			r.Delete("/{id}", templateHandler.DeleteTemplate)
			r.Post("/{id}/generate", templateHandler.GenerateNow)
			r.Get("/{id}/generations", templateHandler.ListGenerations)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", ticketHandler.CreateTicket)
			r.Get("/", ticketHandler.ListTickets)
			r.Get("/{id}", ticketHandler.GetTicket)
			r.Patch("/{id}/status", ticketHandler.UpdateTicketStatus)
			r.Delete("/{id}", ticketHandler.DeleteTicket)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
