package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/Bhoomirana25/Student-Institute-smart-card/docs"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/handlers"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/metrics"
	appmw "github.com/Bhoomirana25/Student-Institute-smart-card/internal/middleware"
)

func NewRoutes(h *handlers.Handler, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.RequestLogger(log))
	r.Use(appmw.Metrics)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/student", h.Student)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/card", h.Card)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.Wallet)
			r.Post("/pay", h.Pay)
			r.Post("/topup", h.TopUp)
			r.Get("/statement", h.Statement)
		})

		r.Get("/vault/documents", h.Documents)
		r.Post("/vault/documents", h.Upload)

		r.Get("/assistant/messages", h.Transcript)
		r.Post("/assistant/messages", h.Ask)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
