package api

import (
	"cbrrates/internal/rate/handler"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(statusHandler *handler.Handler, metricsHandler http.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Get("/watermark", statusHandler.GetWatermark)
	router.Get("/dates/{date}", statusHandler.GetDateStatus)
	router.Method(http.MethodGet, "/metrics", metricsHandler)
	return router
}
