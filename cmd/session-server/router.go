package main

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"padlink/internal/config"
	"padlink/internal/gateway"
	"padlink/internal/session"
	"padlink/internal/ws"
)

func newRouter(cfg config.ServerConfig, reg *session.Registry, wsServer *ws.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(reg))
	r.Get("/ws", wsServer.HandleWS)
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware(cfg.BodyCaptureMax))

		r.Get("/session/state", gateway.StateHandler(reg))
		r.Get("/session/devices", gateway.DevicesHandler(reg))
		r.Get("/session/events", gateway.EventsHandler(reg))
		r.Get("/session/config", configHandler(reg))

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/admin/hero/{device_id}", heroGrantHandler(reg))
			r.Post("/admin/reset", resetHandler(reg))
		})
	})

	return r
}
