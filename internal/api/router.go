// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package api provides the HTTP surface over the party engine using the
// Chi router. Handlers are thin: decode, validate, dispatch to the
// engine, encode the APIResponse envelope.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tablemix/internal/metrics"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit int

	// CORSOrigins is the allowed origin list. Empty allows none.
	CORSOrigins []string
}

// NewRouter builds the full route tree.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/api/v1/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Use(requestMetrics)

		r.Route("/parties", func(r chi.Router) {
			r.Post("/", h.CreateParty)
			r.Get("/", h.ListParties)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetParty)
				r.Post("/schedule", h.ScheduleParty)
				r.Get("/rounds/{n}/context", h.RoundContext)
				r.Post("/signals", h.RecordSignal)
				r.Post("/complete", h.CompleteParty)
				r.Get("/pairings", h.Pairings)
				r.Get("/reports/{profileId}", h.GenerateReport)
			})
		})

		r.Get("/reports/{id}", h.GetReport)

		r.Route("/profiles", func(r chi.Router) {
			r.Put("/{id}", h.RegisterProfile)
			r.Get("/{id}", h.GetProfile)
		})
	})

	return r
}

// requestMetrics records request counts and latency per route pattern.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		metrics.RecordAPIRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(started))
	})
}
