package main

import (
	"net/http"
	"time"

	"dreamstate-ticketing/internal/auth"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/metrics"
	"dreamstate-ticketing/internal/order/order_api"
	"dreamstate-ticketing/internal/scores/scores_api"
	"dreamstate-ticketing/internal/tickets/ticket_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlers struct {
	Orders   *order_api.Handler
	Tickets  *ticket_api.Handler
	Scores   *scores_api.Handler
	Sessions *auth.SessionHandler
	Auth     *auth.SessionManager
	Logger   *logger.Logger
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

func newRouter(h handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Logger))
	r.Use(func(next http.Handler) http.Handler {
		return metrics.Observe(routePattern, next)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	// Target of the QR code URL.
	r.Get("/verify/{token}", h.Tickets.GetTicketInfo)

	r.Route("/api", func(r chi.Router) {
		h.Orders.RegisterRoutes(r)
		h.Tickets.RegisterRoutes(r)
		h.Scores.RegisterRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			h.Sessions.RegisterRoutes(r)
			// The service checks the credential itself.
			r.Post("/verify-ticket", h.Tickets.VerifyTicket)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(h.Auth))
				h.Orders.RegisterAdminRoutes(r)
				h.Tickets.RegisterAdminRoutes(r)
				h.Scores.RegisterAdminRoutes(r)
			})
		})
	})
	return r
}
