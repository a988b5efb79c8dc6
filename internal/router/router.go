package router

import (
	"context"
	"net/http"

	"github.com/comandas-pos/pos/internal/config"
	"github.com/comandas-pos/pos/internal/database"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/handler"
	mw "github.com/comandas-pos/pos/internal/middleware"
	"github.com/comandas-pos/pos/internal/service"
	"github.com/comandas-pos/pos/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// New creates a Chi router with all application routes wired up.
// rdb may be nil; events is the hub itself or a Redis relay in front of it.
func New(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, hub *ws.Hub, events handler.Broadcaster) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	checks := map[string]handler.Check{
		"database": pool.Ping,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	r.Method(http.MethodGet, "/healthcheck/", handler.NewHealthHandler(checks))

	queries := database.New(pool)
	orderService := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	paymentService := service.NewPaymentService(pool, queries, func(db database.DBTX) service.PaymentStore {
		return database.New(db)
	})

	orderHandler := handler.NewOrderHandler(orderService, paymentService, events, cfg.TicketBusinessName)
	paymentHandler := handler.NewPaymentHandler(paymentService, orderService, events)
	methodHandler := handler.NewPaymentMethodHandler(queries)

	r.Route("/api/pedidos", func(r chi.Router) {
		// WebSocket route (handles auth internally via query param)
		r.Get("/ws/notifications/", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, cfg.JWTSecret, w, r)
		})

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			orderHandler.RegisterRoutes(r)

			r.Route("/cobros", func(r chi.Router) {
				r.Route("/metodos", func(r chi.Router) {
					methodHandler.RegisterRoutes(r)
					r.Group(func(r chi.Router) {
						r.Use(mw.RequireRole(enum.UserRoleAdmin))
						methodHandler.RegisterAdminRoutes(r)
					})
				})
				paymentHandler.RegisterRoutes(r)
			})
		})
	})

	log.Debug().Msg("router initialized")
	return r
}
