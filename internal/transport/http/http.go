package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/fasttech/internal/service/models/mirror"
	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/corray333/fasttech/internal/service/services/ordersvc"
	cancelorder "github.com/corray333/fasttech/internal/transport/http/v1/cancel_order"
	confirmpayment "github.com/corray333/fasttech/internal/transport/http/v1/confirm_payment"
	createorder "github.com/corray333/fasttech/internal/transport/http/v1/create_order"
	getorder "github.com/corray333/fasttech/internal/transport/http/v1/get_order"
	kitchenorders "github.com/corray333/fasttech/internal/transport/http/v1/kitchen_orders"
	listorders "github.com/corray333/fasttech/internal/transport/http/v1/list_orders"
	transitionorder "github.com/corray333/fasttech/internal/transport/http/v1/transition_order"
	"github.com/corray333/fasttech/pkg/http/middleware/trace"
	"github.com/corray333/fasttech/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

// orderService is the order-intake service layer.
type orderService interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (order.Order, error)
	GetOrder(ctx context.Context, id string) (order.Order, error)
	ListOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
	ConfirmOrder(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	StartPreparation(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	MarkReady(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	DispatchOrder(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	DeliverOrder(ctx context.Context, id string, in ordersvc.TransitionInput) (order.Order, error)
	CancelOrder(ctx context.Context, id string, in ordersvc.CancelInput) (order.Order, error)
	ConfirmPayment(ctx context.Context, id string) (order.Order, error)
}

// kitchenService is the fulfillment service layer.
type kitchenService interface {
	GetMirror(ctx context.Context, id string) (mirror.Order, error)
	ListMirrors(ctx context.Context, status mirror.Status, limit int) ([]mirror.Order, error)
}

// HTTPTransport represents the HTTP transport layer.
type HTTPTransport struct {
	server *http.Server
	router *chi.Mux
}

// NewHTTPTransport creates a new HTTPTransport listening on server.http.port.
func NewHTTPTransport() *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server: server,
		router: router,
	}
}

// Handler returns the router, for tests and embedding.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// Run starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (h *HTTPTransport) Run() error {
	slog.Info("Starting HTTP server", "address", h.server.Addr)

	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterOrderRoutes mounts the order-intake API under /api.
func (h *HTTPTransport) RegisterOrderRoutes(service orderService) {
	h.router.Route("/api/orders", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			createorder.CreateOrder(w, r, service)
		})
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			listorders.ListOrders(w, r, service)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			getorder.GetOrder(w, r, service)
		})
		for _, action := range transitionorder.Actions {
			r.Post("/{id}/"+string(action), func(w http.ResponseWriter, r *http.Request) {
				transitionorder.Transition(w, r, service, action)
			})
		}
		r.Post("/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
			cancelorder.CancelOrder(w, r, service)
		})
		r.Post("/{id}/payment", func(w http.ResponseWriter, r *http.Request) {
			confirmpayment.ConfirmPayment(w, r, service)
		})
	})
}

// RegisterKitchenRoutes mounts the read-only mirror API under /api/kitchen.
func (h *HTTPTransport) RegisterKitchenRoutes(service kitchenService) {
	h.router.Route("/api/kitchen/orders", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			kitchenorders.ListKitchenOrders(w, r, service)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			kitchenorders.GetKitchenOrder(w, r, service)
		})
	})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware(viper.GetString("service.name")))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
