package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mgaraycochea/tradeflow-backend/api/controllers"
	purchaseordercontrollers "github.com/mgaraycochea/tradeflow-backend/api/controllers/purchaseorders"
	salesordercontrollers "github.com/mgaraycochea/tradeflow-backend/api/controllers/salesorders"
	"github.com/mgaraycochea/tradeflow-backend/api/middleware"
	"github.com/mgaraycochea/tradeflow-backend/internal/purchaseorders"
	"github.com/mgaraycochea/tradeflow-backend/internal/salesorders"
	"github.com/mgaraycochea/tradeflow-backend/pkg/config"
	"github.com/mgaraycochea/tradeflow-backend/pkg/db"
	"github.com/mgaraycochea/tradeflow-backend/pkg/logger"
	"github.com/mgaraycochea/tradeflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	purchaseOrderService purchaseorders.Service,
	salesOrderService salesorders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		if cfg.Flags.IdempotencyChecks {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", purchaseordercontrollers.List(purchaseOrderService, logg))
			r.Post("/", purchaseordercontrollers.Create(purchaseOrderService, logg))
			r.Route("/{poID}", func(r chi.Router) {
				r.Get("/", purchaseordercontrollers.Detail(purchaseOrderService, logg))
				r.Get("/history", purchaseordercontrollers.History(purchaseOrderService, logg))
				r.Post("/submit", purchaseordercontrollers.Submit(purchaseOrderService, logg))
				r.Post("/validate-stock", purchaseordercontrollers.ValidateStock(purchaseOrderService, logg))
				r.Post("/lines/{lineID}/approve", purchaseordercontrollers.DecideLine(purchaseOrderService, logg))
				r.Post("/lines/bulk-approve", purchaseordercontrollers.BulkDecide(purchaseOrderService, logg))
				r.Post("/approve-complete", purchaseordercontrollers.Finalize(purchaseOrderService, logg))
				r.Post("/reject", purchaseordercontrollers.Reject(purchaseOrderService, logg))
				r.Post("/cancel", purchaseordercontrollers.Cancel(purchaseOrderService, logg))
				r.Post("/receive", purchaseordercontrollers.Receive(purchaseOrderService, logg))
			})
		})

		r.Route("/sales-orders/{orderID}", func(r chi.Router) {
			r.Get("/", salesordercontrollers.Detail(salesOrderService, logg))
			r.Post("/status", salesordercontrollers.UpdateStatus(salesOrderService, logg))
		})
	})

	return r
}
