package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qanzmarket/qanz-backend/api/controllers"
	"github.com/qanzmarket/qanz-backend/api/middleware"
	cashsvc "github.com/qanzmarket/qanz-backend/internal/cash"
	codesvc "github.com/qanzmarket/qanz-backend/internal/codes"
	deliverysvc "github.com/qanzmarket/qanz-backend/internal/deliveries"
	ordersvc "github.com/qanzmarket/qanz-backend/internal/orders"
	productsvc "github.com/qanzmarket/qanz-backend/internal/products"
	rewardsvc "github.com/qanzmarket/qanz-backend/internal/rewards"
	settlementsvc "github.com/qanzmarket/qanz-backend/internal/settlements"
	walletsvc "github.com/qanzmarket/qanz-backend/internal/wallet"
	"github.com/qanzmarket/qanz-backend/pkg/config"
	"github.com/qanzmarket/qanz-backend/pkg/db"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
	"github.com/qanzmarket/qanz-backend/pkg/metrics"
	"github.com/qanzmarket/qanz-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	productService productsvc.Service,
	orderService ordersvc.Service,
	deliveryService deliverysvc.Service,
	settlementService settlementsvc.Service,
	cashService cashsvc.Service,
	walletService walletsvc.Service,
	codeService codesvc.Service,
	rewardService rewardsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(orderService, logg))
			r.Get("/", controllers.ListMyOrders(orderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
			r.Post("/{orderId}/status", controllers.UpdateOrderStatus(orderService, logg))
		})

		r.Route("/v1/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletStatement(walletService, logg))
			r.Post("/topup-codes/redeem", controllers.RedeemTopupCode(codeService, logg))
		})

		r.Get("/v1/rewards", controllers.ListMyRewards(rewardService, logg))
		r.Get("/v1/settlements", controllers.ListMySettlements(settlementService, logg))

		r.Route("/v1/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole("seller", logg))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.SellerListProducts(productService, logg))
				r.Post("/", controllers.SellerCreateProduct(productService, logg))
				r.Patch("/{productId}", controllers.SellerUpdateProduct(productService, logg))
			})
		})

		r.Route("/v1/driver", func(r chi.Router) {
			r.Use(middleware.RequireRole("driver", logg))
			r.Route("/deliveries", func(r chi.Router) {
				r.Get("/available", controllers.ListAvailableDeliveries(deliveryService, logg))
				r.Get("/", controllers.ListMyDeliveries(deliveryService, logg))
				r.Post("/{deliveryId}/claim", controllers.ClaimDelivery(deliveryService, logg))
				r.Post("/{deliveryId}/status", controllers.UpdateDeliveryStatus(deliveryService, logg))
			})
			r.Post("/cash/{collectionId}/collect", controllers.DriverReportCollected(cashService, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Route("/settlements", func(r chi.Router) {
				r.Get("/pending", controllers.AdminListPendingSettlements(settlementService, logg))
				r.Post("/{settlementId}/paid", controllers.AdminMarkSettlementPaid(settlementService, logg))
			})
			r.Route("/cash", func(r chi.Router) {
				r.Get("/", controllers.AdminListCashCollections(cashService, logg))
				r.Post("/{collectionId}/confirm", controllers.AdminConfirmCashCollection(cashService, logg))
			})
			r.Route("/topup-codes", func(r chi.Router) {
				r.Get("/", controllers.AdminListTopupCodes(codeService, logg))
				r.Post("/", controllers.AdminGenerateTopupCodes(codeService, logg))
				r.Post("/{codeId}/void", controllers.AdminVoidTopupCode(codeService, logg))
			})
			r.Route("/reward-rules", func(r chi.Router) {
				r.Get("/", controllers.AdminListRewardRules(rewardService, logg))
				r.Put("/", controllers.AdminUpsertRewardRule(rewardService, logg))
			})
			r.Post("/wallet/entries", controllers.AdminAppendWalletEntry(walletService, logg))
		})
	})

	return r
}
