package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taomall/marketplace-backend/api/controllers"
	"github.com/taomall/marketplace-backend/api/middleware"
	"github.com/taomall/marketplace-backend/internal/cart"
	"github.com/taomall/marketplace-backend/internal/drafts"
	"github.com/taomall/marketplace-backend/internal/orders"
	"github.com/taomall/marketplace-backend/internal/payments"
	product "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/internal/vouchers"
	"github.com/taomall/marketplace-backend/pkg/config"
	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/metrics"
	"github.com/taomall/marketplace-backend/pkg/redis"
)

// Deps is everything the HTTP surface needs. Nil pingers are skipped by the
// readiness probe.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Products product.Service
	Drafts   drafts.Service
	Vouchers vouchers.Service
	Cart     cart.Service
	Orders   orders.Service
	Payments payments.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": d.DB,
			"redis":    d.Redis,
		}))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(d.Idempotency, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(d.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(d.Products, logg))
		r.Post("/products/{productId}/resolve", controllers.ProductResolveModel(d.Products, logg))
		r.Get("/payments/vnpay/return", controllers.PaymentReturn(d.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleSeller))

				r.Post("/products", controllers.SellerCreateProduct(d.Products, logg))
				r.Get("/products/{productId}", controllers.SellerGetProduct(d.Products, logg))
				r.Put("/products/{productId}", controllers.SellerUpdateProduct(d.Products, logg))
				r.Delete("/products/{productId}", controllers.SellerDeleteProduct(d.Products, logg))

				r.Post("/drafts", controllers.DraftStart(d.Drafts, logg))
				r.Route("/drafts/{draftId}", func(r chi.Router) {
					r.Get("/", controllers.DraftGet(d.Drafts, logg))
					r.Delete("/", controllers.DraftDiscard(d.Drafts, logg))
					r.Post("/tiers", controllers.DraftAddTier(d.Drafts, logg))
					r.Delete("/tiers/{tier}", controllers.DraftRemoveTier(d.Drafts, logg))
					r.Delete("/tiers/{tier}/options/{option}", controllers.DraftRemoveOption(d.Drafts, logg))
					r.Put("/images/options/{option}", controllers.DraftSetOptionImages(d.Drafts, logg))
					r.Put("/images/description", controllers.DraftSetDescriptionImages(d.Drafts, logg))
					r.Post("/models/generate", controllers.DraftGenerateModels(d.Drafts, logg))
					r.Patch("/models", controllers.DraftUpdateModel(d.Drafts, logg))
					r.Post("/submit", controllers.DraftSubmit(d.Drafts, logg))
				})

				r.Post("/vouchers", controllers.VoucherCreate(d.Vouchers, logg))
				r.Get("/vouchers", controllers.VoucherList(d.Vouchers, logg))
				r.Delete("/vouchers/{voucherId}", controllers.VoucherDeactivate(d.Vouchers, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Post("/vouchers", controllers.VoucherCreate(d.Vouchers, logg))
				r.Get("/vouchers", controllers.VoucherList(d.Vouchers, logg))
				r.Delete("/vouchers/{voucherId}", controllers.VoucherDeactivate(d.Vouchers, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleBuyer))

				r.Post("/vouchers/apply", controllers.VoucherApply(d.Vouchers, logg))

				r.Get("/cart/items", controllers.CartList(d.Cart, logg))
				r.With(idempotent).Post("/cart/items", controllers.CartAddItem(d.Cart, logg))
				r.Patch("/cart/items/{itemId}", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/cart/items/{itemId}", controllers.CartRemoveItem(d.Cart, logg))

				r.With(idempotent).Post("/orders", controllers.OrderCreate(d.Orders, logg))
				r.Get("/orders", controllers.OrderList(d.Orders, logg))
				r.Get("/orders/{orderId}", controllers.OrderDetail(d.Orders, logg))

				r.With(idempotent).Post("/payments/vnpay/url", controllers.PaymentCreateURL(d.Payments, logg))
			})
		})
	})

	return r
}
