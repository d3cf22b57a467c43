package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/taomall/marketplace-backend/api/routes"
	"github.com/taomall/marketplace-backend/internal/cart"
	"github.com/taomall/marketplace-backend/internal/drafts"
	"github.com/taomall/marketplace-backend/internal/orders"
	"github.com/taomall/marketplace-backend/internal/payments"
	product "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/internal/vouchers"
	"github.com/taomall/marketplace-backend/pkg/config"
	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/idempotency"
	"github.com/taomall/marketplace-backend/pkg/instance"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/metrics"
	"github.com/taomall/marketplace-backend/pkg/migrate"
	"github.com/taomall/marketplace-backend/pkg/outbox"
	"github.com/taomall/marketplace-backend/pkg/redis"
	"github.com/taomall/marketplace-backend/pkg/vnpay"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, reg)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"vnpay":    cfg.VNPay.Enabled(),
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg *prometheus.Registry) (routes.Deps, error) {
	conn := dbClient.DB()
	domainMetrics := metrics.NewDomainMetrics(reg)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	productRepo := product.NewRepository(conn)
	productSvc, err := product.NewService(productRepo, dbClient, emitter, product.NewListCache(redisClient, cfg.Cache.ProductListTTL, logg))
	if err != nil {
		return routes.Deps{}, fmt.Errorf("product service: %w", err)
	}
	draftSvc, err := drafts.NewService(drafts.NewStore(redisClient, cfg.Cache.DraftTTL), productSvc, logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("draft service: %w", err)
	}
	voucherSvc, err := vouchers.NewService(vouchers.NewRepository(conn), domainMetrics)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("voucher service: %w", err)
	}
	cartSvc, err := cart.NewService(cart.NewRepository(conn), productRepo)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("cart service: %w", err)
	}

	orderRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(orders.Deps{
		Repo:     orderRepo,
		Tx:       dbClient,
		Cart:     cartSvc,
		Products: productRepo,
		Vouchers: voucherSvc,
		Outbox:   emitter,
		Metrics:  domainMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("order service: %w", err)
	}

	guard, err := idempotency.NewManager(redisClient, cfg.Redis.IdempotencyTTL)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("idempotency manager: %w", err)
	}
	paymentDeps := payments.Deps{
		Orders:      orderRepo,
		Tx:          dbClient,
		Idempotency: guard,
		Outbox:      emitter,
		Logger:      logg,
	}
	if cfg.VNPay.Enabled() {
		gateway, err := vnpay.New(cfg.VNPay)
		if err != nil {
			return routes.Deps{}, fmt.Errorf("vnpay client: %w", err)
		}
		paymentDeps.Gateway = gateway
	} else {
		logg.Warn(context.Background(), "vnpay is not configured, payment endpoints will fail")
	}
	paymentSvc, err := payments.NewService(paymentDeps)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("payment service: %w", err)
	}

	return routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Products:    productSvc,
		Drafts:      draftSvc,
		Vouchers:    voucherSvc,
		Cart:        cartSvc,
		Orders:      orderSvc,
		Payments:    paymentSvc,
	}, nil
}
