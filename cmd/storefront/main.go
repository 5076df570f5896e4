package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	sagasqlite "github.com/jcmexdev/lvs-storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/cache"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/config"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/sqlitedb"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/adapters/memory"
	redisadapter "github.com/jcmexdev/lvs-storefront/internal/storefront/adapters/redis"
	sqliteadapter "github.com/jcmexdev/lvs-storefront/internal/storefront/adapters/sqlite"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/app"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/cart"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/infra/httpx"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := telemetry.InitLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.OTelEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, cfg.OTelServiceName, cfg.OTelEndpoint, cfg.Environment)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := sqlitedb.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := sqliteadapter.Open(ctx, db)
	if err != nil {
		return err
	}
	sagaLog, err := sagasqlite.New(ctx, db)
	if err != nil {
		return err
	}

	carts, guests, closeSessions, err := sessionStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	quoter := pricing.NewQuoter(pricing.NewCalculator(cfg.MemberDiscountRate), store.Settings, store.Orders, logger)
	sessions := cart.NewSessions(cart.Deps{
		Catalog: store.Catalog,
		Pricer:  quoter,
		Store:   carts,
		Logger:  logger,
		Now:     time.Now,
		Listener: func(ctx context.Context, v cart.View) {
			logger.DebugContext(ctx, "cart updated",
				"session_id", v.SessionID, "count", v.Count, "total", v.Total.StringFixed(2))
		},
	})
	orders := app.NewOrderService(store.Orders, quoter, logger)

	handler := httpx.NewHandler(httpx.Deps{
		Catalog:  store.Catalog,
		Settings: store.Settings,
		Guests:   guests,
		Quoter:   quoter,
		Sessions: sessions,
		Orders:   orders,
		Checkout: app.NewCheckout(orders, guests, sagaLog, time.Now, logger),
		Logger:   logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.UnaryServerInterceptor(logger)),
		grpc.ChainStreamInterceptor(interceptors.StreamServerInterceptor(logger)),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(cfg.OTelServiceName, healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("storefront HTTP running", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("storefront gRPC health running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	if cfg.CartTTL > 0 {
		// idle carts leave memory on the same schedule the store expires them
		g.Go(func() error { return sessions.Janitor(gctx, cfg.CartTTL, min(cfg.CartTTL, time.Minute)) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})
	return g.Wait()
}

// sessionStores picks Redis when REDIS_ADDR is set, in-memory otherwise.
func sessionStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.CartStore, ports.GuestMemory, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, carts are kept in memory")
		return memory.NewCartStore(), memory.NewGuestMemory(), func() {}, nil
	}
	client, err := cache.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	c := cache.NewRedisCache(client, "storefront")
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	return redisadapter.NewCartStore(c, cfg.CartTTL), redisadapter.NewGuestMemory(c, cfg.CartTTL), closeFn, nil
}
