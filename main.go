package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appOrder "github.com/magelan-app/magelan/internal/application/order"
	"github.com/magelan-app/magelan/internal/domain/catalog"
	domorder "github.com/magelan-app/magelan/internal/domain/order"
	httptransport "github.com/magelan-app/magelan/internal/infrastructure/http"
	"github.com/magelan-app/magelan/internal/infrastructure/id"
	"github.com/magelan-app/magelan/internal/infrastructure/memory"
	"github.com/magelan-app/magelan/internal/infrastructure/memorylock"
	"github.com/magelan-app/magelan/internal/infrastructure/mysql"
	orderworker "github.com/magelan-app/magelan/internal/infrastructure/order/worker"
	"github.com/magelan-app/magelan/internal/infrastructure/outbox"
	"github.com/magelan-app/magelan/internal/infrastructure/paymenthttp"
	"github.com/magelan-app/magelan/internal/infrastructure/redislock"
	"github.com/magelan-app/magelan/internal/infrastructure/scheduler"
	"github.com/magelan-app/magelan/internal/pkg/config"
	"github.com/magelan-app/magelan/internal/pkg/logging"
	"github.com/magelan-app/magelan/internal/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.MustNewLogger(cfg.Server.Name, cfg.Server.Env, cfg.Log.Level)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		orderRepo   domorder.Repository
		productRepo catalog.Repository
	)
	if cfg.MySQL.Host != "" {
		db, err := mysql.Open(&cfg.MySQL)
		if err != nil {
			logger.Fatal("mysql_open_failed", zap.Error(err))
		}
		orderRepo = mysql.NewOrderRepository(db)
		productRepo = mysql.NewProductRepository(db)
		logger.Info("storage_ready", zap.String("backend", "mysql"))
	} else {
		orderRepo = memory.NewOrderRepository()
		productRepo = memory.NewProductRepository()
		logger.Info("storage_ready", zap.String("backend", "memory"))
	}

	var locks appOrder.Locker
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		locks = redislock.New(client)
		logger.Info("locker_ready", zap.String("backend", "redis"))
	} else {
		locks = memorylock.New()
		logger.Info("locker_ready", zap.String("backend", "memory"))
	}

	gateway := paymenthttp.New(cfg.Payment.BaseURL, cfg.Payment.Timeout)

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	orderWorker := orderworker.New(bus, logger)
	orderWorker.Start()

	orderService := appOrder.NewService(
		orderRepo,
		productRepo,
		gateway,
		id.NewUUIDGenerator(),
		locks,
		bus,
		m,
	)

	autoDelivery := scheduler.NewAutoDelivery(
		orderService,
		cfg.Scheduler.Interval,
		cfg.Scheduler.StaleAfter,
		logger,
	)

	handler := httptransport.NewHandler(orderService)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.LoggingMiddleware(logger)(handler.Router()))

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	autoDelivery.Start(ctx)
	defer autoDelivery.Stop()

	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}
