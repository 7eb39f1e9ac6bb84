package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/vladislavdragonenkov/cafe-oms/internal/api/http"
	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/cafe-oms/internal/health"
	"github.com/vladislavdragonenkov/cafe-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/coordinator"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/outbox"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/report"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/tables"
	"github.com/vladislavdragonenkov/cafe-oms/internal/storage/memory"
	"github.com/vladislavdragonenkov/cafe-oms/internal/storage/postgres"
	"github.com/vladislavdragonenkov/cafe-oms/internal/version"
)

// storageSet — набор хранилищ, выбранный по конфигурации.
type storageSet struct {
	orders   domain.OrderRepository
	tables   domain.TableRepository
	outbox   domain.OutboxRepository
	products httpapi.ProductStore
	provider domain.ProductProvider
	store    *postgres.Store
}

// Run собирает сервис и держит его до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if storage.store != nil {
		defer storage.store.Close()
	}

	zone, err := time.LoadLocation(cfg.ReportZone)
	if err != nil {
		logger.WithError(err).WithField("zone", cfg.ReportZone).Warn("unknown report zone, falling back to UTC")
		zone = time.UTC
	}

	var reportCache *report.Cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		reportCache = report.NewCache(redisClient, cfg.ReportCacheTTL, logger.WithField("component", "report-cache"))
		logger.WithField("addr", cfg.RedisAddr).Info("report cache enabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Kafka опционален: без брокера события остаются в outbox.
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			producer = p
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka producer")
			}
		}()
	}

	orders := coordinator.New(
		storage.orders, storage.tables, storage.provider, storage.outbox,
		logger.WithField("component", "coordinator"),
	)
	tablesSvc := tables.New(storage.tables, storage.outbox, logger.WithField("component", "tables"))
	reports := report.New(storage.orders, zone, reportCache, logger.WithField("component", "report"))

	// Без Kafka события уходят в лог, чтобы outbox не накапливался.
	workerOpts := []outbox.Option{outbox.WithLogger(logger.WithField("component", "outbox-worker"))}
	var publisher domain.OutboxPublisher
	if producer != nil {
		// Пустой топик — маршрутизация по типу агрегата (заказы и столы).
		publisher = kafka.NewOutboxPublisher(producer, "")
		workerOpts = append(workerOpts, outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)))
	} else {
		publisher = outbox.NewLogPublisher(logger.WithField("component", "outbox-log-publisher"))
	}
	worker := outbox.NewWorker(storage.outbox, publisher, workerOpts...)
	go worker.Run(ctx)

	handler := httpapi.NewHandler(orders, tablesSvc, reports, storage.products, logger.WithField("component", "http-api"))
	apiSrv := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: httpapi.NewRouter(handler),
	}

	healthHandler := healthcheck.NewHandler(version.String())
	if storage.store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return storage.store.Ping(checkCtx)
		}))
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.APIAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// initStorage выбирает хранилище: PostgreSQL при заданном DSN, иначе память.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (storageSet, error) {
	if cfg.PostgresDSN == "" {
		logger.Info("using in-memory storage")
		catalog := memory.NewProductCatalog()
		return storageSet{
			orders:   memory.NewOrderRepository(),
			tables:   memory.NewTableRepository(),
			outbox:   memory.NewOutboxRepository(),
			products: catalog,
			provider: catalog,
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return storageSet{}, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return storageSet{}, err
	}
	logger.Info("using postgres storage")

	products := postgres.NewProductRepository(store)
	return storageSet{
		orders:   postgres.NewOrderRepository(store),
		tables:   postgres.NewTableRepository(store),
		outbox:   postgres.NewOutboxRepository(store),
		products: products,
		provider: products,
		store:    store,
	}, nil
}

// startMetricsServer поднимает отдельный HTTP-сервер для метрик и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
