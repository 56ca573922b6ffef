package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"example.com/progress/internal/api"
	"example.com/progress/internal/auth"
	"example.com/progress/internal/cache"
	"example.com/progress/internal/config"
	"example.com/progress/internal/consumer"
	"example.com/progress/internal/domain"
	"example.com/progress/internal/logging"
	"example.com/progress/internal/persistence/memory"
	persistence "example.com/progress/internal/persistence/postgres"
	httptransport "example.com/progress/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(logging.SetupParams{
		LogFileName:   cfg.LogFile,
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		source      domain.DataSource
		handlerOpts = []api.Option{api.WithLogger(logger.WithField("component", "api"))}
	)
	switch cfg.DataSource {
	case config.DataSourceMemory:
		logger.Warn("using in-memory data source; records are not persisted")
		source = memory.NewRepository()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		prometheus.MustRegister(pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": "progress"}))
		repo := persistence.NewRepository(pool)
		source = repo
		handlerOpts = append(handlerOpts, api.WithHealthChecker(repo))
	}

	var summaries cache.SummaryCache = cache.Noop{}
	if cfg.CacheTTL > 0 {
		summaries = cache.NewFreecache(cfg.CacheSizeMB, cfg.CacheTTL, logger)
	}

	service := domain.NewService(source,
		domain.WithCache(summaries),
		domain.WithLogger(logger.WithField("component", "domain")),
	)

	var wg sync.WaitGroup
	if cfg.ConsumerEnabled {
		handler := consumer.NewInvalidationHandler(summaries, logger.WithField("component", "invalidation"))
		for _, topic := range cfg.ConsumerTopics {
			reader := consumer.NewKafkaReader(consumer.ReaderConfig{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.ConsumerGroupID,
				Topic:   topic,
			})
			topicLogger := logger.WithFields(logrus.Fields{"component": "consumer", "topic": topic})
			proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(topicLogger))

			wg.Add(1)
			go func(r *kafka.Reader) {
				defer wg.Done()
				defer r.Close()

				topicLogger.WithField("group", cfg.ConsumerGroupID).Info("consumer started")
				if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					topicLogger.WithError(err).Error("consumer stopped with error")
				}
			}(reader)
		}
	}

	mux := http.NewServeMux()
	api.NewHandler(service, handlerOpts...).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, auth.PublicPaths, logger)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.CORS(cfg.AllowedOrigin)(httptransport.LogRequests(logger)(authMiddleware.Wrap(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithFields(logrus.Fields{"address": cfg.HTTPAddress, "data_source": cfg.DataSource}).Info("progress-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	logger.Info("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}

	wg.Wait()
}
