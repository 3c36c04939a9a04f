// Command api runs the purchase-graph recommendation service: it ingests
// completed purchases into the graph store and serves co-purchase
// recommendations over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/config"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/internal/server"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/graph"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/kafka"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/processor"
	appredis "github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/redis"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/routes/health"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/startup"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}

	ctx := context.Background()

	tracerShutdown, err := initTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing, continuing without it")
	}

	graphClient, err := graph.NewClient(graph.Config{
		Host:                  cfg.GraphDBHost,
		Port:                  cfg.GraphDBPort,
		Username:              cfg.GraphDBUser,
		Password:              cfg.GraphDBPassword,
		MaxConnectionPoolSize: cfg.GraphDBMaxConnectionPoolSize,
		ConnectTimeout:        cfg.GraphDBConnectTimeout,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create graph client")
		os.Exit(1)
	}

	purchaseService := graph.NewPurchaseService(graphClient, logger)

	var redisClient *appredis.Client
	var recCache graph.RecommendationCache
	if cfg.RedisEnabled {
		redisClient, err = appredis.NewClient(appredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Redis")
			os.Exit(1)
		}
		recCache = appredis.NewRecommendationCache(redisClient, cfg.RecCacheTTL)
	}

	recommendationService := graph.NewRecommendationService(graphClient, recCache, logger)

	controller := startup.NewController(logger, cfg.StartupMaxAttempts)

	controller.Add(&dependency{
		name: "graph",
		start: func(ctx context.Context) error {
			verifyCtx, cancel := context.WithTimeout(ctx, cfg.GraphDBConnectTimeout)
			defer cancel()
			if err := graphClient.Verify(verifyCtx); err != nil {
				return err
			}
			return graphClient.EnsureSchema(verifyCtx)
		},
		stop: func(ctx context.Context) error {
			return graphClient.Close(ctx)
		},
	})

	if redisClient != nil {
		controller.Add(&dependency{
			name: "redis",
			stop: func(ctx context.Context) error {
				return redisClient.Close()
			},
		})
	}

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		dlq := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaDLQTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)

		proc := processor.NewProcessor(logger, purchaseService, dlq)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, proc.HandleMessage)

		controller.Add(&dependency{
			name:      "kafka-consumer",
			dependsOn: []string{"graph"},
			start:     consumer.Start,
			stop: func(ctx context.Context) error {
				if err := consumer.Stop(); err != nil {
					return err
				}
				return dlq.Close()
			},
		})
	}

	var cacheCheck health.Pinger
	if redisClient != nil {
		cacheCheck = redisClient
	}
	checker := health.NewChecker(graphPinger{graphClient}, cacheCheck, version)

	httpServer := server.New(server.Options{
		Config:      cfg,
		Logger:      logger,
		Recorder:    purchaseService,
		Recommender: recommendationService,
		Health:      checker,
	})

	controller.Add(&dependency{
		name:      "http-server",
		dependsOn: []string{"graph"},
		start:     httpServer.Start,
		stop:      httpServer.Shutdown,
	})

	if err := controller.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = controller.Stop(stopCtx)
		os.Exit(1)
	}

	checker.SetReady(true)
	logger.WithField("app", cfg.AppName).Info("Service is ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := controller.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
	}
	if tracerShutdown != nil {
		_ = tracerShutdown(stopCtx)
	}
}

// graphPinger adapts the graph client's liveness check to the health checker
type graphPinger struct {
	client *graph.Client
}

func (p graphPinger) Ping(ctx context.Context) error {
	return p.client.Verify(ctx)
}

func newLogger(cfg config.Config) (ectologger.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

// initTracing wires the OTLP exporter and module tracer. Returns a shutdown
// func, or nil when tracing is disabled.
func initTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	if !cfg.TracingEnabled {
		return nil, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.TracingOTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return provider.Shutdown, nil
}
