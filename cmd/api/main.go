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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/api"
	"github.com/bookreel/trailer-service/internal/bootstrap"
	"github.com/bookreel/trailer-service/internal/infra/config"
	"github.com/bookreel/trailer-service/internal/infra/postgres"
	"github.com/bookreel/trailer-service/internal/infra/rabbitmq"
	"github.com/bookreel/trailer-service/internal/infra/tracing"
	"github.com/bookreel/trailer-service/internal/usecase"
	"github.com/bookreel/trailer-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "trailer-api")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	pipeline, err := bootstrap.NewPipeline(cfg, log)
	fatalOnErr(err, "build pipeline")

	storage, store, err := bootstrap.NewVideoStorage(ctx, cfg, log)
	fatalOnErr(err, "create video storage")

	janitor, err := bootstrap.StartJanitor(store, cfg, log)
	fatalOnErr(err, "start janitor")
	defer janitor.Stop()

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()
	fatalOnErr(pub.Declare(rabbitmq.Topology{
		Exchange:    cfg.RabbitMQExchange,
		Queue:       cfg.RabbitMQTrailerQueue,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
	}), "declare rabbitmq topology")

	repo := postgres.NewTrailerRepository(pool)
	generate := usecase.NewGenerateTrailerUseCase(pipeline, storage, cfg.LocalPublicURL, log)
	enqueue := usecase.NewEnqueueTrailerUseCase(rabbitmq.NewRequestPublisher(pub), repo, log)

	videosDir := ""
	if store != nil {
		videosDir = store.Dir()
	}
	handler := api.NewHandler(generate, enqueue, pipeline, cfg.GenerationTimeout, log)
	router := api.NewRouter(handler, videosDir, cfg.OutputDir, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("trailer api listening", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("trailer api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
