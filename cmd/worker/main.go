package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/bootstrap"
	"github.com/bookreel/trailer-service/internal/infra/config"
	"github.com/bookreel/trailer-service/internal/infra/email"
	"github.com/bookreel/trailer-service/internal/infra/metrics"
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

	log.Info("starting trailer worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "trailer-worker")
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

	locker, closeLocker, err := bootstrap.NewBookLocker(cfg, log)
	fatalOnErr(err, "create book lock")
	defer closeLocker()

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	repo := postgres.NewTrailerRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewProcessTrailerUseCase(
		pipeline, repo, storage, locker,
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessTrailerConfig{GenerationTimeout: cfg.GenerationTimeout},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, func(ctx context.Context) bool {
		return pipeline.CheckPipelineHealth(ctx).Ready
	}, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Topology:    topology(cfg),
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("trailer worker started, consuming messages", zap.Int("workers", cfg.WorkerCount))

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("trailer worker stopped")
}

func topology(cfg *config.Config) rabbitmq.Topology {
	return rabbitmq.Topology{
		Exchange:    cfg.RabbitMQExchange,
		Queue:       cfg.RabbitMQTrailerQueue,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
