// Chronos Dispatcher — переносит свежесозданные runs в очередь выполнения.
//
// Dispatcher:
//   - Забирает runs атомарным claim'ом (SKIP LOCKED)
//   - Собирает снимок параметров действия из job
//   - Публикует задачу в tasks.execute
//   - Добирает потерянные публикации периодическим sweep'ом
//
// Экземпляры масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Chronos/internal/config"
	"github.com/shaiso/Chronos/internal/dispatcher"
	"github.com/shaiso/Chronos/internal/mq"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting chronos-dispatcher")

	cfg := config.Load()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	jobRepo := repo.NewJobRepo(pool)
	runRepo := repo.NewRunRepo(pool)

	// RabbitMQ обязателен: без очереди диспетчеризовать некуда
	mqConn, err := mq.NewConnection(cfg.RabbitURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	publisher := mq.NewPublisher(mqConn, logger)

	d := dispatcher.New(dispatcher.Config{
		RunRepo:        runRepo,
		JobRepo:        jobRepo,
		Publisher:      publisher,
		Conn:           mqConn,
		Logger:         logger,
		BatchSize:      cfg.DispatcherBatch,
		Interval:       cfg.DispatcherInterval,
		DefaultTimeout: cfg.DefaultTimeout,
	})

	if err := d.Start(ctx); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("DISPATCHER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	d.Stop()
	logger.Info("chronos-dispatcher stopped")
}
