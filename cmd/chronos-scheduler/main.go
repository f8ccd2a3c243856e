// Chronos Scheduler — превращает due fire cursors в runs.
//
// Лидера нет: экземпляры координируются на уровне строк через
// FOR UPDATE SKIP LOCKED и условный advance курсора, поэтому
// процесс можно запускать в нескольких копиях без настройки.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Chronos/internal/config"
	"github.com/shaiso/Chronos/internal/mq"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/scheduler"
	"github.com/shaiso/Chronos/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting chronos-scheduler")

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

	// Применяем миграции
	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Создаём репозитории
	jobRepo := repo.NewJobRepo(pool)
	cursorRepo := repo.NewCursorRepo(pool)
	runRepo := repo.NewRunRepo(pool)

	// RabbitMQ — опционален: без него Dispatcher подхватит runs polling'ом
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(cfg.RabbitURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, runs will be picked up by polling", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	sched := scheduler.New(scheduler.Config{
		Pool:       pool,
		JobRepo:    jobRepo,
		CursorRepo: cursorRepo,
		RunRepo:    runRepo,
		Publisher:  publisher,
		Logger:     logger,
		BatchSize:  cfg.SchedulerBatch,
		Interval:   cfg.SchedulerInterval,
	})

	// Пул закрывается deferred'ом только после выхода из цикла:
	// начатый batch должен успеть закоммититься
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler loop error", "error", err)
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHEDULER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения и выход планировщика
	<-ctx.Done()
	<-schedDone
	logger.Info("chronos-scheduler stopped")
}
