// Chronos API — management-поверхность платформы.
//
// API:
//   - CRUD projects и jobs (создание job атомарно с fire-курсором)
//   - pause/resume и настройка retry/timeout/concurrency
//   - read-only история runs и attempts
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Chronos/internal/api"
	"github.com/shaiso/Chronos/internal/config"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting chronos-api")

	cfg := config.Load()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Применяем миграции
	if err := repo.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Создаём репозитории
	projectRepo := repo.NewProjectRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	cursorRepo := repo.NewCursorRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	attemptRepo := repo.NewAttemptRepo(pool)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		ProjectRepo: projectRepo,
		JobRepo:     jobRepo,
		CursorRepo:  cursorRepo,
		RunRepo:     runRepo,
		AttemptRepo: attemptRepo,
		Logger:      logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
