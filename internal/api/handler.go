package api

import (
	"log/slog"

	"github.com/shaiso/Chronos/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	projectRepo *repo.ProjectRepo
	jobRepo     *repo.JobRepo
	cursorRepo  *repo.CursorRepo
	runRepo     *repo.RunRepo
	attemptRepo *repo.AttemptRepo
	logger      *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	ProjectRepo *repo.ProjectRepo
	JobRepo     *repo.JobRepo
	CursorRepo  *repo.CursorRepo
	RunRepo     *repo.RunRepo
	AttemptRepo *repo.AttemptRepo
	Logger      *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		projectRepo: cfg.ProjectRepo,
		jobRepo:     cfg.JobRepo,
		cursorRepo:  cfg.CursorRepo,
		runRepo:     cfg.RunRepo,
		attemptRepo: cfg.AttemptRepo,
		logger:      cfg.Logger,
	}
}
