package handler

import (
	"log/slog"

	"github.com/campuspulse/social-pulse/internal/api/storage"
	"github.com/campuspulse/social-pulse/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	DBClient *postgresql.Client
}

// StatusHandler serves the read-only status endpoints
type StatusHandler struct {
	logger   *slog.Logger
	dbClient *postgresql.Client
	storage  *storage.Storage
}

// NewStatusHandler creates a new StatusHandler instance
func NewStatusHandler(deps *Dependencies) *StatusHandler {
	return &StatusHandler{
		logger:   deps.Logger,
		dbClient: deps.DBClient,
		storage:  storage.NewStorage(deps.DBClient.GetDB()),
	}
}
