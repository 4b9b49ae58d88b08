package api

import (
	"log/slog"

	"github.com/Duke-CEI-Center/AutoEDA/internal/ledger"
	"github.com/Duke-CEI-Center/AutoEDA/internal/orchestrator"
	"github.com/Duke-CEI-Center/AutoEDA/internal/registry"
	"github.com/Duke-CEI-Center/AutoEDA/internal/session"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orch     *orchestrator.Orchestrator
	store    *session.Store
	registry *registry.Registry

	// ledger — аудитный журнал; nil, если журнал выключен.
	ledger *ledger.Ledger

	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Store        *session.Store
	Registry     *registry.Registry
	Ledger       *ledger.Ledger
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		orch:     cfg.Orchestrator,
		store:    cfg.Store,
		registry: cfg.Registry,
		ledger:   cfg.Ledger,
		logger:   cfg.Logger,
	}
}
