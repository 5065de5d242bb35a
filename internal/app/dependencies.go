package app

import (
	"database/sql"

	"github.com/kwarta/kwarta/internal/event_bus"
	"github.com/kwarta/kwarta/internal/utils"
	"github.com/kwarta/kwarta/pkg/allocation"
	"github.com/kwarta/kwarta/pkg/ledger"
	"github.com/kwarta/kwarta/pkg/metrics"
	"github.com/kwarta/kwarta/pkg/preset"
	"github.com/kwarta/kwarta/pkg/settings"
	"github.com/kwarta/kwarta/pkg/storage"
	"github.com/kwarta/kwarta/pkg/transfer"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	KV    storage.KV
	Store *storage.Store

	SettingsRepo    settings.Repository
	SettingsHandler *settings.Handler

	AllocationRepo    allocation.Repository
	AllocationService allocation.Service
	AllocationHandler *allocation.Handler

	LedgerService *ledger.ServiceImpl
	LedgerHandler *ledger.Handler

	DashboardService *metrics.DashboardService
	DashboardHandler *metrics.Handler

	PresetRepo    preset.Repository
	PresetService preset.Service
	PresetHandler *preset.Handler

	TransferHandler *transfer.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, eventBus *event_bus.EventBus) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = eventBus

	deps.KV = storage.NewSQLiteKV(db)
	deps.Store = storage.NewStore(deps.KV, deps.Clock)

	deps.SettingsRepo = settings.NewRepository(deps.KV)
	deps.SettingsHandler = settings.NewHandler(deps.SettingsRepo)

	deps.AllocationRepo = allocation.NewRepository(deps.KV)
	deps.AllocationService = allocation.NewService(deps.AllocationRepo, deps.EventBus)
	deps.AllocationHandler = allocation.NewHandler(deps.AllocationService)

	deps.LedgerService = ledger.NewService(deps.Store, deps.SettingsRepo, deps.Clock)
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerService)

	deps.DashboardService = metrics.NewDashboardService(deps.LedgerService, deps.Store, deps.AllocationRepo, deps.EventBus)
	deps.DashboardHandler = metrics.NewHandler(deps.DashboardService)

	deps.PresetRepo = preset.NewRepository(deps.KV)
	deps.PresetService = preset.NewService(deps.PresetRepo, deps.LedgerService, deps.Store)
	deps.PresetHandler = preset.NewHandler(deps.PresetService)

	deps.TransferHandler = transfer.NewHandler(deps.LedgerService, deps.Clock)

	return deps
}
