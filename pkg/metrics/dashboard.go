package metrics

import (
	"context"
	"sync"

	"github.com/kwarta/kwarta/internal/event_bus"
	"github.com/kwarta/kwarta/pkg/allocation"
	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// LedgerReader is the view of the ledger the dashboard needs. Declared here so
// the metrics engine stays free of a ledger dependency.
type LedgerReader interface {
	AllVisibleItems() []budget.Item
	TotalAvailable() float64
	Filter() string
}

// DashboardService assembles dashboards from live ledger state. It caches the
// allocation configuration and refreshes it when another session publishes a
// change, so concurrent config edits show up without a restart.
type DashboardService struct {
	ledger     LedgerReader
	store      *storage.Store
	allocation allocation.Repository

	mu     sync.Mutex
	config *allocation.Config
}

func NewDashboardService(
	ledger LedgerReader,
	store *storage.Store,
	allocationRepo allocation.Repository,
	eventBus *event_bus.EventBus,
) *DashboardService {
	s := &DashboardService{
		ledger:     ledger,
		store:      store,
		allocation: allocationRepo,
	}
	event_bus.SubscribeTyped(eventBus, event_bus.AllocationConfigUpdated,
		func(e event_bus.EventT[event_bus.AllocationConfigChange]) error {
			s.invalidateConfig()
			return nil
		})
	return s
}

func (s *DashboardService) invalidateConfig() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = nil
	log.Debug("allocation configuration changed, dropping cached copy")
}

func (s *DashboardService) currentConfig(ctx context.Context) allocation.Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		cfg, err := s.allocation.Get(ctx)
		if err != nil {
			log.Errorf("could not load allocation configuration, using defaults: %v", err)
			cfg = allocation.DefaultConfig()
		}
		s.config = &cfg
	}
	return *s.config
}

// Dashboard builds the KPI set for the current view. Rollover reports the
// month before the filter month, or before the current calendar month when no
// filter is active.
func (s *DashboardService) Dashboard(ctx context.Context) Dashboard {
	month := s.ledger.Filter()
	if month == "" {
		month = s.store.CurrentMonth()
	}

	var rollover float64
	if prev := PreviousMonth(month); prev != "" {
		rollover = s.store.Rollover(ctx, prev)
	}

	return BuildDashboard(
		s.ledger.AllVisibleItems(),
		s.ledger.TotalAvailable(),
		rollover,
		s.currentConfig(ctx),
	)
}
