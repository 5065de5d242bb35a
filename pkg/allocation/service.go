package allocation

import (
	"context"

	"github.com/kwarta/kwarta/internal/event_bus"
	"github.com/kwarta/kwarta/pkg/budget"
)

type Service interface {
	Get(ctx context.Context) (Config, error)
	Update(ctx context.Context, c Config) (Config, error)
	Reset(ctx context.Context) (Config, error)
}

type ServiceImpl struct {
	repository Repository
	eventBus   *event_bus.EventBus
}

func NewService(repository Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repository: repository, eventBus: eventBus}
}

func (s *ServiceImpl) Get(ctx context.Context) (Config, error) {
	return s.repository.Get(ctx)
}

// Update normalizes and persists the configuration, then notifies subscribers.
// The persisted (normalized) config is returned.
func (s *ServiceImpl) Update(ctx context.Context, c Config) (Config, error) {
	normalized := Normalize(c)
	if err := s.repository.Store(ctx, normalized); err != nil {
		return Config{}, err
	}
	s.publishChange(ctx, normalized)
	return normalized, nil
}

// Reset restores the default targets and caps.
func (s *ServiceImpl) Reset(ctx context.Context) (Config, error) {
	return s.Update(ctx, DefaultConfig())
}

func (s *ServiceImpl) publishChange(ctx context.Context, c Config) {
	change := event_bus.AllocationConfigChange{
		Targets: map[string]float64{},
		Caps:    map[string]float64{},
	}
	for _, g := range budget.AllGroups {
		if v, ok := c.Targets[g]; ok {
			change.Targets[string(g)] = v
		}
		if v, ok := c.Caps[g]; ok {
			change.Caps[string(g)] = v
		}
	}
	// Publish errors are handler errors, already logged by the bus.
	_ = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.AllocationConfigUpdated, change))
}
