package allocation

import (
	"context"
	"math"
	"testing"

	"github.com/kwarta/kwarta/internal/event_bus"
	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestNormalize(t *testing.T) {
	t.Run("clamps values to the percent range", func(t *testing.T) {
		cfg := Normalize(Config{
			Targets: map[budget.Group]float64{budget.GroupSavings: 150, budget.GroupDebt: -5},
			Caps:    map[budget.Group]float64{budget.GroupLifestyle: 101},
		})

		assert.Equal(t, 100.0, cfg.Targets[budget.GroupSavings])
		assert.Equal(t, 0.0, cfg.Targets[budget.GroupDebt])
		assert.Equal(t, 100.0, cfg.Caps[budget.GroupLifestyle])
	})

	t.Run("non-finite values fall back to defaults", func(t *testing.T) {
		cfg := Normalize(Config{
			Targets: map[budget.Group]float64{budget.GroupSavings: math.NaN()},
			Caps:    map[budget.Group]float64{budget.GroupDebt: math.Inf(1)},
		})

		assert.Equal(t, 15.0, cfg.Targets[budget.GroupSavings])
		assert.Equal(t, 20.0, cfg.Caps[budget.GroupDebt])
	})

	t.Run("unknown groups are dropped", func(t *testing.T) {
		cfg := Normalize(Config{
			Targets: map[budget.Group]float64{"made-up": 10},
		})
		_, ok := cfg.Targets["made-up"]
		assert.False(t, ok)
	})
}

func TestRepository(t *testing.T) {
	t.Run("absent record yields defaults", func(t *testing.T) {
		repo := NewRepository(storage.NewStubKV())

		cfg, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("malformed record yields defaults", func(t *testing.T) {
		kv := storage.NewStubKV()
		require.NoError(t, kv.Set(ctx, storage.AdvisorConfigKey, "{broken"))
		repo := NewRepository(kv)

		cfg, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("store then get round-trips", func(t *testing.T) {
		repo := NewRepository(storage.NewStubKV())

		cfg := DefaultConfig()
		cfg.Targets[budget.GroupLifestyle] = 8
		require.NoError(t, repo.Store(ctx, cfg))

		got, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 8.0, got.Targets[budget.GroupLifestyle])
	})

	t.Run("stringly-typed percents are coerced", func(t *testing.T) {
		kv := storage.NewStubKV()
		require.NoError(t, kv.Set(ctx, storage.AdvisorConfigKey,
			`{"targets":{"savings":"25"},"caps":{}}`))
		repo := NewRepository(kv)

		got, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25.0, got.Targets[budget.GroupSavings])
	})
}

func TestServiceImpl_Update(t *testing.T) {
	t.Run("persists then notifies subscribers", func(t *testing.T) {
		kv := storage.NewStubKV()
		bus := event_bus.NewEventBus()
		service := NewService(NewRepository(kv), bus)

		var received *event_bus.AllocationConfigChange
		event_bus.SubscribeTyped(bus, event_bus.AllocationConfigUpdated,
			func(e event_bus.EventT[event_bus.AllocationConfigChange]) error {
				received = &e.Data
				return nil
			})

		cfg := DefaultConfig()
		cfg.Targets[budget.GroupSavings] = 30
		updated, err := service.Update(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, 30.0, updated.Targets[budget.GroupSavings])

		require.NotNil(t, received)
		assert.Equal(t, 30.0, received.Targets["savings"])

		// The persisted record matches what subscribers saw.
		stored, err := NewRepository(kv).Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 30.0, stored.Targets[budget.GroupSavings])
	})

	t.Run("does not notify when persistence fails", func(t *testing.T) {
		kv := storage.NewStubKV()
		kv.FailWrites = true
		bus := event_bus.NewEventBus()
		service := NewService(NewRepository(kv), bus)

		notified := false
		bus.Subscribe(event_bus.AllocationConfigUpdated, func(event_bus.Event) error {
			notified = true
			return nil
		})

		_, err := service.Update(ctx, DefaultConfig())
		assert.Error(t, err)
		assert.False(t, notified)
	})

	t.Run("reset restores defaults", func(t *testing.T) {
		kv := storage.NewStubKV()
		service := NewService(NewRepository(kv), event_bus.NewEventBus())

		cfg := DefaultConfig()
		cfg.Caps[budget.GroupDebt] = 5
		_, err := service.Update(ctx, cfg)
		require.NoError(t, err)

		restored, err := service.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), restored)
	})
}
