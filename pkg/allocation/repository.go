package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/storage"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Get(ctx context.Context) (Config, error)
	Store(ctx context.Context, c Config) error
}

type RepositoryImpl struct {
	kv storage.KV
}

func NewRepository(kv storage.KV) *RepositoryImpl {
	return &RepositoryImpl{kv: kv}
}

// Get loads the shared allocation configuration, falling back to defaults for
// anything absent or malformed.
func (r *RepositoryImpl) Get(ctx context.Context) (Config, error) {
	raw, ok, err := r.kv.Get(ctx, storage.AdvisorConfigKey)
	if err != nil {
		return DefaultConfig(), err
	}
	if !ok {
		return DefaultConfig(), nil
	}

	var fields struct {
		Targets map[string]any `json:"targets"`
		Caps    map[string]any `json:"caps"`
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		log.Warnf("ignoring malformed allocation configuration: %v", err)
		return DefaultConfig(), nil
	}

	cfg := Config{
		Targets: map[budget.Group]float64{},
		Caps:    map[budget.Group]float64{},
	}
	for name, v := range fields.Targets {
		if pct, ok := percentValue(v); ok {
			cfg.Targets[budget.Group(name)] = pct
		}
	}
	for name, v := range fields.Caps {
		if pct, ok := percentValue(v); ok {
			cfg.Caps[budget.Group(name)] = pct
		}
	}
	return Normalize(cfg), nil
}

func (r *RepositoryImpl) Store(ctx context.Context, c Config) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("could not encode allocation configuration: %w", err)
	}
	return r.kv.Set(ctx, storage.AdvisorConfigKey, string(raw))
}

func percentValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(parsed) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
