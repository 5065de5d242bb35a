package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kwarta/kwarta/pkg/storage"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	GetAll(ctx context.Context) (map[int]Preset, error)
	StoreAll(ctx context.Context, presets map[int]Preset) error
}

// RepositoryImpl keeps all presets in a single record: a slot-keyed JSON
// object under one key.
type RepositoryImpl struct {
	kv storage.KV
}

func NewRepository(kv storage.KV) *RepositoryImpl {
	return &RepositoryImpl{kv: kv}
}

func (r *RepositoryImpl) GetAll(ctx context.Context) (map[int]Preset, error) {
	raw, ok, err := r.kv.Get(ctx, storage.PresetsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var bySlot map[string]Preset
	if err := json.Unmarshal([]byte(raw), &bySlot); err != nil {
		log.Warnf("ignoring malformed presets record: %v", err)
		return nil, nil
	}

	presets := make(map[int]Preset, len(bySlot))
	for key, p := range bySlot {
		slot, err := strconv.Atoi(key)
		if err != nil || slot < 1 || slot > SlotCount {
			continue
		}
		presets[slot] = p
	}
	return presets, nil
}

func (r *RepositoryImpl) StoreAll(ctx context.Context, presets map[int]Preset) error {
	bySlot := make(map[string]Preset, len(presets))
	for slot, p := range presets {
		bySlot[strconv.Itoa(slot)] = p
	}
	raw, err := json.Marshal(bySlot)
	if err != nil {
		return fmt.Errorf("could not encode presets: %w", err)
	}
	return r.kv.Set(ctx, storage.PresetsKey, string(raw))
}
