package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kwarta/kwarta/pkg/storage"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Store(ctx context.Context, s Settings) error
	DarkMode(ctx context.Context) (bool, error)
	StoreDarkMode(ctx context.Context, enabled bool) error
}

type RepositoryImpl struct {
	kv storage.KV
}

func NewRepository(kv storage.KV) *RepositoryImpl {
	return &RepositoryImpl{kv: kv}
}

func (r *RepositoryImpl) Get(ctx context.Context) (Settings, error) {
	raw, ok, err := r.kv.Get(ctx, storage.SettingsKey)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Settings{}, nil
	}
	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// Malformed settings are treated as absent.
		log.Warnf("ignoring malformed settings record: %v", err)
		return Settings{}, nil
	}
	return s, nil
}

func (r *RepositoryImpl) Store(ctx context.Context, s Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	return r.kv.Set(ctx, storage.SettingsKey, string(raw))
}

// DarkMode reads the boolean-as-string dark-mode flag.
func (r *RepositoryImpl) DarkMode(ctx context.Context) (bool, error) {
	raw, ok, err := r.kv.Get(ctx, storage.DarkModeKey)
	if err != nil {
		return false, err
	}
	return ok && raw == "true", nil
}

func (r *RepositoryImpl) StoreDarkMode(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return r.kv.Set(ctx, storage.DarkModeKey, value)
}
