// Package settings manages per-practice settings persisted in the store's
// KV space. The default system prompt text is read back on every model call
// so an update takes effect on the next request, never cached for the
// process lifetime.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/db"
	"github.com/kailas-cloud/econsult/internal/domain"
)

// MaxDefaultPromptsLen bounds the stored default prompt text.
const MaxDefaultPromptsLen = 2000

// Settings is the persisted per-practice configuration.
type Settings struct {
	DefaultSystemPrompts string `json:"default_system_prompts"`
	LastUpdated          string `json:"last_updated,omitempty"`
}

// StoreProvider hands out the shared pooled store connection.
type StoreProvider interface {
	Acquire(ctx context.Context) (db.Store, error)
}

// Service reads and writes practice settings.
type Service struct {
	store  StoreProvider
	key    string
	logger *zap.Logger
	now    func() time.Time
}

// New creates a settings service. keyPrefix namespaces the storage key.
func New(store StoreProvider, keyPrefix string, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		key:    keyPrefix + "settings",
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the current settings, or zero-value defaults when none are stored.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	store, err := s.store.Acquire(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("acquire store: %w", err)
	}

	data, err := store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("%w: read settings: %w", domain.ErrDatabase, err)
	}

	var cfg Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("stored settings are malformed, using defaults", zap.Error(err))
		return Settings{}, nil
	}
	return cfg, nil
}

// Update replaces the default system prompt text.
func (s *Service) Update(ctx context.Context, defaultPrompts string) (Settings, error) {
	if len(defaultPrompts) > MaxDefaultPromptsLen {
		return Settings{}, fmt.Errorf("default prompts exceed %d characters", MaxDefaultPromptsLen)
	}

	store, err := s.store.Acquire(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("acquire store: %w", err)
	}

	cfg := Settings{
		DefaultSystemPrompts: defaultPrompts,
		LastUpdated:          s.now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}

	if err := store.Set(ctx, s.key, data); err != nil {
		return Settings{}, fmt.Errorf("%w: write settings: %w", domain.ErrDatabase, err)
	}
	return cfg, nil
}

// Reset removes stored settings, reverting to defaults.
func (s *Service) Reset(ctx context.Context) error {
	store, err := s.store.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire store: %w", err)
	}
	if err := store.Del(ctx, s.key); err != nil {
		return fmt.Errorf("%w: reset settings: %w", domain.ErrDatabase, err)
	}
	return nil
}

// DefaultInstructions returns the stored default prompt text for appending
// to model system prompts. Read failures degrade to an empty string so a
// settings hiccup never fails a patient request.
func (s *Service) DefaultInstructions(ctx context.Context) string {
	cfg, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read default instructions", zap.Error(err))
		return ""
	}
	return cfg.DefaultSystemPrompts
}
