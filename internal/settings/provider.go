// Package settings provides the cached application settings aggregate
// injected into every rendered page.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/db/controller/setting"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/metrics"
)

const (
	// CacheKey is the storage key of the aggregate.
	CacheKey = "app_settings"
	// DefaultTTL is the cache expiry used when none is configured.
	DefaultTTL = time.Hour
)

// ErrUnknownKey is returned for names outside the branding allow-list.
var ErrUnknownKey = errors.New("unknown settings key")

// Provider loads the settings aggregate through a fiber.Storage cache.
type Provider struct {
	db    *gorm.DB
	cache fiber.Storage
	ttl   time.Duration
}

// NewProvider returns a Provider. A zero ttl means DefaultTTL.
func NewProvider(db *gorm.DB, cache fiber.Storage, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Provider{db: db, cache: cache, ttl: ttl}
}

// AppSettings returns the aggregate. It never fails: when the store cannot be
// read the defaults are returned with Fallback set, and nothing is cached.
func (p *Provider) AppSettings(ctx context.Context) Result {
	if values, ok := p.cached(); ok {
		metrics.SettingsCache.WithLabelValues(metrics.CacheHit).Inc()
		return Result{Values: values}
	}

	values, err := p.load(ctx)
	if err != nil {
		metrics.SettingsCache.WithLabelValues(metrics.CacheFallback).Inc()
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")

		return Result{Values: Defaults(), Fallback: true, Reason: err}
	}

	metrics.SettingsCache.WithLabelValues(metrics.CacheMiss).Inc()
	p.store(values)

	return Result{Values: values}
}

// Save writes values to the store and invalidates the cache.
func (p *Provider) Save(ctx context.Context, values map[string]string) error {
	if err := setting.UpdateValues(p.db.WithContext(ctx), values); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	p.Invalidate(ctx)

	return nil
}

// Stored returns every stored setting with its form metadata.
func (p *Provider) Stored(ctx context.Context) ([]models.Setting, error) {
	return setting.GetAll(p.db.WithContext(ctx))
}

// Lookup returns the stored row of a branding key.
func (p *Provider) Lookup(ctx context.Context, name string) (*models.Setting, error) {
	if _, ok := seedDefinition(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	return setting.Get(p.db.WithContext(ctx), name)
}

// Set stores a single branding value and invalidates the cache. A missing
// row is seeded first so it keeps its form metadata.
func (p *Provider) Set(ctx context.Context, name, value string) error {
	def, ok := seedDefinition(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	db := p.db.WithContext(ctx)

	if err := setting.EnsureDefaults(db, []models.Setting{def}); err != nil {
		return err
	}

	if _, err := setting.Set(db, name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}

	p.Invalidate(ctx)

	return nil
}

// Reset restores the default row of a branding key and invalidates the cache.
func (p *Provider) Reset(ctx context.Context, name string) error {
	def, ok := seedDefinition(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	db := p.db.WithContext(ctx)

	if err := setting.DeleteByName(db, name); err != nil && !errors.Is(err, setting.ErrSettingNotFound) {
		return fmt.Errorf("failed to reset %s: %w", name, err)
	}

	if err := setting.EnsureDefaults(db, []models.Setting{def}); err != nil {
		return err
	}

	p.Invalidate(ctx)

	return nil
}

func seedDefinition(name string) (models.Setting, bool) {
	for _, def := range SeedDefinitions() {
		if def.Name == name {
			return def, true
		}
	}

	return models.Setting{}, false
}

// Invalidate drops the cached aggregate.
func (p *Provider) Invalidate(context.Context) {
	if p.cache == nil {
		return
	}

	if err := p.cache.Delete(CacheKey); err != nil {
		log.Error().Err(err).Str("key", CacheKey).Msg("Failed to invalidate settings cache")
	}
}

func (p *Provider) load(ctx context.Context) (map[string]string, error) {
	if p.db == nil {
		return nil, setting.ErrDBNil
	}

	rows, err := setting.GetPublicOrNamed(p.db.WithContext(ctx), BrandingKeys())
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	values := Defaults()
	for _, row := range rows {
		values[row.Name] = row.Value
	}

	return values, nil
}

func (p *Provider) cached() (map[string]string, bool) {
	if p.cache == nil {
		return nil, false
	}

	raw, err := p.cache.Get(CacheKey)
	if err != nil {
		log.Warn().Err(err).Str("key", CacheKey).Msg("Failed to read settings cache")
		return nil, false
	}

	if len(raw) == 0 {
		return nil, false
	}

	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		log.Warn().Err(err).Str("key", CacheKey).Msg("Dropping unreadable settings cache entry")
		p.Invalidate(context.Background())

		return nil, false
	}

	return values, true
}

func (p *Provider) store(values map[string]string) {
	if p.cache == nil {
		return
	}

	raw, err := json.Marshal(values)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode settings for cache")
		return
	}

	if err := p.cache.Set(CacheKey, raw, p.ttl); err != nil {
		log.Error().Err(err).Str("key", CacheKey).Msg("Failed to write settings cache")
	}
}
