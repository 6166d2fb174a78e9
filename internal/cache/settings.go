// Package cache provides a redis read-through layer for the settings
// document, the hottest read in the API.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/store"
)

const settingsKey = "settings:doc"

// SettingsCache wraps a SettingsStore with a redis cache. Redis failures
// degrade to the inner store; the cache never turns a working database
// into an outage.
type SettingsCache struct {
	Inner  store.SettingsStore
	Client *redis.Client
	TTL    time.Duration
	Logger zerolog.Logger
}

var _ store.SettingsStore = (*SettingsCache)(nil)

// GetOrInit implements store.SettingsStore.
func (c *SettingsCache) GetOrInit(ctx context.Context) (domain.Settings, error) {
	raw, err := c.Client.Get(ctx, settingsKey).Bytes()
	if err == nil {
		var settings domain.Settings
		if jsonErr := json.Unmarshal(raw, &settings); jsonErr == nil {
			return settings, nil
		}
		// Unreadable payload: fall through and refresh from the source.
	} else if err != redis.Nil {
		c.Logger.Warn().Err(err).Msg("settings cache read failed")
	}

	settings, err := c.Inner.GetOrInit(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	c.fill(ctx, settings)
	return settings, nil
}

// Save implements store.SettingsStore. The fresh document replaces the
// cached copy so readers never see a stale write.
func (c *SettingsCache) Save(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	saved, err := c.Inner.Save(ctx, in)
	if err != nil {
		return domain.Settings{}, err
	}
	c.fill(ctx, saved)
	return saved, nil
}

func (c *SettingsCache) fill(ctx context.Context, settings domain.Settings) {
	raw, err := json.Marshal(settings)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("marshal settings for cache")
		return
	}
	if err := c.Client.Set(ctx, settingsKey, raw, c.TTL).Err(); err != nil {
		c.Logger.Warn().Err(err).Msg("settings cache write failed")
	}
}
