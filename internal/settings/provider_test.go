package settings

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/db/controller/setting"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

func newProvider(t *testing.T) (*Provider, *memory.Storage) {
	t.Helper()

	db := dbtest.New(t)
	require.NoError(t, setting.EnsureDefaults(db, SeedDefinitions()))

	cache := memory.New()
	t.Cleanup(func() { _ = cache.Close() })

	return NewProvider(db, cache, time.Hour), cache
}

func TestAppSettingsDefaults(t *testing.T) {
	p, _ := newProvider(t)

	res := p.AppSettings(context.Background())
	assert.False(t, res.Fallback)
	assert.NoError(t, res.Reason)
	assert.Equal(t, "GoEventHub", res.SiteName())
	assert.Equal(t, "#dc2626", res.PrimaryColor())
	assert.Equal(t, "#1f2937", res.SecondaryColor())
	assert.Equal(t, ThemeLight, res.Theme())
	assert.Equal(t, "/static/img/favicon.svg", res.Favicon())
}

func TestAppSettingsCaching(t *testing.T) {
	ctx := context.Background()
	p, cache := newProvider(t)

	_ = p.AppSettings(ctx)

	raw, err := cache.Get(CacheKey)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// a write that bypasses the provider is hidden by the cache
	_, err = setting.Set(p.db, KeySiteName, "Stale")
	require.NoError(t, err)
	assert.Equal(t, "GoEventHub", p.AppSettings(ctx).SiteName())

	p.Invalidate(ctx)
	assert.Equal(t, "Stale", p.AppSettings(ctx).SiteName())

	// Save invalidates on its own
	require.NoError(t, p.Save(ctx, map[string]string{KeySiteName: "Meetups", KeyPrimaryColor: "#2563eb"}))
	res := p.AppSettings(ctx)
	assert.Equal(t, "Meetups", res.SiteName())
	assert.Equal(t, "#2563eb", res.PrimaryColor())

	err = p.Save(ctx, map[string]string{"unknown": "x"})
	assert.ErrorIs(t, err, setting.ErrSettingNotFound)
}

func TestAppSettingsIgnoresPrivateSettings(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	require.NoError(t, setting.Create(p.db, &models.Setting{Name: "smtp_secret", Value: "hidden"}))
	require.NoError(t, setting.Create(p.db, &models.Setting{Name: "banner", Value: "Hello", Public: true}))

	res := p.AppSettings(ctx)
	assert.Equal(t, "Hello", res.Get("banner"))
	assert.NotContains(t, res.Values, "smtp_secret")
}

func TestAppSettingsFallback(t *testing.T) {
	ctx := context.Background()
	p, cache := newProvider(t)

	require.NoError(t, p.db.Migrator().DropTable(&models.Setting{}))

	res := p.AppSettings(ctx)
	assert.True(t, res.Fallback)
	require.Error(t, res.Reason)
	assert.Equal(t, "#dc2626", res.PrimaryColor())
	assert.Equal(t, "GoEventHub", res.SiteName())

	raw, err := cache.Get(CacheKey)
	require.NoError(t, err)
	assert.Empty(t, raw, "fallbacks are not cached")
}

func TestAppSettingsWithoutCache(t *testing.T) {
	db := dbtest.New(t)
	p := NewProvider(db, nil, 0)

	assert.Equal(t, DefaultTTL, p.ttl)
	assert.Equal(t, "GoEventHub", p.AppSettings(context.Background()).SiteName())
}

func TestSetAndReset(t *testing.T) {
	ctx := context.Background()
	p, cache := newProvider(t)

	_ = p.AppSettings(ctx)

	require.NoError(t, p.Set(ctx, KeyFooterText, "See you there"))
	raw, err := cache.Get(CacheKey)
	require.NoError(t, err)
	assert.Empty(t, raw, "set invalidates")
	assert.Equal(t, "See you there", p.AppSettings(ctx).FooterText())

	row, err := p.Lookup(ctx, KeyFooterText)
	require.NoError(t, err)
	assert.Equal(t, "See you there", row.Value)
	assert.Equal(t, "Footer text", row.Label)

	require.NoError(t, p.Reset(ctx, KeyFooterText))
	assert.Equal(t, "Powered by GoEventHub", p.AppSettings(ctx).FooterText())

	// a deleted row is seeded again with its metadata
	require.NoError(t, setting.DeleteByName(p.db, KeyTheme))
	require.NoError(t, p.Set(ctx, KeyTheme, ThemeDark))

	row, err = p.Lookup(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, row.Value)
	assert.True(t, row.Public)
	assert.Equal(t, models.SettingTypeSelect, row.Type)

	assert.ErrorIs(t, p.Set(ctx, "smtp_secret", "x"), ErrUnknownKey)
	assert.ErrorIs(t, p.Reset(ctx, "smtp_secret"), ErrUnknownKey)

	_, err = p.Lookup(ctx, "smtp_secret")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestStored(t *testing.T) {
	p, _ := newProvider(t)

	rows, err := p.Stored(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, len(Definitions()))
	assert.Equal(t, KeySiteName, rows[0].Name, "ordered by sort order")
	assert.Equal(t, KeyCustomCSS, rows[len(rows)-1].Name)
}
