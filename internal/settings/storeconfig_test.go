package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func setting(id string, fields map[string]any) airtable.Record {
	return airtable.Record{ID: id, Fields: fields}
}

func TestActiveSettingsWindowAndEnabled(t *testing.T) {
	records := []airtable.Record{
		setting("r1", map[string]any{"key": "a", "enabled": true}),
		setting("r2", map[string]any{"key": "b", "enabled": "true", "effective_from": "2025-06-01", "effective_to": "2025-06-30"}),
		setting("r3", map[string]any{"key": "c", "enabled": float64(1), "inicio": "2025-07-01"}),
		setting("r4", map[string]any{"key": "d", "enabled": true, "fin": "2025-06-01"}),
		setting("r5", map[string]any{"key": "e", "enabled": false}),
		setting("r6", map[string]any{"key": "f", "enabled": true, "from": "not a date"}),
		setting("r7", map[string]any{"enabled": true}),
	}

	active := ActiveSettings(records, now)
	assert.Len(t, active, 2)
	assert.Contains(t, active, "a")
	assert.Contains(t, active, "b")
}

func TestActiveSettingsLatestUpdateWins(t *testing.T) {
	records := []airtable.Record{
		setting("new", map[string]any{"key": "k", "enabled": true, "value": "new", "updated_at": "2025-06-10T00:00:00Z"}),
		setting("old", map[string]any{"key": "k", "enabled": true, "value": "old", "updated_at": "2025-05-10T00:00:00Z"}),
		{ID: "created", CreatedTime: "2025-06-12T00:00:00.000Z", Fields: map[string]any{"key": "k2", "enabled": true, "value": "created-late"}},
		{ID: "created-early", CreatedTime: "2025-01-12T00:00:00.000Z", Fields: map[string]any{"key": "k2", "enabled": true, "value": "created-early"}},
	}

	active := ActiveSettings(records, now)
	assert.Equal(t, "new", active["k"]["value"])
	assert.Equal(t, "created-late", active["k2"]["value"])
}

func TestBuildConfigReadsKnownKeys(t *testing.T) {
	active := map[string]map[string]any{
		"free_shipping_threshold": {"value_number": float64(0), "value": "200", "currency": "nio", "effective_to": "2025-12-31"},
		"currency_default":        {"value_text": "usd"},
		"whatsapp_commerce_phone": {"value_text": "+505 8888-1111"},
	}

	cfg := BuildConfig(active)
	require.NotNil(t, cfg.FreeShippingThreshold)
	assert.Equal(t, 0.0, *cfg.FreeShippingThreshold, "value_number wins even when zero")
	assert.True(t, cfg.FreeShippingEnabled)
	assert.Equal(t, "NIO", cfg.Currency)
	assert.Equal(t, "2025-12-31", cfg.FreeShippingEffectiveTo)
	assert.Equal(t, "50588881111", cfg.WhatsAppPhone)
	assert.Equal(t, []string{"currency_default", "free_shipping_threshold", "whatsapp_commerce_phone"}, cfg.ActiveKeys)
}

func TestBuildConfigFallsBackToCurrencyDefault(t *testing.T) {
	cfg := BuildConfig(map[string]map[string]any{
		"free_shipping_threshold": {"value": "$120.50"},
		"currency_default":        {"value": "eur"},
		"whatsapp_phone":          {"value": "505 1234"},
	})
	require.NotNil(t, cfg.FreeShippingThreshold)
	assert.Equal(t, 120.5, *cfg.FreeShippingThreshold)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "5051234", cfg.WhatsAppPhone)
}

func TestApplyPolicyPriority(t *testing.T) {
	airtableValue := 180.0
	override := 90.0
	defaults := Defaults{FreeShippingThreshold: 150, WhatsAppPhone: "50582193629"}

	p := ApplyPolicy(Config{FreeShippingThreshold: &airtableValue}, &override, defaults)
	assert.Equal(t, 90.0, p.FreeShippingThreshold)
	assert.Equal(t, SourceQuery, p.ThresholdSource)

	p = ApplyPolicy(Config{FreeShippingThreshold: &airtableValue}, nil, defaults)
	assert.Equal(t, 180.0, p.FreeShippingThreshold)
	assert.Equal(t, SourceAirtable, p.ThresholdSource)

	p = ApplyPolicy(Config{}, nil, defaults)
	assert.Equal(t, 150.0, p.FreeShippingThreshold)
	assert.Equal(t, SourceConfig, p.ThresholdSource)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "50582193629", p.WhatsAppPhone)
}

func TestParseNumber(t *testing.T) {
	cases := map[any]struct {
		want float64
		ok   bool
	}{
		"150":      {150, true},
		"US$ 1.5":  {1.5, true},
		"abc":      {0, false},
		"1.2.3":    {0, false},
		float64(7): {7, true},
		nil:        {0, false},
	}
	for in, tc := range cases {
		got, ok := ParseNumber(in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseNumber(%v) = %v,%v want %v,%v", in, got, ok, tc.want, tc.ok)
		}
	}
}

type memoryCache struct {
	docs map[string]string
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{docs: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), dest)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.docs[key] = string(payload)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) CacheKey(name string) string {
	return "kame:cache:" + name
}

type countingLister struct {
	records []airtable.Record
	err     error
	calls   int
}

func (c *countingLister) ListRecords(context.Context, string, airtable.Query) ([]airtable.Record, error) {
	c.calls++
	return c.records, c.err
}

func TestStoreConfigServiceCachesResolvedConfig(t *testing.T) {
	lister := &countingLister{records: []airtable.Record{
		setting("r1", map[string]any{"key": "free_shipping_threshold", "enabled": true, "value_number": float64(200)}),
	}}
	cache := newMemoryCache()
	svc, err := NewStoreConfigService(StoreConfigParams{
		Airtable: lister,
		Table:    "Settings",
		Cache:    cache,
		Defaults: Defaults{FreeShippingThreshold: 150},
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)

	threshold, currency, err := svc.FreeShippingThreshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, threshold)
	assert.Equal(t, "USD", currency)

	_, _, _ = svc.FreeShippingThreshold(context.Background())
	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, 10*time.Minute, cache.ttls["kame:cache:store_config_v1"])

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 2, lister.calls)
	assert.Equal(t, "ready", string(svc.Report().Status))
	assert.Equal(t, 1, svc.Report().Items)
}

func TestStoreConfigServiceFallsBackOnFailure(t *testing.T) {
	lister := &countingLister{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("boom"), "list failed")}
	svc, err := NewStoreConfigService(StoreConfigParams{
		Airtable: lister,
		Table:    "Settings",
		Defaults: Defaults{FreeShippingThreshold: 150, Currency: "usd"},
	})
	require.NoError(t, err)

	p := svc.Policy(context.Background(), nil)
	assert.Equal(t, 150.0, p.FreeShippingThreshold)
	assert.Equal(t, SourceConfig, p.ThresholdSource)
	assert.Equal(t, "USD", p.Currency)
	assert.NotEmpty(t, p.Error)
	assert.Equal(t, "error", string(svc.Report().Status))

	override := 75.0
	p = svc.Policy(context.Background(), &override)
	assert.Equal(t, 75.0, p.FreeShippingThreshold)
}

func TestStoreConfigServiceWithoutAirtable(t *testing.T) {
	svc, err := NewStoreConfigService(StoreConfigParams{Table: "Settings"})
	require.NoError(t, err)
	_, err = svc.Config(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}
