package settings

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/contact"
	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

const (
	configStoreName = "store_config"
	configCacheName = "store_config_v1"

	keyFreeShipping    = "free_shipping_threshold"
	keyCurrencyDefault = "currency_default"
	keyCommercePhone   = "whatsapp_commerce_phone"
	keyPhone           = "whatsapp_phone"

	SourceQuery    = "query"
	SourceAirtable = "airtable"
	SourceConfig   = "config"

	defaultCurrency = "USD"
)

var (
	fromKeys    = []string{"effective_from", "from", "start", "inicio"}
	toKeys      = []string{"effective_to", "to", "end", "fin"}
	updatedKeys = []string{"updated_at", "last_modified_time", "lastModified"}
	valueKeys   = []string{"value_number", "value", "value_text"}
	textKeys    = []string{"value_text", "value"}
)

// Config is the resolved key/value store configuration as cached.
type Config struct {
	FreeShippingThreshold     *float64 `json:"freeShippingThreshold,omitempty"`
	FreeShippingEnabled       bool     `json:"freeShippingEnabled"`
	FreeShippingEffectiveFrom string   `json:"freeShippingEffectiveFrom,omitempty"`
	FreeShippingEffectiveTo   string   `json:"freeShippingEffectiveTo,omitempty"`
	Currency                  string   `json:"currency,omitempty"`
	WhatsAppPhone             string   `json:"whatsappPhone,omitempty"`
	ActiveKeys                []string `json:"activeKeys"`
}

// Policy is the configuration in force after applying overrides and fallbacks.
type Policy struct {
	FreeShippingThreshold     float64 `json:"freeShippingThreshold"`
	ThresholdSource           string  `json:"thresholdSource"`
	FreeShippingEnabled       bool    `json:"freeShippingEnabled"`
	FreeShippingEffectiveFrom string  `json:"freeShippingEffectiveFrom,omitempty"`
	FreeShippingEffectiveTo   string  `json:"freeShippingEffectiveTo,omitempty"`
	Currency                  string  `json:"currency"`
	WhatsAppPhone             string  `json:"whatsappPhone"`
	Error                     string  `json:"error,omitempty"`
}

// Defaults are the process-level fallbacks from configuration.
type Defaults struct {
	FreeShippingThreshold float64
	Currency              string
	WhatsAppPhone         string
}

// Cache is the Redis document surface used to share the resolved config.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

type entry struct {
	fields  map[string]any
	updated time.Time
}

// ParseNumber strips everything but digits, dots and minus signs before parsing.
func ParseNumber(raw any) (float64, bool) {
	var s string
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case string:
		s = v
	default:
		s, _ = catalog.Text([]any{v})
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02T15:04", "2006-01-02"}

func parseTime(raw any) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// first returns the first truthy value under keys.
func first(f map[string]any, keys []string) any {
	for _, k := range keys {
		switch v := f[k].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		case bool:
			if v {
				return v
			}
		case float64:
			if v != 0 {
				return v
			}
		default:
			return v
		}
	}
	return nil
}

// present returns the first non-null value under keys; zero values count.
func present(f map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func enabled(f map[string]any) bool {
	switch v := f["enabled"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case float64:
		return v == 1
	}
	return false
}

// active reports whether a setting is enabled and now falls inside its optional window.
// A window bound that cannot be parsed never matches.
func active(f map[string]any, now time.Time) bool {
	if !enabled(f) {
		return false
	}
	if raw := first(f, fromKeys); raw != nil {
		from, ok := parseTime(raw)
		if !ok || from.After(now) {
			return false
		}
	}
	if raw := first(f, toKeys); raw != nil {
		to, ok := parseTime(raw)
		if !ok || to.Before(now) {
			return false
		}
	}
	return true
}

func updatedAt(rec airtable.Record) time.Time {
	raw := first(rec.Fields, updatedKeys)
	if raw == nil {
		raw = rec.CreatedTime
	}
	t, _ := parseTime(raw)
	return t
}

// ActiveSettings indexes active records by key. When a key repeats the most recently
// updated record wins; on equal timestamps the later record wins.
func ActiveSettings(records []airtable.Record, now time.Time) map[string]map[string]any {
	byKey := make(map[string]entry)
	for _, rec := range records {
		key, _ := catalog.Text(rec.Fields["key"])
		if key == "" || !active(rec.Fields, now) {
			continue
		}
		cur := entry{fields: rec.Fields, updated: updatedAt(rec)}
		if existing, ok := byKey[key]; ok && cur.updated.Before(existing.updated) {
			continue
		}
		byKey[key] = cur
	}
	out := make(map[string]map[string]any, len(byKey))
	for k, e := range byKey {
		out[k] = e.fields
	}
	return out
}

func text(raw any) string {
	if raw == nil {
		return ""
	}
	if s, ok := catalog.Text([]any{raw}); ok {
		return s
	}
	return ""
}

// BuildConfig resolves the known keys from the active settings.
func BuildConfig(active map[string]map[string]any) Config {
	cfg := Config{ActiveKeys: make([]string, 0, len(active))}
	for k := range active {
		cfg.ActiveKeys = append(cfg.ActiveKeys, k)
	}
	slices.Sort(cfg.ActiveKeys)

	threshold, hasThreshold := active[keyFreeShipping]
	if hasThreshold {
		cfg.FreeShippingEnabled = true
		if v, ok := ParseNumber(present(threshold, valueKeys)); ok {
			cfg.FreeShippingThreshold = &v
		}
		cfg.FreeShippingEffectiveFrom = text(first(threshold, fromKeys))
		cfg.FreeShippingEffectiveTo = text(first(threshold, toKeys))
	}

	currency := text(first(threshold, []string{"currency"}))
	if currency == "" {
		currency = text(first(active[keyCurrencyDefault], textKeys))
	}
	cfg.Currency = strings.ToUpper(currency)

	phone := text(first(active[keyCommercePhone], textKeys))
	if phone == "" {
		phone = text(first(active[keyPhone], textKeys))
	}
	cfg.WhatsAppPhone = contact.Digits(phone)
	return cfg
}

// ApplyPolicy composes the threshold with priority override > Airtable > defaults.
func ApplyPolicy(cfg Config, override *float64, defaults Defaults) Policy {
	p := Policy{
		FreeShippingEnabled:       cfg.FreeShippingEnabled,
		FreeShippingEffectiveFrom: cfg.FreeShippingEffectiveFrom,
		FreeShippingEffectiveTo:   cfg.FreeShippingEffectiveTo,
		Currency:                  cfg.Currency,
		WhatsAppPhone:             cfg.WhatsAppPhone,
	}
	switch {
	case override != nil:
		p.FreeShippingThreshold, p.ThresholdSource = *override, SourceQuery
	case cfg.FreeShippingThreshold != nil:
		p.FreeShippingThreshold, p.ThresholdSource = *cfg.FreeShippingThreshold, SourceAirtable
	default:
		p.FreeShippingThreshold, p.ThresholdSource = defaults.FreeShippingThreshold, SourceConfig
	}
	if p.Currency == "" {
		p.Currency = strings.ToUpper(strings.TrimSpace(defaults.Currency))
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	if p.WhatsAppPhone == "" {
		p.WhatsAppPhone = contact.Digits(defaults.WhatsAppPhone)
	}
	return p
}

type StoreConfigParams struct {
	Airtable catalog.RecordLister
	Table    string
	Cache    Cache
	TTL      time.Duration
	Defaults Defaults
	Logger   *logger.Logger
	Now      func() time.Time
}

// StoreConfigService resolves the key/value configuration behind a shared TTL cache.
type StoreConfigService struct {
	repo     catalog.RecordLister
	table    string
	cache    Cache
	ttl      time.Duration
	defaults Defaults
	logg     *logger.Logger
	now      func() time.Time
	flight   singleflight.Group

	mu        sync.RWMutex
	status    store.Status
	lastErr   error
	keys      int
	fetchedAt time.Time
}

func NewStoreConfigService(params StoreConfigParams) (*StoreConfigService, error) {
	table := strings.TrimSpace(params.Table)
	if table == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store config table is required")
	}
	if params.TTL <= 0 {
		params.TTL = 10 * time.Minute
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &StoreConfigService{
		repo:     params.Airtable,
		table:    table,
		cache:    params.Cache,
		ttl:      params.TTL,
		defaults: params.Defaults,
		logg:     params.Logger,
		now:      params.Now,
		status:   store.StatusIdle,
	}, nil
}

// Config returns the cached configuration, fetching it when the cache is cold.
func (s *StoreConfigService) Config(ctx context.Context) (Config, error) {
	if cfg, ok := s.cached(ctx); ok {
		return cfg, nil
	}
	return s.fetch(ctx)
}

// Policy never fails: when Airtable is unavailable the defaults apply and Error says why.
func (s *StoreConfigService) Policy(ctx context.Context, override *float64) Policy {
	cfg, err := s.Config(ctx)
	p := ApplyPolicy(cfg, override, s.defaults)
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

// FreeShippingThreshold serves the cart's shipping progress.
func (s *StoreConfigService) FreeShippingThreshold(ctx context.Context) (float64, string, error) {
	p := s.Policy(ctx, nil)
	return p.FreeShippingThreshold, p.Currency, nil
}

func (s *StoreConfigService) Name() string {
	return configStoreName
}

func (s *StoreConfigService) Warm(ctx context.Context) error {
	_, err := s.Config(ctx)
	return err
}

// Refresh bypasses the cache and overwrites it.
func (s *StoreConfigService) Refresh(ctx context.Context) error {
	_, err := s.fetch(ctx)
	return err
}

func (s *StoreConfigService) Report() store.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := store.Report{Name: configStoreName, Status: s.status, Items: s.keys, FetchedAt: s.fetchedAt}
	if s.lastErr != nil {
		r.Error = s.lastErr.Error()
	}
	return r
}

func (s *StoreConfigService) cached(ctx context.Context) (Config, bool) {
	if s.cache == nil {
		return Config{}, false
	}
	var cfg Config
	found, err := s.cache.GetJSON(ctx, s.cache.CacheKey(configCacheName), &cfg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "store_config.cache_read_failed")
		return Config{}, false
	}
	return cfg, found
}

func (s *StoreConfigService) fetch(ctx context.Context) (Config, error) {
	v, err, _ := s.flight.Do(configCacheName, func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return Config{}, err
	}
	return v.(Config), nil
}

func (s *StoreConfigService) load(ctx context.Context) (Config, error) {
	s.setStatus(store.StatusLoading, nil, -1)
	if s.repo == nil {
		err := pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured for store config")
		s.setStatus(store.StatusError, err, -1)
		return Config{}, err
	}
	records, err := s.repo.ListRecords(ctx, s.table, airtable.Query{})
	if err != nil {
		s.setStatus(store.StatusError, err, -1)
		s.logg.Error(s.logg.WithStore(ctx, configStoreName), "store.refresh.failed", err)
		return Config{}, err
	}
	active := ActiveSettings(records, s.now())
	cfg := BuildConfig(active)
	if _, ok := active[keyFreeShipping]; !ok {
		s.logg.Warn(s.logg.WithStore(ctx, configStoreName), "store_config.free_shipping_inactive")
	}
	s.setStatus(store.StatusReady, nil, len(cfg.ActiveKeys))

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, s.cache.CacheKey(configCacheName), cfg, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "store_config.cache_write_failed")
		}
	}
	return cfg, nil
}

func (s *StoreConfigService) setStatus(status store.Status, err error, keys int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.lastErr = err
	if keys >= 0 {
		s.keys = keys
		s.fetchedAt = s.now()
	}
}
