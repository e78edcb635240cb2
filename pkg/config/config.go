package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Airtable  AirtableConfig
	Chatbot   ChatbotConfig
	Store     StoreConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Chatbot.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAME_APP_ENV" required:"true"`
	Port         string `envconfig:"KAME_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KAME_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAME_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"KAME_REDIS_URL"`
	Address      string        `envconfig:"KAME_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"KAME_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAME_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAME_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAME_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAME_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAME_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"KAME_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// AirtableConfig holds credentials and table names. Token and base id are optional at
// boot; every Airtable-backed store reports a configuration error when they are missing.
type AirtableConfig struct {
	APIToken string        `envconfig:"KAME_AIRTABLE_API_TOKEN"`
	BaseID   string        `envconfig:"KAME_AIRTABLE_BASE_ID"`
	BaseURL  string        `envconfig:"KAME_AIRTABLE_BASE_URL" default:"https://api.airtable.com/v0"`
	Timeout  time.Duration `envconfig:"KAME_AIRTABLE_TIMEOUT" default:"20s"`

	ProductsTable        string `envconfig:"KAME_AIRTABLE_TABLE_NAME" default:"Productos"`
	BlogPostsTable       string `envconfig:"KAME_AIRTABLE_BLOG_TABLE" default:"Blog_Posts"`
	BlogCommentsTable    string `envconfig:"KAME_AIRTABLE_COMMENTS_TABLE" default:"Blog_Comments"`
	ContactTable         string `envconfig:"KAME_AIRTABLE_CONTACT_TABLE" default:"ContactInfo"`
	ContactBaseID        string `envconfig:"KAME_AIRTABLE_CONTACT_BASE_ID"`
	SiteSettingsTable    string `envconfig:"KAME_AIRTABLE_SETTINGS_TABLE" default:"SiteSettings"`
	SiteSettingsBaseID   string `envconfig:"KAME_AIRTABLE_SETTINGS_BASE_ID"`
	StoreConfigTable     string `envconfig:"KAME_AIRTABLE_STORE_CONFIG_TABLE" default:"Settings"`
	ContactMessagesTable string `envconfig:"KAME_AIRTABLE_MESSAGES_TABLE" default:"ContactMessages"`
	LeadsTable           string `envconfig:"KAME_AIRTABLE_LEADS_TABLE" default:"LeadsDistribuidores"`
}

// Configured reports whether the shared credentials are present.
func (a AirtableConfig) Configured() bool {
	return strings.TrimSpace(a.APIToken) != "" && strings.TrimSpace(a.BaseID) != ""
}

type ChatbotConfig struct {
	WebhookURL     string        `envconfig:"KAME_N8N_WEBHOOK_URL"`
	Source         string        `envconfig:"KAME_CHATBOT_SOURCE" default:"perfume-store-header-chatbot"`
	AttemptTimeout time.Duration `envconfig:"KAME_CHATBOT_ATTEMPT_TIMEOUT" default:"15s"`
	MaxAttempts    int           `envconfig:"KAME_CHATBOT_MAX_ATTEMPTS" default:"3"`
	BaseBackoff    time.Duration `envconfig:"KAME_CHATBOT_BASE_BACKOFF" default:"1s"`
	HistoryLimit   int           `envconfig:"KAME_CHATBOT_HISTORY_LIMIT" default:"30"`
	HistoryTTL     time.Duration `envconfig:"KAME_CHATBOT_HISTORY_TTL" default:"720h"`
	RatePerMinute  int           `envconfig:"KAME_CHATBOT_RATE_PER_MINUTE" default:"20"`
	RateBurst      int           `envconfig:"KAME_CHATBOT_RATE_BURST" default:"5"`
}

func (c ChatbotConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", EnvChatbotMaxAttempts)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("%s must be at least 1", EnvChatbotHistoryLimit)
	}
	return nil
}

type StoreConfig struct {
	FreeShippingThreshold float64       `envconfig:"KAME_FREE_SHIPPING_THRESHOLD" default:"150"`
	Currency              string        `envconfig:"KAME_CURRENCY" default:"USD"`
	WhatsAppPhone         string        `envconfig:"KAME_WHATSAPP_PHONE" default:"50582193629"`
	ConfigTTL             time.Duration `envconfig:"KAME_STORE_CONFIG_TTL" default:"10m"`
	FeaturedFallbackCode  string        `envconfig:"KAME_FEATURED_FALLBACK_CODE" default:"PH55"`
	RefreshInterval       time.Duration `envconfig:"KAME_STORE_REFRESH_INTERVAL" default:"0"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"KAME_SESSION_COOKIE" default:"kame_session"`
	LedgerTTL  time.Duration `envconfig:"KAME_SESSION_LEDGER_TTL" default:"2160h"`
	SecureOnly bool          `envconfig:"KAME_SESSION_SECURE" default:"false"`
}

type RateLimitConfig struct {
	SubmissionWindow     time.Duration `envconfig:"KAME_RATE_LIMIT_SUBMISSION_WINDOW" default:"10m"`
	SubmissionIPLimit    int           `envconfig:"KAME_RATE_LIMIT_SUBMISSION_IP_LIMIT" default:"20"`
	SubmissionEmailLimit int           `envconfig:"KAME_RATE_LIMIT_SUBMISSION_EMAIL_LIMIT" default:"5"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"KAME_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}
