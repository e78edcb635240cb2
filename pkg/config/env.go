package config

const (
	EnvPrefix = "KAME"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "KAME_APP_ENV"
	EnvPort     = "KAME_APP_PORT"
	EnvLogLevel = "KAME_LOG_LEVEL"

	EnvRedisURL  = "KAME_REDIS_URL"
	EnvRedisAddr = "KAME_REDIS_ADDR"

	EnvAirtableToken         = "KAME_AIRTABLE_API_TOKEN"
	EnvAirtableBaseID        = "KAME_AIRTABLE_BASE_ID"
	EnvAirtableTable         = "KAME_AIRTABLE_TABLE_NAME"
	EnvAirtableContactBaseID = "KAME_AIRTABLE_CONTACT_BASE_ID"

	EnvChatbotWebhookURL   = "KAME_N8N_WEBHOOK_URL"
	EnvChatbotMaxAttempts  = "KAME_CHATBOT_MAX_ATTEMPTS"
	EnvChatbotHistoryLimit = "KAME_CHATBOT_HISTORY_LIMIT"

	EnvFreeShippingThreshold = "KAME_FREE_SHIPPING_THRESHOLD"
	EnvCORSOrigins           = "KAME_CORS_ORIGINS"
)
