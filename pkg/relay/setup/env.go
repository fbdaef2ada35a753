package setup

const (
	EnvGoApiApiKey        = "GOAPI_API_KEY"
	EnvOpenAiApiKey       = "OPENAI_API_KEY"
	EnvMongoUri           = "MONGO_URI"
	EnvApiIpPort          = "API_IP_PORT"
	EnvOpenAiModel        = "OPENAI_MODEL"
	EnvOpenAiBaseUrl      = "OPENAI_BASE_URL"
	EnvMidjourneyBaseUrl  = "MIDJOURNEY_BASE_URL"
	EnvMongoDatabase      = "MONGO_DATABASE"
	EnvAgentUsernames     = "AGENT_USERNAMES"
	EnvStaticDir          = "STATIC_DIR"
	EnvPinataJwtKey       = "PINATA_JWT_KEY"
	EnvPollInterval       = "POLL_INTERVAL"
	EnvPollMaxAttempts    = "POLL_MAX_ATTEMPTS"
	EnvMaxConcurrentWaits = "MAX_CONCURRENT_WAITS"
	EnvWaitTimeout        = "WAIT_TIMEOUT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
)

const (
	DefaultApiIpPort          = "0.0.0.0:10000"
	DefaultStaticDir          = "static"
	DefaultMaxConcurrentWaits = 4
)
