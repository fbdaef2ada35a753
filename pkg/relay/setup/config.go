package setup

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GoApiApiKey  string
	OpenAiApiKey string
	MongoUri     string

	ApiIpPort          string
	OpenAiModel        string
	OpenAiBaseUrl      string
	MidjourneyBaseUrl  string
	MongoDatabase      string
	AgentUsernames     []string
	StaticDir          string
	PinataJwtKey       string
	PollInterval       time.Duration
	PollMaxAttempts    int
	MaxConcurrentWaits int
	WaitTimeout        time.Duration
	LogLevel           string
	LogFormat          string
}

func NewConfigFromEnv() (*Config, error) {
	config := &Config{
		GoApiApiKey:       os.Getenv(EnvGoApiApiKey),
		OpenAiApiKey:      os.Getenv(EnvOpenAiApiKey),
		MongoUri:          os.Getenv(EnvMongoUri),
		ApiIpPort:         getEnv(EnvApiIpPort, DefaultApiIpPort),
		OpenAiModel:       os.Getenv(EnvOpenAiModel),
		OpenAiBaseUrl:     os.Getenv(EnvOpenAiBaseUrl),
		MidjourneyBaseUrl: os.Getenv(EnvMidjourneyBaseUrl),
		MongoDatabase:     os.Getenv(EnvMongoDatabase),
		AgentUsernames:    splitList(os.Getenv(EnvAgentUsernames)),
		StaticDir:         getEnv(EnvStaticDir, DefaultStaticDir),
		PinataJwtKey:      os.Getenv(EnvPinataJwtKey),
		LogLevel:          os.Getenv(EnvLogLevel),
		LogFormat:         os.Getenv(EnvLogFormat),
	}

	var err error
	if config.PollInterval, err = getEnvAsDuration(EnvPollInterval, 0); err != nil {
		return nil, err
	}
	if config.PollMaxAttempts, err = getEnvAsInt(EnvPollMaxAttempts, 0); err != nil {
		return nil, err
	}
	if config.MaxConcurrentWaits, err = getEnvAsInt(EnvMaxConcurrentWaits, DefaultMaxConcurrentWaits); err != nil {
		return nil, err
	}
	if config.WaitTimeout, err = getEnvAsDuration(EnvWaitTimeout, 0); err != nil {
		return nil, err
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.GoApiApiKey == "" {
		return errors.New("GOAPI_API_KEY is required")
	}
	if c.OpenAiApiKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.MongoUri == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.PollInterval < 0 {
		return errors.New("POLL_INTERVAL must not be negative")
	}
	if c.PollMaxAttempts < 0 {
		return errors.New("POLL_MAX_ATTEMPTS must not be negative")
	}
	if c.MaxConcurrentWaits <= 0 {
		return errors.New("MAX_CONCURRENT_WAITS must be positive")
	}
	if c.WaitTimeout < 0 {
		return errors.New("WAIT_TIMEOUT must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	return intValue, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	return duration, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
