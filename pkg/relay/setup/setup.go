package setup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/NethermindEth/aiai-relay/pkg/relay/debug"
	"github.com/NethermindEth/aiai-relay/pkg/relay/midjourney"
	"github.com/NethermindEth/aiai-relay/pkg/relay/persona"
	"github.com/NethermindEth/aiai-relay/pkg/relay/textgen"
)

const redacted = "[redacted]"

type SetupResult struct {
	GoApiApiKey  string
	OpenAiApiKey string
	MongoUri     string
	PinataJwtKey string

	ApiIpPort          string
	OpenAiModel        string
	OpenAiBaseUrl      string
	MidjourneyBaseUrl  string
	MongoDatabase      string
	AgentUsernames     []string
	StaticDir          string
	PollInterval       time.Duration
	PollMaxAttempts    int
	MaxConcurrentWaits int
	WaitTimeout        time.Duration
	LogLevel           string
	LogFormat          string
}

var _ slog.LogValuer = (*SetupResult)(nil)

// Setup loads envFile (when present) into the environment and resolves the
// configuration. A missing envFile is not an error.
func Setup(ctx context.Context, envFile string) (*SetupResult, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	config, err := NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get config from env: %w", err)
	}

	setupResult := NewSetupResult(config)

	if debug.IsDebugShowSetup() {
		slog.Info("setup output", "setupOutput", setupResult)
	}

	return setupResult, nil
}

func NewSetupResult(config *Config) *SetupResult {
	setupResult := &SetupResult{
		GoApiApiKey:  config.GoApiApiKey,
		OpenAiApiKey: config.OpenAiApiKey,
		MongoUri:     config.MongoUri,
		PinataJwtKey: config.PinataJwtKey,

		ApiIpPort:          config.ApiIpPort,
		OpenAiModel:        config.OpenAiModel,
		OpenAiBaseUrl:      config.OpenAiBaseUrl,
		MidjourneyBaseUrl:  config.MidjourneyBaseUrl,
		MongoDatabase:      config.MongoDatabase,
		AgentUsernames:     config.AgentUsernames,
		StaticDir:          config.StaticDir,
		PollInterval:       config.PollInterval,
		PollMaxAttempts:    config.PollMaxAttempts,
		MaxConcurrentWaits: config.MaxConcurrentWaits,
		WaitTimeout:        config.WaitTimeout,
		LogLevel:           config.LogLevel,
		LogFormat:          config.LogFormat,
	}

	if setupResult.OpenAiModel == "" {
		setupResult.OpenAiModel = textgen.DefaultModel
	}
	if setupResult.MidjourneyBaseUrl == "" {
		setupResult.MidjourneyBaseUrl = midjourney.DefaultBaseUrl
	}
	if setupResult.MongoDatabase == "" {
		setupResult.MongoDatabase = persona.DefaultDatabase
	}
	if setupResult.PollInterval == 0 {
		setupResult.PollInterval = midjourney.DefaultPollInterval
	}
	if setupResult.PollMaxAttempts == 0 {
		setupResult.PollMaxAttempts = midjourney.DefaultMaxAttempts
	}
	if setupResult.WaitTimeout == 0 {
		setupResult.WaitTimeout = setupResult.PollInterval * time.Duration(setupResult.PollMaxAttempts)
	}

	return setupResult
}

func (s *SetupResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("goApiApiKey", redact(s.GoApiApiKey)),
		slog.String("openAiApiKey", redact(s.OpenAiApiKey)),
		slog.String("mongoUri", redact(s.MongoUri)),
		slog.String("pinataJwtKey", redact(s.PinataJwtKey)),
		slog.String("apiIpPort", s.ApiIpPort),
		slog.String("openAiModel", s.OpenAiModel),
		slog.String("openAiBaseUrl", s.OpenAiBaseUrl),
		slog.String("midjourneyBaseUrl", s.MidjourneyBaseUrl),
		slog.String("mongoDatabase", s.MongoDatabase),
		slog.Any("agentUsernames", s.AgentUsernames),
		slog.String("staticDir", s.StaticDir),
		slog.Duration("pollInterval", s.PollInterval),
		slog.Int("pollMaxAttempts", s.PollMaxAttempts),
		slog.Int("maxConcurrentWaits", s.MaxConcurrentWaits),
		slog.Duration("waitTimeout", s.WaitTimeout),
	)
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}

	err := godotenv.Load(envFile)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("env file not found, using process environment", "envFile", envFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	slog.Info("loaded env file", "envFile", envFile)

	return nil
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return redacted
}
