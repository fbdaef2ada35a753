package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/NethermindEth/aiai-relay/pkg/relay/classifier"
	"github.com/NethermindEth/aiai-relay/pkg/relay/filestorage"
	"github.com/NethermindEth/aiai-relay/pkg/relay/midjourney"
	"github.com/NethermindEth/aiai-relay/pkg/relay/persona"
	"github.com/NethermindEth/aiai-relay/pkg/relay/setup"
	"github.com/NethermindEth/aiai-relay/pkg/relay/textgen"
)

type ImageClient interface {
	midjourney.Submitter
	midjourney.StatusFetcher
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Closer interface {
	Close(ctx context.Context) error
}

type Relay struct {
	classifier      classifier.Classifier
	imageClient     ImageClient
	poller          *midjourney.Poller
	textGenerator   textgen.TextGenerator
	personaStore    persona.Store
	personaResolver *persona.Resolver
	mirror          *filestorage.Mirror
	waitPool        pond.ResultPool[*midjourney.Task]
	apiRouter       *gin.Engine

	agentUsernames []string
	staticDir      string
	waitTimeout    time.Duration
	apiIpPort      string
}

type RelayConfig struct {
	Classifier    classifier.Classifier
	ImageClient   ImageClient
	TextGenerator textgen.TextGenerator
	PersonaStore  persona.Store
	Uploader      filestorage.Uploader

	PollInterval       time.Duration
	PollMaxAttempts    int
	MaxConcurrentWaits int
	WaitTimeout        time.Duration
	AgentUsernames     []string
	StaticDir          string
	ApiIpPort          string
}

const (
	defaultMaxConcurrentWaits = 4
	shutdownTimeout           = 10 * time.Second
)

func NewRelay(ctx context.Context, config *RelayConfig) (*Relay, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}
	if config.ImageClient == nil {
		return nil, errors.New("image client is nil")
	}
	if config.TextGenerator == nil {
		return nil, errors.New("text generator is nil")
	}
	if config.PersonaStore == nil {
		return nil, errors.New("persona store is nil")
	}

	requestClassifier := config.Classifier
	if requestClassifier == nil {
		requestClassifier = classifier.NewDefaultClassifier()
	}

	maxConcurrentWaits := config.MaxConcurrentWaits
	if maxConcurrentWaits <= 0 {
		maxConcurrentWaits = defaultMaxConcurrentWaits
	}

	poller := midjourney.NewPoller(midjourney.PollerOptions{
		Fetcher:      config.ImageClient,
		PollInterval: config.PollInterval,
		MaxAttempts:  config.PollMaxAttempts,
	})

	waitTimeout := config.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = poller.PollInterval() * time.Duration(poller.MaxAttempts())
	}

	var mirror *filestorage.Mirror
	if config.Uploader != nil {
		mirror = filestorage.NewMirror(config.Uploader)
	}

	relay := &Relay{
		classifier:      requestClassifier,
		imageClient:     config.ImageClient,
		poller:          poller,
		textGenerator:   config.TextGenerator,
		personaStore:    config.PersonaStore,
		personaResolver: persona.NewResolver(config.PersonaStore),
		mirror:          mirror,
		waitPool:        pond.NewResultPool[*midjourney.Task](maxConcurrentWaits, pond.WithContext(ctx)),
		apiRouter:       nil,

		agentUsernames: config.AgentUsernames,
		staticDir:      config.StaticDir,
		waitTimeout:    waitTimeout,
		apiIpPort:      config.ApiIpPort,
	}

	relay.apiRouter = relay.generateRouter()

	return relay, nil
}

func NewRelayConfigFromSetupResult(ctx context.Context, setupResult *setup.SetupResult) (*RelayConfig, error) {
	if setupResult == nil {
		return nil, errors.New("setup result is nil")
	}

	personaStore, err := persona.NewMongoStore(ctx, persona.MongoStoreOptions{
		Uri:      setupResult.MongoUri,
		Database: setupResult.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create persona store: %w", err)
	}

	var uploader filestorage.Uploader
	if setupResult.PinataJwtKey != "" {
		uploader = filestorage.NewPinataUploader(setupResult.PinataJwtKey)
	}

	return &RelayConfig{
		Classifier: classifier.NewDefaultClassifier(),
		ImageClient: midjourney.NewClient(midjourney.ClientOptions{
			ApiKey:     setupResult.GoApiApiKey,
			BaseUrl:    setupResult.MidjourneyBaseUrl,
			HttpClient: http.DefaultClient,
		}),
		TextGenerator: textgen.NewOpenAiGenerator(setupResult.OpenAiApiKey, setupResult.OpenAiModel, setupResult.OpenAiBaseUrl),
		PersonaStore:  personaStore,
		Uploader:      uploader,

		PollInterval:       setupResult.PollInterval,
		PollMaxAttempts:    setupResult.PollMaxAttempts,
		MaxConcurrentWaits: setupResult.MaxConcurrentWaits,
		WaitTimeout:        setupResult.WaitTimeout,
		AgentUsernames:     setupResult.AgentUsernames,
		StaticDir:          setupResult.StaticDir,
		ApiIpPort:          setupResult.ApiIpPort,
	}, nil
}

// Start serves the API until ctx is done, then shuts the server down and
// releases the relay's resources.
func (r *Relay) Start(ctx context.Context) error {
	if r.apiIpPort == "" {
		return errors.New("api ip port is empty")
	}

	server := &http.Server{
		Addr:    r.apiIpPort,
		Handler: r.apiRouter,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "address", r.apiIpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	r.Close(closeCtx)

	return err
}

func (r *Relay) Close(ctx context.Context) {
	r.waitPool.StopAndWait()

	if closer, ok := r.personaStore.(Closer); ok {
		if err := closer.Close(ctx); err != nil {
			slog.Error("failed to close persona store", "error", err)
		}
	}
}

func (r *Relay) GetRouter() *gin.Engine {
	return r.apiRouter
}

func (r *Relay) ApiIpPort() string {
	return r.apiIpPort
}

func (r *Relay) WaitTimeout() time.Duration {
	return r.waitTimeout
}

func (r *Relay) AgentUsernames() []string {
	return r.agentUsernames
}
