package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/NethermindEth/aiai-relay/pkg/relay"
	"github.com/NethermindEth/aiai-relay/pkg/relay/debug"
	"github.com/NethermindEth/aiai-relay/pkg/relay/logging"
	"github.com/NethermindEth/aiai-relay/pkg/relay/setup"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		slog.Error("relay exited with error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr string
	var envFile string

	cmd := &cobra.Command{
		Use:           "relay",
		Short:         "Relay prompts to Midjourney and OpenAI over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), envFile, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides "+setup.EnvApiIpPort)
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	return cmd
}

func run(ctx context.Context, envFile string, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupResult, err := setup.Setup(ctx, envFile)
	if err != nil {
		return fmt.Errorf("failed to setup: %w", err)
	}

	syncLogs, err := logging.Setup(setupResult.LogLevel, setupResult.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer syncLogs()

	if addr != "" {
		setupResult.ApiIpPort = addr
	}

	if !debug.IsDebugGin() {
		gin.SetMode(gin.ReleaseMode)
	}

	relayConfig, err := relay.NewRelayConfigFromSetupResult(ctx, setupResult)
	if err != nil {
		return fmt.Errorf("failed to create relay config: %w", err)
	}

	r, err := relay.NewRelay(ctx, relayConfig)
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	return r.Start(ctx)
}
