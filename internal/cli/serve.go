package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voice-chat/config"
	"voice-chat/internal/app"
	"voice-chat/internal/application"
	"voice-chat/internal/infra/web"
	"voice-chat/internal/output"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the voice chat page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			logger := deps.Logger
			if addr != "" {
				cfg.Server.Addr = addr
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			secrets, err := config.LoadSecrets(cfg.SecretsFile)
			if err != nil {
				return err
			}
			gate, err := application.NewGate(secrets.Password)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initializing app: %w", err)
			}
			defer a.Close()

			store, err := a.SessionStore(ctx)
			if err != nil {
				return fmt.Errorf("opening session store: %w", err)
			}

			if err := os.MkdirAll(cfg.Session.OutputDir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}

			sessions := application.NewSessions(store, cfg.Session.TTL, cfg.Session.OutputDir, logger)
			if cfg.Session.SweepInterval > 0 {
				sessions.StartPeriodicSweep(ctx, cfg.Session.SweepInterval)
			}

			server := web.NewServer(web.Options{
				Addr:          cfg.Server.Addr,
				SecureCookies: cfg.Server.SecureCookies,
				WriteTimeout:  cfg.Server.WriteTimeout,
				RateLimit:     cfg.Server.RateLimit,
				RateWindow:    cfg.Server.RateWindow,
			}, sessions, gate, a.Pipeline(), a.Metrics.Handler(), logger)

			if err := server.Start(ctx); err != nil {
				return fmt.Errorf("starting server: %w", err)
			}

			logger.Info("starting voice chat",
				"speech", cfg.Speech.Provider,
				"completion", cfg.Completion.Provider,
				"model", cfg.Completion.Model,
				"synthesis", cfg.Synthesis.Provider,
				"speaker", a.Speaker.Name(),
			)
			output.NewFormatter(cmd.OutOrStdout()).Listening(cfg.Server.Addr)

			<-ctx.Done()
			logger.Info("shutting down")

			return server.Stop()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

