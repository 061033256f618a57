package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"voice-chat/config"
	"voice-chat/internal/app"
)

// Dependencies is filled in by the root command before any subcommand runs.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	deps := &Dependencies{}
	var configPath, envFile string

	rootCmd := &cobra.Command{
		Use:           "voicechat",
		Short:         "Talk to a hosted LLM with your voice",
		Long:          "Records a spoken question, transcribes it, asks a hosted language model and speaks the answer back.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			deps.Config = cfg
			deps.Logger = app.NewLogger(cfg.Log, os.Stderr)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with environment variables to load")

	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewAskCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
