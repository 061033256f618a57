package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"voice-chat/internal/app"
	"voice-chat/internal/application"
	"voice-chat/internal/infra/audio"
	"voice-chat/internal/output"
)

func NewAskCmd(deps *Dependencies) *cobra.Command {
	var outPath string
	var play bool

	cmd := &cobra.Command{
		Use:   "ask <recording.wav>",
		Short: "Run one recording through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if cmd.Flags().Changed("play") {
				cfg.Playback.Enabled = play
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			capture, info, err := audio.LoadCapture(args[0])
			if err != nil {
				return err
			}
			if want := application.DefaultCaptureFormat(); info.Format() != want {
				deps.Logger.Warn("recording format differs from what the recognizer expects",
					"got", info.Format(), "want", want)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := app.New(ctx, cfg, deps.Logger)
			if err != nil {
				return fmt.Errorf("initializing app: %w", err)
			}
			defer a.Close()

			turn, runErr := a.Pipeline().Run(ctx, capture, outPath)
			output.NewFormatter(cmd.OutOrStdout()).Turn(turn)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", application.OutputFileName, "where to write the spoken reply")
	cmd.Flags().BoolVar(&play, "play", false, "play the reply on the default output device")
	return cmd
}
