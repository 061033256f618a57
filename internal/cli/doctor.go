package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voice-chat/config"
	"voice-chat/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials and prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			f := output.NewFormatter(cmd.OutOrStdout())
			ok := true

			f.SetupCheck("Speech", true, cfg.Speech.Provider+" ("+cfg.Speech.Language+")")
			f.SetupCheck("Completion", true, cfg.Completion.Provider+" "+cfg.Completion.Model)
			f.SetupCheck("Synthesis", true, cfg.Synthesis.Provider+" "+cfg.Synthesis.Voice)

			if err := cfg.Validate(); err != nil {
				ok = false
				for _, e := range unjoin(err) {
					f.SetupCheck("Config", false, e.Error())
				}
			} else {
				f.SetupCheck("Credentials", true, "configured")
			}

			if _, err := config.LoadSecrets(cfg.SecretsFile); err != nil {
				f.SetupCheck("Password", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Password", true, "set in "+cfg.SecretsFile)
			}

			if err := checkWritable(cfg.Session.OutputDir); err != nil {
				f.SetupCheck("Output directory", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Output directory", true, cfg.Session.OutputDir)
			}

			if cfg.Playback.Enabled {
				f.SetupCheck("Playback", true, "default output device")
			} else {
				f.SetupCheck("Playback", true, "disabled")
			}

			if ok {
				f.Success("\nAll prerequisites met. Ready to chat!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
