package main

import (
	"os"

	"voice-chat/internal/cli"
	"voice-chat/internal/output"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		output.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}
