package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/kyou/internal/config"
	"github.com/matheuskafuri/kyou/internal/logging"
	"github.com/matheuskafuri/kyou/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(config.LogPath())
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()

	env, err := newAppEnv(logFile)
	if err != nil {
		return err
	}
	defer env.Close()

	return tui.Run(tui.RunOpts{
		Source:      env.service,
		CalendarURL: env.cfg.Garbage.CalendarURL,
		Timeout:     2 * env.cfg.TimeoutDuration(),
		OnBuilt:     env.markRefreshed,
	})
}
