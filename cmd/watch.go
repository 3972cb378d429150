package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

var flagWatchClear bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reprint the dashboard on an interval until interrupted",
	Long: `Rebuild and print the dashboard every watch_interval (default: 10m).

Cached sources are reused until their staleness window elapses, so a short
interval does not increase upstream traffic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv(os.Stderr)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loc, err := calendar.LoadZone(env.cfg.Timezone)
		if err != nil {
			return err
		}

		interval := env.cfg.WatchDuration()
		s := gocron.NewScheduler(loc)
		s.SingletonModeAll()

		_, err = s.Every(interval).Do(func() {
			if flagWatchClear {
				fmt.Print("\x1b[H\x1b[2J")
			}
			printPage(ctx, os.Stdout, env, flagWidth)
		})
		if err != nil {
			return fmt.Errorf("scheduling refresh: %w", err)
		}

		env.logger.Info("watching", "interval", interval)
		s.StartAsync()
		<-ctx.Done()
		s.Stop()
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&flagWatchClear, "clear", true, "clear the screen before each print")
}
