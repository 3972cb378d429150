package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/kyou/internal/browser"
)

var openCmd = &cobra.Command{
	Use:   "open calendar | open news N",
	Short: "Open the garbage calendar or a news item in the browser",
	Long: `Open the municipal garbage collection calendar, or the N-th headline
of today's news (1-based, as numbered on the dashboard).`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"calendar", "news"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target, n, err := parseOpenArgs(args)
		if err != nil {
			return err
		}

		env, err := newAppEnv(os.Stderr)
		if err != nil {
			return err
		}
		defer env.Close()

		var link string
		switch target {
		case "calendar":
			link = env.cfg.Garbage.CalendarURL
			if link == "" {
				return fmt.Errorf("no garbage calendar configured")
			}
		case "news":
			ctx, cancel := context.WithTimeout(context.Background(), 2*env.cfg.TimeoutDuration())
			defer cancel()
			page := env.service.Build(ctx)
			if page.News.Err != nil {
				return page.News.Err
			}
			var ok bool
			if link, ok = page.Link(n - 1); !ok {
				return fmt.Errorf("news item %d not available (%d items)", n, len(page.News.Items))
			}
		}

		fmt.Println(link)
		return browser.Open(link)
	},
}

// parseOpenArgs validates "calendar" or "news N" and returns the target and
// the 1-based news index.
func parseOpenArgs(args []string) (string, int, error) {
	switch args[0] {
	case "calendar":
		if len(args) != 1 {
			return "", 0, fmt.Errorf("open calendar takes no further arguments")
		}
		return "calendar", 0, nil
	case "news":
		if len(args) != 2 {
			return "", 0, fmt.Errorf("open news requires the item number")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return "", 0, fmt.Errorf("invalid news item %q: must be a positive number", args[1])
		}
		return "news", n, nil
	default:
		return "", 0, fmt.Errorf("unknown target %q (valid: calendar, news)", args[0])
	}
}
