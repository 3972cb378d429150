package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/kyou/internal/dashboard"
)

var flagWidth int

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print today's dashboard once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv(os.Stderr)
		if err != nil {
			return err
		}
		defer env.Close()

		printPage(cmd.Context(), os.Stdout, env, flagWidth)
		return nil
	},
}

func init() {
	printCmd.Flags().IntVar(&flagWidth, "width", 80, "output width in columns")
	watchCmd.Flags().IntVar(&flagWidth, "width", 80, "output width in columns")
}

// printPage builds one page, writes it to w and records the refresh.
func printPage(ctx context.Context, w io.Writer, env *appEnv, width int) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*env.cfg.TimeoutDuration())
	defer cancel()

	page := env.service.Build(ctx)
	env.markRefreshed(page)
	fmt.Fprintln(w, dashboard.Render(page, dashboard.Options{Width: width, Selected: -1}))
}

