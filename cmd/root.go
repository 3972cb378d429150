package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/kyou/internal/update"
	"github.com/matheuskafuri/kyou/internal/upstream"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagRefresh bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "kyou",
	Short: "Today's dashboard in the terminal",
	Long:  "kyou shows today's date, public holidays, the regional weather forecast, garbage collection and top news in one terminal dashboard.",
	RunE:  runTUI,

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagRefresh, "refresh", false, "ignore cached data and fetch every source")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var flagCheckUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kyou %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheckUpdate {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client := upstream.New(upstream.Options{Timeout: 5 * time.Second, UserAgent: "kyou/" + version})
		if res := update.Check(ctx, client, update.ReleasesURL, version); res != nil {
			fmt.Printf("A newer version is available: %s\n", res.LatestVersion)
		} else {
			fmt.Println("You are up to date.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
