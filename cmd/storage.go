package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/kyou/internal/cache"
	"github.com/matheuskafuri/kyou/internal/config"
)

const defaultPruneAge = 7 * 24 * time.Hour

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old payloads from the local cache",
	Long: `Delete cached payloads fetched longer ago than --older-than (default: 7d)
and reclaim disk space. Only the sqlite cache backend is affected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		age := defaultPruneAge
		if flagPruneOlderThan != "" {
			d, err := parseAge(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			age = d
		}

		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		deleted, err := db.Prune(age)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d payload(s) older than %s.\n", deleted, formatDuration(age))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		db, err := cache.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		entries, err := db.Entries()
		if err != nil {
			return fmt.Errorf("reading entries: %w", err)
		}

		fmt.Printf("Cache: %s\n", dbPath)
		fmt.Printf("Payloads: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		if lr, ok := db.LastRefresh(); ok {
			fmt.Printf("Last refresh: %s\n", lr.Format("2006-01-02 15:04"))
		}
		now := time.Now()
		for _, e := range entries {
			fmt.Printf("  %-10s %8s  fetched %s ago\n", e.Key, formatBytes(int64(len(e.Body))), formatDuration(now.Sub(e.FetchedAt)))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "age threshold (e.g., 30d, 720h)")
}

// parseAge accepts time.ParseDuration syntax plus an "Nd" day suffix.
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
