package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	hintsNormal = " r refresh  j/k news  o open  g calendar  ? help  q quit "
	hintsHelp   = " ? close  q quit "
)

func renderStatusBar(lastUpdate time.Time, hits, misses int, width int, refreshing bool) string {
	left := " not loaded yet"
	if !lastUpdate.IsZero() {
		left = " updated " + relativeTime(lastUpdate)
	}
	left += fmt.Sprintf(" · cache %d/%d", hits, hits+misses)
	if refreshing {
		left += " (refreshing...)"
	}

	right := hintsNormal
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderBottomBar(hints string, width int) string {
	right := " " + hints + " "

	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(width).Render(fmt.Sprintf("%*s", gap, "") + right)
}
