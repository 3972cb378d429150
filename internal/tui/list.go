package tui

import (
	"fmt"
	"strings"
	"time"
)

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2 15:04")
	}
}

// clipLines returns the height lines of content starting at offset. The
// offset is clamped so the last screen stays full; the clamped value is
// returned alongside.
func clipLines(content string, offset, height int) (string, int) {
	lines := strings.Split(content, "\n")
	if height <= 0 {
		return "", 0
	}
	maxOffset := max(0, len(lines)-height)
	offset = min(max(offset, 0), maxOffset)

	end := min(offset+height, len(lines))
	out := lines[offset:end]
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n"), offset
}

// lineOf returns the index of the first line containing needle, or -1.
func lineOf(content, needle string) int {
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, needle) {
			return i
		}
	}
	return -1
}
