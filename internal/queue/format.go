package queue

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatDuration renders a duration the way the status page shows it.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
}

// FormatOptional renders an optional duration, "unknown" when nil.
func FormatOptional(d *time.Duration) string {
	if d == nil {
		return "unknown"
	}
	return FormatDuration(*d)
}

// FormatSince renders t relative to now, e.g. "3 minutes ago".
func FormatSince(t, now time.Time) string {
	if t.After(now) {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
