package lp

import (
	"fmt"
	"time"
)

// FormatDuration formats d as h:mm:ss, or mm:ss when under an hour.
// Negative durations get a single leading minus sign.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	total := int64(d / time.Second)
	seconds := total % 60
	minutes := total / 60 % 60
	hours := total / 3600
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// maybeLink renders text as a markdown link when url is set.
func maybeLink(text, url string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}
