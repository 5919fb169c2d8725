package model

import (
	"fmt"
	"math"
)

// FormatClock renders an hours-of-day float as a 12-hour clock string,
// e.g. 14.5 -> "2:30 PM".
func FormatClock(hours float64) string {
	h := int(hours)
	minutes := int(math.Round((hours - float64(h)) * 60))
	if minutes == 60 {
		h++
		minutes = 0
	}

	suffix := "AM"
	display := h % 24
	if display >= 12 {
		suffix = "PM"
	}
	display = display % 12
	if display == 0 {
		display = 12
	}

	return fmt.Sprintf("%d:%02d %s", display, minutes, suffix)
}

// FormatDuration renders a duration in hours as a human string,
// e.g. 1.5 -> "1.5 hours", 1 -> "1 hour", 0.5 -> "30 minutes".
func FormatDuration(hours float64) string {
	if hours < 1 {
		return fmt.Sprintf("%d minutes", int(math.Round(hours*60)))
	}
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%g hours", hours)
}
