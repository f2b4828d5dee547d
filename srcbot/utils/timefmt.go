package utils

import (
	"fmt"
	"math"
)

// FormatDuration renders a run time in seconds as h:mm:ss.mmm, dropping
// leading zero units and the millisecond part when absent.
func FormatDuration(totalSeconds float64) string {
	hours := int(totalSeconds) / 3600
	minutes := (int(totalSeconds) % 3600) / 60
	seconds := int(totalSeconds) % 60
	millis := int(math.Round((totalSeconds - math.Floor(totalSeconds)) * 1000))
	if millis >= 1000 {
		millis = 999
	}

	var out string
	switch {
	case hours > 0:
		out = fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	case minutes > 0:
		out = fmt.Sprintf("%d:%02d", minutes, seconds)
	default:
		out = fmt.Sprintf("%d", seconds)
	}
	if millis > 0 {
		out += fmt.Sprintf(".%03d", millis)
	}
	return out
}

// TruncateChoiceName fits a display name into Discord's 100-character
// autocomplete limit, keeping the head and the tail of the name.
func TruncateChoiceName(name string) string {
	if len(name) <= 100 {
		return name
	}
	return name[:86] + "..." + name[len(name)-11:]
}
