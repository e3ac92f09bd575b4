package export

import (
	"fmt"
	"math"
)

// formatTimestamp renders a second offset as HH:MM:SS<sep>mmm. Every
// format shares this computation; only the separator between seconds
// and milliseconds differs (":" plain text/CSV, "," SRT, "." VTT).
func formatTimestamp(seconds float64, sep string) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))

	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, sep, millis)
}
