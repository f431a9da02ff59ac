package units

import (
	"fmt"
	"time"
)

// FormatLapTime renders a lap time in the timing-screen convention
// m:ss.mmm (e.g. "1:32.726"). Zero or negative durations render as a
// placeholder since no timed lap exists.
func FormatLapTime(d time.Duration) string {
	if d <= 0 {
		return "-:--.---"
	}
	minutes := int(d / time.Minute)
	seconds := int(d/time.Second) % 60
	millis := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}

// FormatDelta renders a signed gap in seconds, e.g. "+0.377s".
func FormatDelta(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	return fmt.Sprintf("%s%.3fs", sign, d.Seconds())
}
