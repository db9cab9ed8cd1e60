// Package epoch maps simulated seconds to calendar dates
package epoch

import (
	"fmt"
	"math"
	"time"
)

// Epoch is simulated time zero
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Layout is the save-file date form: hour, minute, second, day, month, year
const Layout = "15:04:05:02:01:2006"

// Date returns the calendar time seconds after the epoch, truncated to whole seconds
// Exact beyond the ~292 year span of time.Duration
func Date(seconds float64) time.Time {
	return time.Unix(Epoch.Unix()+int64(math.Floor(seconds)), 0).UTC()
}

// Format renders seconds since the epoch as HH:MM:SS:DD:MM:YYYY
func Format(seconds float64) string {
	return Date(seconds).Format(Layout)
}

// Parse converts an HH:MM:SS:DD:MM:YYYY string to seconds since the epoch
// Dates before the epoch yield negative values
func Parse(s string) (float64, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("epoch: parse %q: %w", s, err)
	}
	return float64(t.Unix() - Epoch.Unix()), nil
}
