// Parsing and formatting of short human duration tokens, like "10m", "1h" or "7d".
//
// Used for manual mute durations, warning escalation rules, and tuning flags on the daemon.
package duration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tokenRegex = regexp.MustCompile(`^(\d+)([smhd])$`)

var units = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// Parse converts a token like "10m" in to a time.Duration. The second return value is false for any malformed input (unknown unit, missing number, overflow); callers are responsible for reporting that to the user.
func Parse(s string) (time.Duration, bool) {
	m := tokenRegex.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	unit := units[m[2]]
	if val > math.MaxInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(val) * unit, true
}

// Format renders a duration using the largest unit which divides it evenly, eg "5 minutes" or "1 day".
func Format(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}
	for _, u := range []struct {
		name string
		dur  time.Duration
	}{
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
		{"second", time.Second},
	} {
		if d%u.dur == 0 {
			return plural(int64(d/u.dur), u.name)
		}
	}
	return d.String()
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
