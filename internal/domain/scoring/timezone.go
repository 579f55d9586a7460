package scoring

import (
	"sort"
	"strings"
)

// tzOffsets holds the standard UTC offsets, in hours, of the zones ranking
// knows about. Daylight saving is ignored.
var tzOffsets = map[string]float64{
	"UTC":                 0,
	"Asia/Singapore":      8,
	"America/New_York":    -5,
	"America/Los_Angeles": -8,
	"Europe/London":       0,
	"Europe/Paris":        1,
	"Asia/Tokyo":          9,
	"Australia/Sydney":    11,
	"America/Chicago":     -6,
	"America/Denver":      -7,
	"Asia/Kolkata":        5.5,
	"Asia/Shanghai":       8,
	"Europe/Berlin":       1,
	"Europe/Moscow":       3,
}

// OffsetHours returns the UTC offset of tz in hours. Unknown zones are
// treated as UTC.
func OffsetHours(tz string) float64 {
	return tzOffsets[strings.TrimSpace(tz)]
}

// KnownTimezone reports whether tz has an entry in the offset table.
func KnownTimezone(tz string) bool {
	_, ok := tzOffsets[strings.TrimSpace(tz)]
	return ok
}

// Timezones lists the zones of the offset table in name order.
func Timezones() []string {
	out := make([]string, 0, len(tzOffsets))
	for tz := range tzOffsets {
		out = append(out, tz)
	}
	sort.Strings(out)
	return out
}
