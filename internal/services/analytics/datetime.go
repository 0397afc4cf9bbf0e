package analytics

import (
	"strings"
	"time"
)

// istOffset is the fixed UTC+05:30 offset demo bookings are normalized to.
var istOffset = time.FixedZone("+05:30", 5*3600+30*60)

// outputLayout renders timestamps with an explicit numeric offset; combined
// with istOffset this always prints +05:30.
const outputLayout = "2006-01-02T15:04:05-07:00"

// Layouts carrying an explicit offset; values matching these are converted
// into +05:30 wall time.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// Layouts with no offset; values matching these are assumed to already be
// +05:30 local time.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeDemoDatetime normalizes a demo booking timestamp to ISO-8601 with
// a fixed +05:30 offset. Timestamps with any other explicit offset (or Z) are
// converted; timestamps with no offset are taken as already being +05:30
// local time. Ambiguous values such as a bare date yield "" rather than a
// guessed time.
func NormalizeDemoDatetime(value string) string {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.In(istOffset).Format(outputLayout)
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, istOffset); err == nil {
			return t.Format(outputLayout)
		}
	}

	// Date-only or free text: never guess a time.
	return ""
}
