// Package watermark reads and writes the run watermark that the
// pipeline smuggles through the segment rule description field. The
// convention is a human-readable phrase such as
// "January 2, 2006 at 3:04 PM", always UTC.
package watermark

import (
	"strings"
	"time"
)

const (
	// displayLayout is the phrase written back to the rule description.
	displayLayout = "January 2, 2006 at 3:04 PM"
	// parseLayout matches displayLayout after the " at" is stripped and
	// an explicit zone is appended.
	parseLayout = "January 2, 2006 3:04 PM MST"
)

// Parse converts a rule description into a watermark instant. The
// literal word " at" is stripped and a UTC suffix appended before
// parsing, so both the written phrase and bare variants round-trip.
func Parse(desc string) (time.Time, error) {
	s := strings.Replace(strings.TrimSpace(desc), " at", "", 1)
	t, err := time.Parse(parseLayout, s+" UTC")
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Format renders a watermark instant into the description phrase.
func Format(t time.Time) string {
	return t.UTC().Format(displayLayout)
}

// FromDescriptions searches rule descriptions in order and returns the
// first one that parses. Malformed descriptions are skipped, never
// fatal. The second return is false when nothing parsed and the caller
// should fall back to its configured default.
func FromDescriptions(descs []string) (time.Time, bool) {
	for _, d := range descs {
		if d == "" {
			continue
		}
		if t, err := Parse(d); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
