package scan

import "time"

// Export keys embed time-of-day as a fixed-width, zero-padded numeric
// token (HHMMSS plus padding digits), so lexicographic order equals
// chronological order within a day. All comparisons go through
// TokenAfter so the fixed-width assumption lives in one place.

// MinuteBound returns the highest token within t's minute. The
// watermark phrase persisted in the rule description truncates
// seconds, so on re-read the whole minute has to count as processed:
// bounding at HHMM00 would re-admit tokens with non-zero seconds and
// re-process their files every run.
func MinuteBound(t time.Time) string {
	return t.UTC().Format("1504") + "99"
}

// TokenAfter reports whether token is strictly later than bound. The
// shorter operand is right-padded with zeros so tokens of differing
// widths (e.g. HHMMSS vs HHMMSS plus padding) compare on the same
// scale.
func TokenAfter(token, bound string) bool {
	token, bound = padPair(token, bound)
	return token > bound
}

func padPair(a, b string) (string, string) {
	for len(a) < len(b) {
		a += "0"
	}
	for len(b) < len(a) {
		b += "0"
	}
	return a, b
}
