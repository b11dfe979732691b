package normalize

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// Domain canonicalizes an extracted email domain before dedupe and
// merge. It trims whitespace and a trailing dot, lowercases, and
// converts internationalized names to their ASCII (Punycode) form.
// Values that are empty or not plausible domain names return "", which
// callers drop.
//
// Normalization is total: a value idna rejects but dns accepts passes
// through lowercased rather than being lost.
func Domain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(s); err == nil {
		s = ascii
	}
	if _, ok := dns.IsDomainName(s); !ok {
		return ""
	}
	return s
}
