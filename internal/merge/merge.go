// Package merge turns the run's extracted domains into size-bounded
// patch operations against the remote segment and computes the new
// watermark.
package merge

import (
	"strings"
	"time"

	"github.com/yourorg/segment-sync/internal/flagapi"
	"github.com/yourorg/segment-sync/internal/normalize"
	"github.com/yourorg/segment-sync/internal/watermark"
)

// Default clause shape when the segment has no prior rule to copy from.
const (
	defaultAttribute = "domain"
	defaultOp        = "in"
)

// Input carries everything the engine needs from the earlier stages.
type Input struct {
	Domains   []string        // raw extracted values, pre-dedupe
	Segment   flagapi.Segment // current remote state
	FileURLs  []string        // every data-file URL seen this run
	Watermark time.Time       // watermark the run started from
	Limit     int             // max values per patch operation
}

// Plan is the computed write-back.
type Plan struct {
	Ops        []flagapi.PatchOperation
	NewDomains int       // deduplicated count added this run
	Watermark  time.Time // advanced, or carried forward unchanged
	Advanced   bool      // false when the trailing token was malformed
	Empty      bool      // zero new domains: no ops, no PATCH
}

// Build runs the aggregation steps in order: dedupe, empty short-circuit,
// watermark recompute, merge-mode selection, chunking.
func Build(in Input) Plan {
	domains := dedupe(in.Domains)
	if len(domains) == 0 {
		return Plan{Watermark: in.Watermark, Empty: true}
	}

	plan := Plan{NewDomains: len(domains), Watermark: in.Watermark}
	if ts, ok := latestFileTimestamp(in.FileURLs); ok {
		plan.Watermark = ts
		plan.Advanced = true
	}

	hasRule := len(in.Segment.Rules) > 0
	merged := domains
	if hasRule {
		merged = append(append([]string{}, existingValues(in.Segment)...), domains...)
	}

	firstOp := "add"
	if hasRule {
		firstOp = "replace"
	}
	clause := clauseTemplate(in.Segment)
	desc := watermark.Format(plan.Watermark)

	if in.Limit <= 0 {
		in.Limit = len(merged)
	}
	for start := 0; start < len(merged); start += in.Limit {
		end := start + in.Limit
		if end > len(merged) {
			end = len(merged)
		}
		op := "add"
		if start == 0 {
			op = firstOp
		}
		c := clause
		c.Values = merged[start:end]
		plan.Ops = append(plan.Ops, flagapi.PatchOperation{
			Op:    op,
			Path:  "/rules/0",
			Value: flagapi.Rule{Description: desc, Clauses: []flagapi.Clause{c}},
		})
	}
	return plan
}

// dedupe normalizes, drops empties and junk, and keeps first-seen order
// so output is deterministic.
func dedupe(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	var out []string
	for _, raw := range domains {
		d := normalize.Domain(raw)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

func existingValues(seg flagapi.Segment) []string {
	if len(seg.Rules) == 0 || len(seg.Rules[0].Clauses) == 0 {
		return nil
	}
	return seg.Rules[0].Clauses[0].Values
}

func clauseTemplate(seg flagapi.Segment) flagapi.Clause {
	if len(seg.Rules) > 0 && len(seg.Rules[0].Clauses) > 0 {
		c := seg.Rules[0].Clauses[0]
		c.Values = nil
		return c
	}
	return flagapi.Clause{Attribute: defaultAttribute, Op: defaultOp}
}

// latestFileTimestamp finds the chronologically last data-file URL by
// the same composite string key used to sort manifests, and decodes its
// embedded timestamp. URLs end in <YYYY>/<MM>/<DD>/<token>/<file>, so
// the date and token are read from the trailing path segments; the
// export prefix in front may be any depth. A malformed token means no
// watermark advance this run.
func latestFileTimestamp(urls []string) (time.Time, bool) {
	var bestKey, bestToken string
	var bestDate [3]string
	for _, u := range urls {
		parts := strings.Split(u, "/")
		n := len(parts)
		if n < 6 {
			continue
		}
		y, m, d, token := parts[n-5], parts[n-4], parts[n-3], parts[n-2]
		if len(y) != 4 || len(m) != 2 || len(d) != 2 || token == "" {
			continue
		}
		key := y + m + d + token
		if bestKey == "" || key > bestKey {
			bestKey, bestToken = key, token
			bestDate = [3]string{y, m, d}
		}
	}
	if bestKey == "" || len(bestToken) != 10 {
		return time.Time{}, false
	}

	year, ok1 := atoi(bestDate[0])
	month, ok2 := atoi(bestDate[1])
	day, ok3 := atoi(bestDate[2])
	hh, ok4 := atoi(bestToken[0:2])
	mm, ok5 := atoi(bestToken[2:4])
	ss, ok6 := atoi(bestToken[4:6])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hh, mm, ss, 0, time.UTC), true
}

func atoi(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
