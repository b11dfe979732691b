package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/segment-sync/internal/storage"
)

// Ref identifies one discovered manifest.
type Ref struct {
	Year  string
	Month string
	Day   string
	Token string
	Key   string
}

// SortKey is the composite chronological key. Fixed-width segments make
// plain string comparison equal to chronological comparison.
func (r Ref) SortKey() string {
	return r.Year + r.Month + r.Day + r.Token
}

// ParseRef recovers a Ref from a manifest key of the form
// <prefix>/<YYYY>/<MM>/<DD>/<token>/manifest.
func ParseRef(key string) (Ref, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 5 || parts[len(parts)-1] != "manifest" {
		return Ref{}, false
	}
	n := len(parts)
	r := Ref{
		Year:  parts[n-5],
		Month: parts[n-4],
		Day:   parts[n-3],
		Token: parts[n-2],
		Key:   key,
	}
	if len(r.Year) != 4 || len(r.Month) != 2 || len(r.Day) != 2 || r.Token == "" {
		return Ref{}, false
	}
	return r, true
}

// Scanner discovers manifests newer than the watermark across a range
// of partition days.
type Scanner struct {
	Store  storage.ObjectStore
	Prefix string
	Limit  int // max concurrent day listings; <=0 means unlimited
}

// Scan lists each day's partition concurrently and returns the combined
// manifest entries sorted chronologically. On the watermark's own day,
// entries whose time token falls at or before the watermark minute are
// excluded; every later day is taken whole. A listing failure for any
// day fails the whole scan: an incomplete day could silently lose data.
func (s *Scanner) Scan(ctx context.Context, wm time.Time, days []time.Time) ([]Ref, error) {
	perDay := make([][]Ref, len(days))
	g, gctx := errgroup.WithContext(ctx)
	if s.Limit > 0 {
		g.SetLimit(s.Limit)
	}
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			refs, err := s.scanDay(gctx, wm, day)
			if err != nil {
				return err
			}
			perDay[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Ref
	for _, refs := range perDay {
		all = append(all, refs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SortKey() < all[j].SortKey() })
	return all, nil
}

func (s *Scanner) scanDay(ctx context.Context, wm time.Time, day time.Time) ([]Ref, error) {
	prefix := DayPrefix(s.Prefix, day)
	objects, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	// Only the watermark's own day is partially processed; any later
	// day is included in full, whatever its tokens.
	onWatermarkDay := sameDay(day, wm)
	bound := MinuteBound(wm)

	var refs []Ref
	for _, o := range objects {
		r, ok := ParseRef(o.Key)
		if !ok {
			continue
		}
		if onWatermarkDay && !TokenAfter(r.Token, bound) {
			continue
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// DayPrefix builds the date-partitioned listing prefix for one day.
func DayPrefix(prefix string, day time.Time) string {
	u := day.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/", strings.TrimSuffix(prefix, "/"), u.Year(), int(u.Month()), u.Day())
}

func sameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}
