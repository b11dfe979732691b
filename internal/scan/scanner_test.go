package scan

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/segment-sync/internal/storage"
)

type fakeStore struct {
	objects map[string][]string // prefix -> keys
	errFor  string              // prefix that fails listing
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	if f.errFor != "" && strings.HasPrefix(prefix, f.errFor) {
		return nil, errors.New("listing exploded")
	}
	var out []storage.Object
	for _, k := range f.objects[prefix] {
		out = append(out, storage.Object{Key: k})
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func TestDateRange(t *testing.T) {
	wm := time.Date(2024, 1, 30, 16, 45, 0, 0, time.UTC)
	now := time.Date(2024, 2, 2, 3, 0, 0, 0, time.UTC)
	days := DateRange(wm, now)
	if len(days) != 4 {
		t.Fatalf("got %d days; want 4", len(days))
	}
	if !days[0].Equal(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first day %v", days[0])
	}
	if !days[3].Equal(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("last day %v", days[3])
	}
}

func TestDateRangeSameDay(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	days := DateRange(now, now)
	if len(days) != 1 {
		t.Fatalf("got %d days; want 1 (today)", len(days))
	}
}

func TestTokenAfter(t *testing.T) {
	cases := []struct {
		token, bound string
		want         bool
	}{
		{"1030450000", "103045", false}, // equal after padding: excluded
		{"1030450001", "103045", true},
		{"1030440000", "103045", false},
		{"1031000000", "103045", true},
	}
	for _, c := range cases {
		if got := TokenAfter(c.token, c.bound); got != c.want {
			t.Fatalf("TokenAfter(%q,%q)=%v; want %v", c.token, c.bound, got, c.want)
		}
	}
}

func TestMinuteBoundCoversWholeMinute(t *testing.T) {
	// the persisted watermark truncates seconds, so every token inside
	// the watermark minute must fall at or before the bound
	bound := MinuteBound(time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC))
	if bound != "103099" {
		t.Fatalf("bound=%q", bound)
	}
	for _, tok := range []string{"1030000000", "1030450000", "1030599999"} {
		if TokenAfter(tok, bound) {
			t.Fatalf("token %q escaped the watermark minute", tok)
		}
	}
	if !TokenAfter("1031000000", bound) {
		t.Fatalf("next minute must exceed the bound")
	}
}

func TestParseRef(t *testing.T) {
	r, ok := ParseRef("exports/domains/2024/01/02/1030450000/manifest")
	if !ok {
		t.Fatalf("ParseRef failed")
	}
	if r.Year != "2024" || r.Month != "01" || r.Day != "02" || r.Token != "1030450000" {
		t.Fatalf("unexpected ref %+v", r)
	}
	if r.SortKey() != "202401021030450000" {
		t.Fatalf("sort key %q", r.SortKey())
	}
	for _, bad := range []string{
		"exports/domains/2024/01/02/1030450000/part-0.csv.gz",
		"manifest",
		"exports/24/01/02/103045/manifest",
	} {
		if _, ok := ParseRef(bad); ok {
			t.Fatalf("ParseRef(%q) accepted", bad)
		}
	}
}

func TestScanIntraDayBoundary(t *testing.T) {
	wm := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	store := &fakeStore{objects: map[string][]string{
		"exports/2024/01/02/": {
			"exports/2024/01/02/1025000000/manifest",
			"exports/2024/01/02/1030000000/manifest", // watermark minute: excluded
			"exports/2024/01/02/1030450000/manifest", // same minute, non-zero seconds: still excluded
			"exports/2024/01/02/1031000000/manifest",
			"exports/2024/01/02/1159590000/manifest",
			"exports/2024/01/02/1159590000/part-0.csv.gz", // not a manifest
		},
	}}
	s := &Scanner{Store: store, Prefix: "exports"}
	refs, err := s.Scan(context.Background(), wm, []time.Time{wm})
	if err != nil {
		t.Fatalf("Scan err: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs; want 2: %+v", len(refs), refs)
	}
	if refs[0].Token != "1031000000" || refs[1].Token != "1159590000" {
		t.Fatalf("unexpected tokens: %+v", refs)
	}
}

func TestScanLaterDayTakesWholeDay(t *testing.T) {
	wm := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	store := &fakeStore{objects: map[string][]string{
		"exports/2024/01/02/": {"exports/2024/01/02/2300000000/manifest"},
		"exports/2024/01/03/": {
			"exports/2024/01/03/0000000000/manifest", // exact midnight still counts
			"exports/2024/01/03/0001000000/manifest",
			"exports/2024/01/03/0930000000/manifest",
		},
	}}
	s := &Scanner{Store: store, Prefix: "exports"}
	days := []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	refs, err := s.Scan(context.Background(), wm, days)
	if err != nil {
		t.Fatalf("Scan err: %v", err)
	}
	if len(refs) != 4 {
		t.Fatalf("got %d refs; want 4 (later days are taken whole)", len(refs))
	}
	if refs[1].Token != "0000000000" {
		t.Fatalf("midnight manifest dropped: %+v", refs)
	}
	// globally sorted regardless of which day listed first
	for i := 1; i < len(refs); i++ {
		if refs[i-1].SortKey() >= refs[i].SortKey() {
			t.Fatalf("refs out of order at %d: %+v", i, refs)
		}
	}
}

func TestScanListingFailureAborts(t *testing.T) {
	store := &fakeStore{
		objects: map[string][]string{"exports/2024/01/02/": {"exports/2024/01/02/1200000000/manifest"}},
		errFor:  "exports/2024/01/03/",
	}
	s := &Scanner{Store: store, Prefix: "exports", Limit: 4}
	days := []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.Scan(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), days); err == nil {
		t.Fatalf("expected scan to abort on listing failure")
	}
}
