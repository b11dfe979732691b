package watermark

import (
	"testing"
	"time"
)

func TestParseRoundTrip(t *testing.T) {
	want := time.Date(2024, time.May, 17, 14, 30, 0, 0, time.UTC)
	phrase := Format(want)
	if phrase != "May 17, 2024 at 2:30 PM" {
		t.Fatalf("Format=%q", phrase)
	}
	got, err := Parse(phrase)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip got %v; want %v", got, want)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "not a date", "2024-05-17", "domains synced nightly"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q) succeeded; want error", in)
		}
	}
}

func TestFromDescriptionsSkipsMalformed(t *testing.T) {
	want := time.Date(2024, time.January, 2, 9, 5, 0, 0, time.UTC)
	descs := []string{"", "owned by growth team", Format(want), Format(want.Add(time.Hour))}
	got, ok := FromDescriptions(descs)
	if !ok {
		t.Fatalf("FromDescriptions found nothing")
	}
	if !got.Equal(want) {
		t.Fatalf("got %v; want first parseable %v", got, want)
	}
}

func TestFromDescriptionsNoneParseable(t *testing.T) {
	if _, ok := FromDescriptions([]string{"x", "y"}); ok {
		t.Fatalf("expected no watermark")
	}
	if _, ok := FromDescriptions(nil); ok {
		t.Fatalf("expected no watermark for empty input")
	}
}
