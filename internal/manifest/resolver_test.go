package manifest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yourorg/segment-sync/internal/scan"
	"github.com/yourorg/segment-sync/internal/storage"
)

type fakeStore struct {
	objects map[string]string
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func refs(keys ...string) []scan.Ref {
	out := make([]scan.Ref, len(keys))
	for i, k := range keys {
		out[i] = scan.Ref{Key: k}
	}
	return out
}

func TestResolveFlattensInOrder(t *testing.T) {
	store := &fakeStore{objects: map[string]string{
		"m1": `{"entries":[{"url":"s3://b/e/2024/01/02/1030000000/a.csv.gz"},{"url":"s3://b/e/2024/01/02/1030000000/b.csv.gz"}]}`,
		"m2": `{"entries":[{"url":"s3://b/e/2024/01/03/0900000000/c.csv.gz"}]}`,
	}}
	r := &Resolver{Store: store}
	urls, err := r.Resolve(context.Background(), refs("m1", "m2"))
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	want := []string{
		"s3://b/e/2024/01/02/1030000000/a.csv.gz",
		"s3://b/e/2024/01/02/1030000000/b.csv.gz",
		"s3://b/e/2024/01/03/0900000000/c.csv.gz",
	}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls; want %d", len(urls), len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d]=%q; want %q", i, urls[i], want[i])
		}
	}
}

func TestResolveEmptyEntries(t *testing.T) {
	store := &fakeStore{objects: map[string]string{"m1": `{"entries":[]}`}}
	urls, err := (&Resolver{Store: store}).Resolve(context.Background(), refs("m1"))
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if len(urls) != 0 {
		t.Fatalf("got %d urls; want 0", len(urls))
	}
}

func TestResolveMissingManifestAborts(t *testing.T) {
	store := &fakeStore{objects: map[string]string{"m1": `{"entries":[]}`}}
	_, err := (&Resolver{Store: store, Limit: 2}).Resolve(context.Background(), refs("m1", "gone"))
	if err == nil {
		t.Fatalf("expected error for missing manifest")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err=%v; want wrapped ErrNotFound", err)
	}
}

func TestResolveBadJSONAborts(t *testing.T) {
	store := &fakeStore{objects: map[string]string{"m1": `{"entries": [`}}
	if _, err := (&Resolver{Store: store}).Resolve(context.Background(), refs("m1")); err == nil {
		t.Fatalf("expected parse error")
	}
}
