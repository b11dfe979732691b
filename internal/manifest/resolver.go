// Package manifest resolves manifest objects into the data-file URLs
// they index. A manifest is a small JSON document:
//
//	{"entries": [{"url": "s3://bucket/..."}, ...]}
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/segment-sync/internal/scan"
	"github.com/yourorg/segment-sync/internal/storage"
)

type document struct {
	Entries []struct {
		URL string `json:"url"`
	} `json:"entries"`
}

// Resolver fetches and parses manifests.
type Resolver struct {
	Store storage.ObjectStore
	Limit int // max concurrent fetches; <=0 means unlimited
}

// Resolve fetches every manifest concurrently and returns the flattened
// list of data-file URLs, preserving manifest order. Any fetch or parse
// failure fails the whole resolve: a partially read manifest risks
// incomplete domain coverage.
func (r *Resolver) Resolve(ctx context.Context, refs []scan.Ref) ([]string, error) {
	perManifest := make([][]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			urls, err := r.resolveOne(gctx, ref.Key)
			if err != nil {
				return err
			}
			perManifest[i] = urls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, urls := range perManifest {
		all = append(all, urls...)
	}
	return all, nil
}

func (r *Resolver) resolveOne(ctx context.Context, key string) ([]string, error) {
	rc, err := r.Store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest %s: %w", key, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", key, err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", key, err)
	}

	urls := make([]string, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		urls = append(urls, e.URL)
	}
	return urls, nil
}
