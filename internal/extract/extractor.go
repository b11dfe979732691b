// Package extract pulls domain values out of the compressed CSV data
// files referenced by manifests.
package extract

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/segment-sync/internal/storage"
)

// Extractor fetches data files and extracts column 0 of every row.
type Extractor struct {
	Store  storage.ObjectStore
	Bucket string
	Limit  int // max concurrent fetches; <=0 means unlimited
	Logger *zap.Logger
	// OnSkip is called for each file that contributed nothing because it
	// was missing, empty, or unreadable. Optional.
	OnSkip func(url string, reason error)
}

// Result is the outcome of one run of Extract.
type Result struct {
	Domains []string // flattened, in file order, unfiltered
	Skipped int      // files that contributed nothing
}

// Extract processes every data-file URL concurrently. A file that is
// missing, empty, or unreadable yields an explicit empty contribution
// and is counted, never a failure: one bad data file must not abort the
// run. The returned error is reserved for context cancellation.
func (e *Extractor) Extract(ctx context.Context, urls []string) (Result, error) {
	perFile := make([][]string, len(urls))
	skipped := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	if e.Limit > 0 {
		g.SetLimit(e.Limit)
	}
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			domains, err := e.extractOne(gctx, u)
			if err != nil {
				// A cancelled fetch is not a bad file; surface it so the
				// run aborts instead of recording a bogus skip.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				skipped[i] = true
				e.skip(u, err)
				return nil
			}
			perFile[i] = domains
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for i := range urls {
		if skipped[i] {
			res.Skipped++
		}
		res.Domains = append(res.Domains, perFile[i]...)
	}
	return res, nil
}

func (e *Extractor) extractOne(ctx context.Context, url string) ([]string, error) {
	key, ok := KeyFromURL(url, e.Bucket)
	if !ok {
		return nil, errors.New("url outside configured bucket")
	}
	rc, err := e.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	gr, err := gzip.NewReader(rc)
	if err != nil {
		// io.EOF here means a zero-byte object: already gone, skip.
		return nil, err
	}
	defer gr.Close()

	cr := csv.NewReader(gr)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		out = append(out, rec[0])
	}
	return out, nil
}

func (e *Extractor) skip(url string, reason error) {
	if e.Logger != nil {
		e.Logger.Warn("skipping data file", zap.String("url", url), zap.Error(reason))
	}
	if e.OnSkip != nil {
		e.OnSkip(url, reason)
	}
}

// KeyFromURL strips the object-store scheme and bucket from a data-file
// URL, returning the bare key.
func KeyFromURL(url, bucket string) (string, bool) {
	prefix := "s3://" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
