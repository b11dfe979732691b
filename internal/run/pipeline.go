// Package run sequences one reconciliation: watermark, scan, resolve,
// extract, merge, write-back, notify.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/segment-sync/internal/config"
	"github.com/yourorg/segment-sync/internal/extract"
	"github.com/yourorg/segment-sync/internal/flagapi"
	"github.com/yourorg/segment-sync/internal/manifest"
	"github.com/yourorg/segment-sync/internal/merge"
	"github.com/yourorg/segment-sync/internal/metrics"
	"github.com/yourorg/segment-sync/internal/notify"
	"github.com/yourorg/segment-sync/internal/scan"
	"github.com/yourorg/segment-sync/internal/storage"
	"github.com/yourorg/segment-sync/internal/types"
	"github.com/yourorg/segment-sync/internal/watermark"
)

// SegmentService is the slice of the flag client the pipeline consumes.
type SegmentService interface {
	GetSegment(ctx context.Context) (flagapi.Segment, error)
	Patch(ctx context.Context, ops []flagapi.PatchOperation) error
}

// Notifier posts best-effort status messages.
type Notifier interface {
	Text(ctx context.Context, msg string)
	Blocks(ctx context.Context, text string, blocks []notify.Block)
}

// Pipeline holds one run's collaborators.
type Pipeline struct {
	Store    storage.ObjectStore
	Segments SegmentService
	Notifier Notifier
	Logger   *zap.Logger
	Cfg      config.Config

	// Now is a seam for tests; defaults to time.Now.
	Now func() time.Time
	// Progress, when set, is called as each stage completes. The Temporal
	// activity uses it to heartbeat.
	Progress func(stage string)
}

// Run executes one reconciliation. Every run ends in exactly one of:
// success with N new domains and an advanced watermark, success with 0
// new domains and the watermark unchanged, or a failure that is
// reported and leaves no remote state change.
func (p *Pipeline) Run(ctx context.Context, params types.ReconcileParams) (types.RunResult, error) {
	res, err := p.run(ctx, params)
	if err != nil {
		metrics.RunsFailed.Inc()
		p.Logger.Error("run failed", zap.String("run_id", res.RunID), zap.Error(err))
		p.Notifier.Text(ctx, fmt.Sprintf("segment sync run %s failed: %v", res.RunID, err))
		return res, err
	}
	metrics.RunsSucceeded.Inc()
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, params types.ReconcileParams) (types.RunResult, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	started := now()
	res := types.RunResult{RunID: uuid.NewString()}
	log := p.Logger.With(zap.String("run_id", res.RunID))

	seg, err := p.Segments.GetSegment(ctx)
	if err != nil {
		return res, fmt.Errorf("get segment %s: %w", p.Cfg.SegmentKey, err)
	}

	descs := make([]string, len(seg.Rules))
	for i, r := range seg.Rules {
		descs[i] = r.Description
	}
	wm, found := watermark.FromDescriptions(descs)
	if !found {
		wm = p.Cfg.FallbackDate
		log.Warn("no stored watermark, using fallback", zap.Time("fallback", wm))
		p.Notifier.Text(ctx, fmt.Sprintf(
			"segment sync run %s: no parseable watermark on segment %s, falling back to %s",
			res.RunID, p.Cfg.SegmentKey, watermark.Format(wm)))
	}
	res.Watermark = watermark.Format(wm)
	p.progress("watermark")

	days := scan.DateRange(wm, now())
	res.DaysScanned = len(days)

	scanner := &scan.Scanner{Store: p.Store, Prefix: p.Cfg.ExportPrefix, Limit: p.Cfg.MaxInFlight}
	refs, err := scanner.Scan(ctx, wm, days)
	if err != nil {
		return res, fmt.Errorf("scan manifests: %w", err)
	}
	res.Manifests = len(refs)
	metrics.ManifestsScanned.Add(float64(len(refs)))
	log.Info("scanned partitions", zap.Int("days", len(days)), zap.Int("manifests", len(refs)))
	p.progress("scan")

	resolver := &manifest.Resolver{Store: p.Store, Limit: p.Cfg.MaxInFlight}
	urls, err := resolver.Resolve(ctx, refs)
	if err != nil {
		return res, fmt.Errorf("resolve manifests: %w", err)
	}
	res.DataFiles = len(urls)
	p.progress("resolve")

	extractor := &extract.Extractor{
		Store:  p.Store,
		Bucket: p.Cfg.Bucket,
		Limit:  p.Cfg.MaxInFlight,
		Logger: log,
		OnSkip: func(url string, reason error) {
			metrics.FilesMissing.Inc()
			p.Notifier.Text(ctx, fmt.Sprintf("segment sync run %s: skipped data file %s: %v", res.RunID, url, reason))
		},
	}
	extracted, err := extractor.Extract(ctx, urls)
	if err != nil {
		return res, fmt.Errorf("extract domains: %w", err)
	}
	res.MissingFiles = extracted.Skipped
	metrics.FilesExtracted.Add(float64(len(urls) - extracted.Skipped))
	p.progress("extract")

	plan := merge.Build(merge.Input{
		Domains:   extracted.Domains,
		Segment:   seg,
		FileURLs:  urls,
		Watermark: wm,
		Limit:     p.Cfg.PatchValueLimit,
	})
	res.NewDomains = plan.NewDomains
	res.PatchOps = len(plan.Ops)
	res.Watermark = watermark.Format(plan.Watermark)
	res.ElapsedMS = time.Since(started).Milliseconds()

	if plan.Empty {
		log.Info("nothing to add, watermark unchanged")
		p.notifyOutcome(ctx, res, "no new domains")
		return res, nil
	}
	if !plan.Advanced {
		p.Notifier.Text(ctx, fmt.Sprintf(
			"segment sync run %s: latest data file has a malformed timestamp token, keeping watermark %s",
			res.RunID, res.Watermark))
	}

	if params.DryRun {
		log.Info("dry run, skipping write-back", zap.Int("new_domains", plan.NewDomains))
		p.notifyOutcome(ctx, res, "dry run, no write-back")
		return res, nil
	}

	if err := p.Segments.Patch(ctx, plan.Ops); err != nil {
		return res, fmt.Errorf("patch segment %s: %w", p.Cfg.SegmentKey, err)
	}
	res.Patched = true
	res.ElapsedMS = time.Since(started).Milliseconds()
	metrics.DomainsAdded.Add(float64(plan.NewDomains))
	log.Info("segment updated",
		zap.Int("new_domains", plan.NewDomains),
		zap.Int("patch_ops", len(plan.Ops)),
		zap.String("watermark", res.Watermark))
	p.progress("patch")

	p.notifyOutcome(ctx, res, fmt.Sprintf("%d new domains", plan.NewDomains))
	return res, nil
}

func (p *Pipeline) notifyOutcome(ctx context.Context, res types.RunResult, summary string) {
	p.Notifier.Blocks(ctx,
		fmt.Sprintf("segment sync run %s: %s", res.RunID, summary),
		[]notify.Block{
			notify.Section(notify.Mrkdwn("*segment sync* run `%s`: %s", res.RunID, summary)),
			notify.FieldSection(
				notify.Mrkdwn("*New domains*\n%d", res.NewDomains),
				notify.Mrkdwn("*Watermark*\n%s", res.Watermark),
				notify.Mrkdwn("*Manifests*\n%d", res.Manifests),
				notify.Mrkdwn("*Files*\n%d (%d skipped)", res.DataFiles, res.MissingFiles),
			),
		})
}

func (p *Pipeline) progress(stage string) {
	if p.Progress != nil {
		p.Progress(stage)
	}
}
