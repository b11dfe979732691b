// Command reconciler runs one reconciliation directly, for cron or
// timer invocation without a Temporal server. Exit status reflects the
// run outcome.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/yourorg/segment-sync/internal/config"
	"github.com/yourorg/segment-sync/internal/flagapi"
	ssmetrics "github.com/yourorg/segment-sync/internal/metrics"
	"github.com/yourorg/segment-sync/internal/notify"
	"github.com/yourorg/segment-sync/internal/run"
	"github.com/yourorg/segment-sync/internal/storage"
	"github.com/yourorg/segment-sync/internal/types"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "compute the patch set but skip the write-back")
	flag.Parse()

	zl := newZap(getenv("LOG_LEVEL", "info"))
	defer zl.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("config:", err)
	}
	ssmetrics.Init()

	ctx := context.Background()
	store, err := storage.NewS3(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal("s3 init:", err)
	}

	p := &run.Pipeline{
		Store: store,
		Segments: &flagapi.Client{
			BaseURL:     cfg.BaseURL,
			Token:       cfg.APIToken,
			Project:     cfg.ProjectKey,
			Environment: cfg.EnvironmentKey,
			Segment:     cfg.SegmentKey,
		},
		Notifier: &notify.Webhook{URL: cfg.WebhookURL, Logger: zl},
		Logger:   zl,
		Cfg:      cfg,
	}

	res, err := p.Run(ctx, types.ReconcileParams{DryRun: *dryRun})
	if err != nil {
		os.Exit(1)
	}
	zl.Info("run complete",
		zap.String("run_id", res.RunID),
		zap.Int("new_domains", res.NewDomains),
		zap.String("watermark", res.Watermark),
		zap.Bool("patched", res.Patched))
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func newZap(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
