package main

import (
	"context"
	"log"
	"os"
	"strings"

	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/segment-sync/internal/activities"
	"github.com/yourorg/segment-sync/internal/config"
	"github.com/yourorg/segment-sync/internal/flagapi"
	ssmetrics "github.com/yourorg/segment-sync/internal/metrics"
	"github.com/yourorg/segment-sync/internal/notify"
	"github.com/yourorg/segment-sync/internal/run"
	"github.com/yourorg/segment-sync/internal/storage"
	"github.com/yourorg/segment-sync/internal/workflow"
)

func main() {
	// Support both TEMPORAL_TARGET_HOST and TEMPORAL_ADDRESS for compatibility
	taddr := getenv("TEMPORAL_TARGET_HOST", getenv("TEMPORAL_ADDRESS", "localhost:7233"))
	ns := getenv("TEMPORAL_NAMESPACE", "default")
	q := getenv("TEMPORAL_TASK_QUEUE", "segment-sync")

	// Structured logger (zap)
	zl := newZap(getenv("LOG_LEVEL", "info"))
	defer zl.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("config:", err)
	}

	// Metrics server
	ssmetrics.Init()
	go func() {
		addr := ssmetrics.AddrFromEnv()
		_ = ssmetrics.Serve(addr)
	}()

	store, err := storage.NewS3(context.Background(), cfg.Bucket)
	if err != nil {
		log.Fatal("s3 init:", err)
	}

	pipeline := run.Pipeline{
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

	c, err := client.Dial(client.Options{HostPort: taddr, Namespace: ns})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, q, worker.Options{})
	acts := activities.New(pipeline)
	// Register activities with explicit names matching workflow.ExecuteActivity calls
	w.RegisterActivityWithOptions(acts.ReconcileSegment, tactivity.RegisterOptions{Name: "Activities.ReconcileSegment"})
	w.RegisterWorkflow(workflow.ReconcileWorkflow)

	zl.Info("worker started",
		zap.String("namespace", ns),
		zap.String("taskQueue", q),
		zap.String("segment", cfg.SegmentKey),
		zap.String("metrics", getenv("METRICS_ADDR", ":9090")))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
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
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
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
