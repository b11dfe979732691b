package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/yourorg/segment-sync/internal/run"
	"github.com/yourorg/segment-sync/internal/types"
)

type Activities struct {
	base run.Pipeline
}

// New wraps a configured pipeline for Temporal execution.
func New(base run.Pipeline) *Activities { return &Activities{base: base} }

// ReconcileSegment runs one reconciliation, heartbeating as each
// pipeline stage completes.
func (a *Activities) ReconcileSegment(ctx context.Context, params types.ReconcileParams) (types.RunResult, error) {
	p := a.base
	p.Progress = func(stage string) {
		activity.RecordHeartbeat(ctx, stage)
	}
	return p.Run(ctx, params)
}
