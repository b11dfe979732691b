package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/segment-sync/internal/types"
)

// ReconcileWorkflow runs one reconciliation as a single activity. The
// retry policy is pinned to one attempt: a failed run leaves the remote
// watermark untouched, so the next scheduled run picks the same window
// up again. Retrying inside the run would only double-process.
func ReconcileWorkflow(ctx workflow.Context, p types.ReconcileParams) (types.RunResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 1 * time.Hour,
		HeartbeatTimeout:    5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var res types.RunResult
	if err := workflow.ExecuteActivity(ctx, "Activities.ReconcileSegment", p).Get(ctx, &res); err != nil {
		return types.RunResult{}, err
	}
	return res, nil
}
