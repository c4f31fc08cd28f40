package distributed

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"dev/bravebird/workflow-engine/pkg/model"
)

// TaskQueue is the Temporal task queue cmd/worker registers against and
// Runner dispatches to.
const TaskQueue = "workflow-engine"

// RunWorkflowInput is the payload a Scheduler (or any caller) passes to
// start a durable run.
type RunWorkflowInput struct {
	WorkflowName   string
	CredentialName string
	BrowserType    string
}

// RunWorkflow is the Temporal workflow function: it owns no browser
// automation logic itself, only the single activity invocation that
// does. No retries — a partially completed browser automation run is
// not safely re-playable, so MaximumAttempts is pinned to 1 and
// failures surface as a FAILED ExecutionLog from the activity itself
// rather than as a workflow-level error when at all avoidable.
func RunWorkflow(ctx workflow.Context, input RunWorkflowInput) (model.ExecutionLog, error) {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result model.ExecutionLog
	err := workflow.ExecuteActivity(ctx, "RunActivity", RunActivityInput{
		WorkflowName:   input.WorkflowName,
		CredentialName: input.CredentialName,
		BrowserType:    input.BrowserType,
	}).Get(ctx, &result)
	return result, err
}
