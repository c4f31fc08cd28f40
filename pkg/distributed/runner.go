package distributed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"dev/bravebird/workflow-engine/pkg/interpreter"
	"dev/bravebird/workflow-engine/pkg/model"
)

// Runner dispatches workflow runs to a Temporal cluster instead of
// running them in-process. It structurally satisfies scheduler.Runner,
// so a Scheduler can be constructed over either the local worker pool
// or this durable path without either package importing the other.
type Runner struct {
	client    client.Client
	taskQueue string
}

// NewRunner wraps an already-connected Temporal client. taskQueue
// defaults to TaskQueue when empty.
func NewRunner(c client.Client, taskQueue string) *Runner {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Runner{client: c, taskQueue: taskQueue}
}

// Run starts a RunWorkflow execution and blocks until it completes.
// cancel is not wired to Temporal's own cancellation API: interrupting
// a durable run is an explicit operator action (cancelling the Temporal
// workflow execution directly), not the Scheduler's local cancel
// signal.
func (r *Runner) Run(ctx context.Context, name, credentialName, browserType string, cancel interpreter.Cancel, progress chan<- model.ActionResult) (model.ExecutionLog, error) {
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("run-%s-%s", name, uuid.NewString()),
		TaskQueue: r.taskQueue,
	}
	run, err := r.client.ExecuteWorkflow(ctx, options, RunWorkflow, RunWorkflowInput{
		WorkflowName:   name,
		CredentialName: credentialName,
		BrowserType:    browserType,
	})
	if err != nil {
		return model.ExecutionLog{}, err
	}

	var result model.ExecutionLog
	if err := run.Get(ctx, &result); err != nil {
		return model.ExecutionLog{}, err
	}
	return result, nil
}
