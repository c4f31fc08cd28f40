// Package distributed gives go.temporal.io/sdk a genuine home as an
// optional, durable dispatch path for the Scheduler: a job fire may
// start a Temporal workflow execution whose single activity owns the
// BrowserDriver and calls the exact same Interpreter.Run the in-process
// path uses. Temporal only decides *where* a run executes, never *how*
// — see SPEC_FULL.md §4.8's distributed-dispatch expansion note.
package distributed

import (
	"context"

	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/service"
)

// RunActivityInput is the payload RunWorkflow passes to RunActivity.
type RunActivityInput struct {
	WorkflowName   string
	CredentialName string
	BrowserType    string
}

// Activities bundles the WorkflowService dependency Temporal's worker
// registers RunActivity against, mirroring the teacher's own
// Activities{LLMConfigs, ScreenshotDir} grouping in
// pkg/temporal/activities.
type Activities struct {
	svc *service.WorkflowService
}

// NewActivities returns an Activities bound to svc.
func NewActivities(svc *service.WorkflowService) *Activities {
	return &Activities{svc: svc}
}

// RunActivity executes one workflow run inside a Temporal Activity,
// which is exactly the context Activities are meant for: arbitrary
// blocking I/O (driver calls, Wait sleeps) that would violate workflow
// replay determinism if expressed as workflow code directly.
//
// Cancellation is observed via the activity context only; a running
// Scheduler job's local cancel signal is not propagated to a
// distributed run.
func (a *Activities) RunActivity(ctx context.Context, input RunActivityInput) (model.ExecutionLog, error) {
	cancel := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	return a.svc.Run(ctx, input.WorkflowName, input.CredentialName, input.BrowserType, cancel, nil)
}
