// Package model holds the aggregate data types persisted by Repository
// and produced by Interpreter: Workflow, Template, Credential, and
// ExecutionLog, per SPEC_FULL.md §3.
package model

import (
	"regexp"
	"time"

	"dev/bravebird/workflow-engine/pkg/action"
)

// NamePattern is the filesystem-safe identifier shape required of
// Workflow, Template and Credential names.
var NamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// ValidName reports whether name is non-empty and filesystem-safe.
func ValidName(name string) bool {
	return name != "" && NamePattern.MatchString(name)
}

// Workflow is a named, ordered sequence of actions.
type Workflow struct {
	Name       string
	Actions    []action.Action
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Template is a named, ordered sequence of actions stored in their
// serialized (map) form; it is expanded through a Factory at execution
// time rather than eagerly reconstructed into Action values.
type Template struct {
	Name       string
	ActionsRaw []any
	CreatedAt  time.Time
}

// Credential is a named {username, password_hash} pair. The plaintext
// password is never stored.
type Credential struct {
	Name         string
	Username     string
	PasswordHash string
}

// FinalStatus is the terminal outcome of a workflow run.
type FinalStatus string

const (
	StatusSuccess FinalStatus = "SUCCESS"
	StatusFailed  FinalStatus = "FAILED"
	StatusStopped FinalStatus = "STOPPED"
	StatusUnknown FinalStatus = "UNKNOWN"
)

// ActionResultStatus is the outcome of a single leaf action.
type ActionResultStatus string

const (
	ActionSuccess ActionResultStatus = "SUCCESS"
	ActionFailed  ActionResultStatus = "FAILED"
)

// ActionResult records the outcome of one executed leaf action.
type ActionResult struct {
	Status  ActionResultStatus
	Message string
}

// ExecutionLog is the append-only record of a single run.
type ExecutionLog struct {
	ID              string
	WorkflowName    string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds float64
	FinalStatus     FinalStatus
	ErrorMessage    string
	ActionResults   []ActionResult
}

// LogSummary is the lightweight view ExecutionLogRepo.ListSummaries
// returns, newest-first.
type LogSummary struct {
	ID           string
	WorkflowName string
	StartTime    time.Time
	FinalStatus  FinalStatus
}

// WorkflowMetadata is what WorkflowRepo.GetMetadata returns.
type WorkflowMetadata struct {
	CreatedAt  time.Time
	ModifiedAt time.Time
	Size       int
}
