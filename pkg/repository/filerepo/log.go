package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
)

type logFile struct {
	ID              string               `json:"id"`
	WorkflowName    string               `json:"workflow_name"`
	StartTime       string               `json:"start_time"`
	EndTime         string               `json:"end_time"`
	DurationSeconds float64              `json:"duration_seconds"`
	FinalStatus     string               `json:"final_status"`
	ErrorMessage    string               `json:"error_message,omitempty"`
	ActionResults   []actionResultRecord `json:"action_results"`
}

type actionResultRecord struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SaveLog writes log as a new, uniquely-named file. Execution logs are
// append-only: this never overwrites an existing file.
func (r *Repository) SaveLog(ctx context.Context, log model.ExecutionLog) error {
	if log.ID == "" {
		return &errs.RepositoryError{Op: "save log", Cause: fmt.Errorf("execution log requires an id")}
	}
	filename := fmt.Sprintf("exec_%s_%s_%s_%s.json",
		log.WorkflowName,
		log.StartTime.UTC().Format("20060102_150405"),
		log.FinalStatus,
		log.ID[:minInt(8, len(log.ID))],
	)
	path := filepath.Join(r.logsDir, filename)

	results := make([]actionResultRecord, len(log.ActionResults))
	for i, ar := range log.ActionResults {
		results[i] = actionResultRecord{Status: string(ar.Status), Message: ar.Message}
	}
	data, err := json.MarshalIndent(logFile{
		ID:              log.ID,
		WorkflowName:    log.WorkflowName,
		StartTime:       log.StartTime.UTC().Format(time.RFC3339),
		EndTime:         log.EndTime.UTC().Format(time.RFC3339),
		DurationSeconds: log.DurationSeconds,
		FinalStatus:     string(log.FinalStatus),
		ErrorMessage:    log.ErrorMessage,
		ActionResults:   results,
	}, "", "  ")
	if err != nil {
		return &errs.SerializationError{Op: "marshal log", Cause: err}
	}
	return withLock(path, func() error {
		if _, err := os.Stat(path); err == nil {
			return &errs.RepositoryError{Op: "save log", Cause: errs.ErrAlreadyExists}
		}
		return atomicWrite(path, data, 0o644)
	})
}

// GetLog scans the logs directory for a file whose embedded ID matches.
func (r *Repository) GetLog(ctx context.Context, id string) (model.ExecutionLog, bool, error) {
	entries, err := os.ReadDir(r.logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ExecutionLog{}, false, nil
		}
		return model.ExecutionLog{}, false, &errs.RepositoryError{Op: "list logs", Cause: err}
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lf, err := readLogFile(filepath.Join(r.logsDir, e.Name()))
		if err != nil {
			continue
		}
		if lf.ID == id {
			return toExecutionLog(lf), true, nil
		}
	}
	return model.ExecutionLog{}, false, nil
}

// ListSummaries returns summaries for workflowName (or all workflows
// when empty), newest-first, capped at limit (0 means unlimited).
func (r *Repository) ListSummaries(ctx context.Context, workflowName string, limit int) ([]model.LogSummary, error) {
	entries, err := os.ReadDir(r.logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errs.RepositoryError{Op: "list logs", Cause: err}
	}
	var all []model.LogSummary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		lf, err := readLogFile(filepath.Join(r.logsDir, e.Name()))
		if err != nil {
			continue
		}
		if workflowName != "" && lf.WorkflowName != workflowName {
			continue
		}
		start, _ := time.Parse(time.RFC3339, lf.StartTime)
		all = append(all, model.LogSummary{
			ID:           lf.ID,
			WorkflowName: lf.WorkflowName,
			StartTime:    start,
			FinalStatus:  model.FinalStatus(lf.FinalStatus),
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func readLogFile(path string) (logFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return logFile{}, err
	}
	var lf logFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return logFile{}, err
	}
	return lf, nil
}

func toExecutionLog(lf logFile) model.ExecutionLog {
	start, _ := time.Parse(time.RFC3339, lf.StartTime)
	end, _ := time.Parse(time.RFC3339, lf.EndTime)
	results := make([]model.ActionResult, len(lf.ActionResults))
	for i, ar := range lf.ActionResults {
		results[i] = model.ActionResult{Status: model.ActionResultStatus(ar.Status), Message: ar.Message}
	}
	return model.ExecutionLog{
		ID:              lf.ID,
		WorkflowName:    lf.WorkflowName,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: lf.DurationSeconds,
		FinalStatus:     model.FinalStatus(lf.FinalStatus),
		ErrorMessage:    lf.ErrorMessage,
		ActionResults:   results,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
