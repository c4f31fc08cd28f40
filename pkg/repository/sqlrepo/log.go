package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository"
)

func (r *Repository) ExecutionLogs() repository.ExecutionLogRepo { return r }

type logPayload struct {
	ErrorMessage  string               `json:"error_message,omitempty"`
	ActionResults []model.ActionResult `json:"action_results"`
}

// SaveLog inserts a new execution log row. Execution logs are
// append-only: re-saving the same ID is an error, matching the file
// backend's never-overwrite guarantee.
func (r *Repository) SaveLog(ctx context.Context, log model.ExecutionLog) error {
	if log.ID == "" {
		return &errs.RepositoryError{Op: "save log", Cause: fmt.Errorf("execution log requires an id")}
	}
	payload, err := json.Marshal(logPayload{
		ErrorMessage:  log.ErrorMessage,
		ActionResults: log.ActionResults,
	})
	if err != nil {
		return &errs.SerializationError{Op: "marshal log", Cause: err}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO execution_logs (id, workflow_name, start_time, end_time, duration_seconds, final_status, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.WorkflowName, log.StartTime.UTC(), log.EndTime.UTC(), log.DurationSeconds, string(log.FinalStatus), string(payload))
	if err != nil {
		return &errs.RepositoryError{Op: "save log", Cause: err}
	}
	return nil
}

// GetLog fetches a single execution log by id.
func (r *Repository) GetLog(ctx context.Context, id string) (model.ExecutionLog, bool, error) {
	var log model.ExecutionLog
	var payloadJSON string
	var finalStatus string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workflow_name, start_time, end_time, duration_seconds, final_status, payload_json
		FROM execution_logs WHERE id = ?
	`, id).Scan(&log.ID, &log.WorkflowName, &log.StartTime, &log.EndTime, &log.DurationSeconds, &finalStatus, &payloadJSON)
	if err == sql.ErrNoRows {
		return model.ExecutionLog{}, false, nil
	}
	if err != nil {
		return model.ExecutionLog{}, false, &errs.RepositoryError{Op: "get log", Cause: err}
	}
	log.FinalStatus = model.FinalStatus(finalStatus)
	var payload logPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return model.ExecutionLog{}, false, &errs.SerializationError{Op: "unmarshal log", Cause: err}
	}
	log.ErrorMessage = payload.ErrorMessage
	log.ActionResults = payload.ActionResults
	return log, true, nil
}

// ListSummaries returns summaries for workflowName (or all workflows
// when empty), newest-first, capped at limit (0 means unlimited).
func (r *Repository) ListSummaries(ctx context.Context, workflowName string, limit int) ([]model.LogSummary, error) {
	query := `SELECT id, workflow_name, start_time, final_status FROM execution_logs`
	args := []any{}
	if workflowName != "" {
		query += ` WHERE workflow_name = ?`
		args = append(args, workflowName)
	}
	query += ` ORDER BY start_time DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &errs.RepositoryError{Op: "list logs", Cause: err}
	}
	defer rows.Close()

	var summaries []model.LogSummary
	for rows.Next() {
		var s model.LogSummary
		var finalStatus string
		if err := rows.Scan(&s.ID, &s.WorkflowName, &s.StartTime, &finalStatus); err != nil {
			return nil, &errs.RepositoryError{Op: "list logs", Cause: err}
		}
		s.FinalStatus = model.FinalStatus(finalStatus)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
