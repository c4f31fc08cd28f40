// Package httpapi exposes WorkflowService and Scheduler over HTTP,
// adapted from the teacher's pkg/api.Handlers: gorilla/mux routing,
// rs/cors for browser clients, and a gorilla/websocket stream for
// in-flight run progress in place of the teacher's Temporal-query
// polling loop. See SPEC_FULL.md §2.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/scheduler"
	"dev/bravebird/workflow-engine/pkg/service"
)

// Handlers wires a WorkflowService and an optional Scheduler to HTTP
// routes. Scheduler may be nil, in which case the /jobs routes respond
// 503.
type Handlers struct {
	svc       *service.WorkflowService
	sched     *scheduler.Scheduler
	upgrader  websocket.Upgrader
	defBrowse string
}

// NewHandlers returns Handlers over svc, optionally driving sched, with
// defaultBrowser used by /workflows/{name}/run when the request omits
// one.
func NewHandlers(svc *service.WorkflowService, sched *scheduler.Scheduler, defaultBrowser string) *Handlers {
	if defaultBrowser == "" {
		defaultBrowser = "chrome"
	}
	return &Handlers{
		svc:       svc,
		sched:     sched,
		defBrowse: defaultBrowser,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ==================== Workflow handlers ====================

func (h *Handlers) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListWorkflows(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

func (h *Handlers) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.svc.CreateWorkflow(r.Context(), name); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (h *Handlers) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var actions []any
	if err := json.NewDecoder(r.Body).Decode(&actions); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.SaveWorkflow(r.Context(), name, actions); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (h *Handlers) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	actions, err := h.svc.LoadWorkflow(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]map[string]any, len(actions))
	for i, a := range actions {
		out[i] = a.Serialize()
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ok, err := h.svc.DeleteWorkflow(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runRequest is the body /workflows/{name}/run accepts.
type runRequest struct {
	BrowserType    string `json:"browser_type"`
	CredentialName string `json:"credential_name"`
}

// RunWorkflow executes a workflow synchronously and returns the
// resulting ExecutionLog. StreamRun is the variant that also streams
// each action result over a WebSocket while the run is in progress.
func (h *Handlers) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req runRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body is valid, falls back to default
	browserType := req.BrowserType
	if browserType == "" {
		browserType = h.defBrowse
	}

	cancel := func() bool { return false }
	log, err := h.svc.Run(r.Context(), name, req.CredentialName, browserType, cancel, nil)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

// ==================== Template handlers ====================

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

func (h *Handlers) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var actions []any
	if err := json.NewDecoder(r.Body).Decode(&actions); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.SaveTemplate(r.Context(), name, actions); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ok, err := h.svc.DeleteTemplate(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		http.Error(w, "template not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==================== Credential handlers ====================

type createCredentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) CreateCredential(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req createCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.CreateCredential(r.Context(), name, req.Username, req.Password); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (h *Handlers) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ok, err := h.svc.DeleteCredential(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		http.Error(w, "credential not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListCredentials(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListCredentials(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

// ==================== Execution log handlers ====================

func (h *Handlers) GetLog(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log, ok, err := h.svc.GetLog(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		http.Error(w, "log not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

func (h *Handlers) ListLogSummaries(w http.ResponseWriter, r *http.Request) {
	workflowName := r.URL.Query().Get("workflow_name")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	summaries, err := h.svc.ListLogSummaries(r.Context(), workflowName, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// ==================== Scheduler handlers ====================

type scheduleJobRequest struct {
	WorkflowName   string `json:"workflow_name"`
	CredentialName string `json:"credential_name"`
	BrowserType    string `json:"browser_type"`
	Cron           string `json:"cron"`
	IntervalSec    int    `json:"interval_seconds"`
	At             string `json:"at"` // RFC3339, for one-shot jobs
}

func (h *Handlers) ScheduleJob(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		http.Error(w, "scheduler not configured", http.StatusServiceUnavailable)
		return
	}
	var req scheduleJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	spec := scheduler.JobSpec{
		WorkflowName:   req.WorkflowName,
		CredentialName: req.CredentialName,
		BrowserType:    req.BrowserType,
		Cron:           req.Cron,
	}
	if req.IntervalSec > 0 {
		spec.Interval = secondsToDuration(req.IntervalSec)
	}
	if req.At != "" {
		at, err := parseRFC3339(req.At)
		if err != nil {
			http.Error(w, "invalid at timestamp: "+err.Error(), http.StatusBadRequest)
			return
		}
		spec.At = at
	}

	id, err := h.sched.Schedule(spec)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		http.Error(w, "scheduler not configured", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, h.sched.List())
}

func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		http.Error(w, "scheduler not configured", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	if !h.sched.Cancel(id) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==================== Streaming run ====================

// StreamRun runs a workflow and streams each ActionResult over a
// WebSocket as it completes, closing the connection with the final
// ExecutionLog. This is the interactive counterpart to RunWorkflow,
// replacing the teacher's Temporal-query polling loop
// (StreamRunUpdates) with the Progress channel the Interpreter itself
// exposes — no polling needed since this process runs the interpreter
// directly.
func (h *Handlers) StreamRun(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	browserType := r.URL.Query().Get("browser_type")
	if browserType == "" {
		browserType = h.defBrowse
	}
	credentialName := r.URL.Query().Get("credential_name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	progress := make(chan model.ActionResult, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range progress {
			_ = conn.WriteJSON(map[string]any{"type": "action_result", "payload": result})
		}
	}()

	cancel := func() bool { return false }
	executionLog, runErr := h.svc.Run(r.Context(), name, credentialName, browserType, cancel, progress)
	close(progress)
	<-done

	if runErr != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "payload": runErr.Error()})
		return
	}
	_ = conn.WriteJSON(map[string]any{"type": "final", "payload": executionLog})
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func parseRFC3339(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

// ==================== Helpers ====================

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps the errs taxonomy to an HTTP status, falling back
// to 500 for anything unrecognized.
func respondError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *errs.ValidationError:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case *errs.CredentialError:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		if err == errs.ErrNotFound {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err == errs.ErrAlreadyExists {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
