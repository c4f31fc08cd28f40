package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter builds the complete routed handler: health check, the
// versioned API surface, and a permissive CORS wrapper, mirroring the
// teacher's cmd/api/main.go router assembly.
func NewRouter(h *Handlers) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/workflows", h.ListWorkflows).Methods(http.MethodGet)
	api.HandleFunc("/workflows/{name}", h.CreateWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{name}", h.SaveWorkflow).Methods(http.MethodPut)
	api.HandleFunc("/workflows/{name}", h.GetWorkflow).Methods(http.MethodGet)
	api.HandleFunc("/workflows/{name}", h.DeleteWorkflow).Methods(http.MethodDelete)
	api.HandleFunc("/workflows/{name}/run", h.RunWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{name}/stream", h.StreamRun).Methods(http.MethodGet)

	api.HandleFunc("/templates", h.ListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/templates/{name}", h.SaveTemplate).Methods(http.MethodPut)
	api.HandleFunc("/templates/{name}", h.DeleteTemplate).Methods(http.MethodDelete)

	api.HandleFunc("/credentials", h.ListCredentials).Methods(http.MethodGet)
	api.HandleFunc("/credentials/{name}", h.CreateCredential).Methods(http.MethodPost)
	api.HandleFunc("/credentials/{name}", h.DeleteCredential).Methods(http.MethodDelete)

	api.HandleFunc("/logs", h.ListLogSummaries).Methods(http.MethodGet)
	api.HandleFunc("/logs/{id}", h.GetLog).Methods(http.MethodGet)

	api.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs", h.ScheduleJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}", h.CancelJob).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}
