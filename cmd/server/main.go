// Command server hosts the workflow engine's HTTP API and background
// scheduler, wiring Config -> Repository -> CredentialStore ->
// WorkflowService -> Scheduler -> httpapi, in the teacher's
// cmd/api/main.go style (env-driven config, goroutine-hosted server,
// signal-triggered graceful shutdown).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"

	"dev/bravebird/workflow-engine/pkg/config"
	"dev/bravebird/workflow-engine/pkg/credential"
	"dev/bravebird/workflow-engine/pkg/distributed"
	"dev/bravebird/workflow-engine/pkg/httpapi"
	"dev/bravebird/workflow-engine/pkg/repository"
	"dev/bravebird/workflow-engine/pkg/repository/filerepo"
	"dev/bravebird/workflow-engine/pkg/repository/sqlrepo"
	"dev/bravebird/workflow-engine/pkg/rodriver"
	"dev/bravebird/workflow-engine/pkg/scheduler"
	"dev/bravebird/workflow-engine/pkg/service"
)

func main() {
	log.Println("Starting workflow engine server")

	configPath := getEnvOrDefault("ENGINE_CONFIG", "/etc/engine/engine.ini")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", configPath, err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to open repository: %v", err)
	}
	defer repo.Close()

	credStore, err := credential.New(repo.Credentials(), credential.Options{
		Method: cfg.Security.PasswordHashMethod,
		Strict: true,
	})
	if err != nil {
		log.Fatalf("Failed to build credential store: %v", err)
	}

	driverFactory := rodriver.NewFactory(rodriver.Options{Headless: true})
	svc := service.New(repo, credStore, driverFactory)

	runner, err := buildRunner(svc)
	if err != nil {
		log.Fatalf("Failed to build scheduler runner: %v", err)
	}
	sched := scheduler.New(runner, scheduler.DefaultWorkerPoolSize)
	defer sched.Shutdown()

	handlers := httpapi.NewHandlers(svc, sched, cfg.WebDriver.DefaultBrowser)
	router := httpapi.NewRouter(handlers)

	port := getEnvOrDefault("PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// openRepository picks the file or SQL backend per cfg.Repository.Type.
func openRepository(cfg config.Config) (repository.Repository, error) {
	switch cfg.Repository.Type {
	case config.RepositoryDatabase:
		repo, err := sqlrepo.New(cfg.Repository.DBPath)
		if err != nil {
			return nil, err
		}
		if cfg.Repository.CreateIfMissing {
			if err := repo.EnsureSchema(context.Background()); err != nil {
				return nil, err
			}
		}
		return repo, nil
	default:
		return filerepo.New(filerepo.Options{
			WorkflowsPath:   cfg.Repository.WorkflowsPath,
			CredentialsPath: cfg.Repository.CredentialsPath,
			CreateIfMissing: cfg.Repository.CreateIfMissing,
		})
	}
}

// buildRunner dials a Temporal cluster to back the Scheduler with the
// durable dispatch path when TEMPORAL_HOST is set; otherwise the
// Scheduler drives WorkflowService.Run directly, in-process.
func buildRunner(svc *service.WorkflowService) (scheduler.Runner, error) {
	host := os.Getenv("TEMPORAL_HOST")
	if host == "" {
		return svc, nil
	}
	c, err := client.Dial(client.Options{HostPort: host})
	if err != nil {
		return nil, err
	}
	return distributed.NewRunner(c, distributed.TaskQueue), nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
