// Command worker runs the Temporal worker backing the distributed
// dispatch path: it registers distributed.RunWorkflow and
// distributed.Activities.RunActivity against distributed.TaskQueue,
// in the teacher's cmd/worker/main.go style (env-driven Temporal host,
// worker.Run(worker.InterruptCh())).
package main

import (
	"context"
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"dev/bravebird/workflow-engine/pkg/config"
	"dev/bravebird/workflow-engine/pkg/credential"
	"dev/bravebird/workflow-engine/pkg/distributed"
	"dev/bravebird/workflow-engine/pkg/repository"
	"dev/bravebird/workflow-engine/pkg/repository/filerepo"
	"dev/bravebird/workflow-engine/pkg/repository/sqlrepo"
	"dev/bravebird/workflow-engine/pkg/rodriver"
	"dev/bravebird/workflow-engine/pkg/service"
)

func main() {
	temporalHost := getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")

	c, err := client.Dial(client.Options{HostPort: temporalHost})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

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
	activities := distributed.NewActivities(svc)

	w := worker.New(c, distributed.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     5,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})
	w.RegisterWorkflow(distributed.RunWorkflow)
	w.RegisterActivity(activities)

	log.Printf("Starting Temporal worker on task queue: %s", distributed.TaskQueue)
	log.Printf("Temporal host: %s", temporalHost)

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

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

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
