// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/credentia/credential-runtime/internal/catalog"
	"github.com/credentia/credential-runtime/internal/config"
	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/engine"
	"github.com/credentia/credential-runtime/internal/gateway"
	"github.com/credentia/credential-runtime/internal/logging"
	"github.com/credentia/credential-runtime/internal/persistence/postgres"
	"github.com/credentia/credential-runtime/internal/policy"
	"github.com/credentia/credential-runtime/internal/repository"
	"github.com/credentia/credential-runtime/internal/runner"
	"github.com/credentia/credential-runtime/internal/telemetry"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env)

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	applicationRepo := repository.NewApplicationRepository(pool, logger)
	auditRepo := repository.NewStepAuditRepository(pool, logger)

	eng := engine.New(engine.Deps{
		Instances: auditRepo,
		Sink:      auditRepo,
		Gateway: gateway.NewClient(gateway.ClientDeps{
			BaseURL: cfg.GatewayBaseURL,
			Logger:  logger,
			Timeout: cfg.GatewayTimeout,
		}),
		Policy: policy.NewClient(policy.ClientDeps{
			BaseURL: cfg.PolicyBaseURL,
			Logger:  logger,
			Timeout: cfg.PolicyTimeout,
		}),
		Progress: telemetry.NewLog(logger),
		Logger:   logger,
	})

	run := runner.New(runner.Deps{
		Engine:    eng,
		Instances: auditRepo,
		Logger:    logger,
	})

	logger.Info("runner started", "interval", cfg.RunnerInterval.String())

	ticker := time.NewTicker(cfg.RunnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("runner shutting down")
			return
		case <-ticker.C:
		}

		apps, err := applicationRepo.ListOpenApplications(ctx, 50)
		if err != nil {
			logger.Error("list open applications failed", "error", err)
			continue
		}

		for _, app := range apps {
			ordered, err := resolveOrder(cat, app.StepOrder)
			if err != nil {
				logger.Error("resolve step order failed",
					"application_id", app.ID,
					"error", err,
				)
				continue
			}

			if _, err := run.RunPass(ctx, app, ordered); err != nil {
				logger.Error("runner pass failed",
					"application_id", app.ID,
					"error", err,
				)
			}
		}
	}
}

func resolveOrder(cat *catalog.Catalog, stepIDs []string) ([]domain.StepDefinition, error) {
	ordered := make([]domain.StepDefinition, 0, len(stepIDs))
	for _, id := range stepIDs {
		step, err := cat.Get(id)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, step)
	}
	return ordered, nil
}
