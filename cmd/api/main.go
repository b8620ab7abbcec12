// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/credentia/credential-runtime/internal/catalog"
	"github.com/credentia/credential-runtime/internal/config"
	"github.com/credentia/credential-runtime/internal/engine"
	"github.com/credentia/credential-runtime/internal/gateway"
	"github.com/credentia/credential-runtime/internal/logging"
	"github.com/credentia/credential-runtime/internal/persistence/postgres"
	"github.com/credentia/credential-runtime/internal/policy"
	"github.com/credentia/credential-runtime/internal/repository"
	"github.com/credentia/credential-runtime/internal/runner"
	"github.com/credentia/credential-runtime/internal/telemetry"
	httptransport "github.com/credentia/credential-runtime/internal/transport/http"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
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

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			log.Fatalf("schema bootstrap failed: %v", err)
		}
	}

	applicationRepo := repository.NewApplicationRepository(pool, logger)
	auditRepo := repository.NewStepAuditRepository(pool, logger)
	examinerRepo := repository.NewExaminerRepository(pool, logger)

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

	handler := httptransport.NewRouter(httptransport.Deps{
		Applications:     applicationRepo,
		Audit:            auditRepo,
		Engine:           eng,
		Runner:           run,
		Catalog:          cat,
		Examiners:        examinerRepo,
		ExaminerResolver: examinerRepo,
		HealthChecker:    postgres.NewSchemaHealthChecker(pool),
		Logger:           logger,
		AdminToken:       cfg.AdminToken,
		Version:          Version,
		Commit:           Commit,
		BuildDate:        BuildDate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			"addr", cfg.HTTPAddr,
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}
