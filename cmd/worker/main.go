package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	infraBQ "github.com/dvloznov/statement-recon/internal/infra/bigquery"
	"github.com/dvloznov/statement-recon/internal/importer"
	"github.com/dvloznov/statement-recon/internal/ingest"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/jobs/inmemory"
	"github.com/dvloznov/statement-recon/internal/logger"
)

func main() {
	log := logger.ForService("worker")

	var (
		project = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (or set GCP_PROJECT)")
		dataset = flag.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset (or set BQ_DATASET)")
	)
	flag.Parse()

	if *project == "" || *dataset == "" {
		log.Fatal().Msg("Error: --project and --dataset are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	txStore, err := infraBQ.NewStore(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction store")
	}
	defer txStore.Close()

	registry, err := infraBQ.NewRegistry(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create batch registry")
	}
	defer registry.Close()

	engine := ingest.NewEngine(txStore, registry, ingest.NewDefaultClassifier(), log)
	imp := importer.New(engine, log)

	// In production this would be replaced with Cloud Tasks or Pub/Sub.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportBatchJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", importJob.JobID).
			Str("file_uri", importJob.FileURI).
			Str("wallet_id", importJob.WalletID).
			Msg("Processing import job")

		result, err := imp.ImportExchangeFile(ctx, importJob.FileURI, importJob.WalletID)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", importJob.JobID).
				Msg("Import failed")
			return err
		}
		importJob.Result = &result

		log.Info().
			Str("job_id", importJob.JobID).
			Int("created", result.Created).
			Int("updated", result.Updated).
			Int("errors", result.Errors).
			Bool("already_imported", result.AlreadyImported).
			Msg("Import job completed")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
