package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-recon/internal/api/handlers"
	"github.com/dvloznov/statement-recon/internal/api/middleware"
	infraBQ "github.com/dvloznov/statement-recon/internal/infra/bigquery"
	"github.com/dvloznov/statement-recon/internal/importer"
	"github.com/dvloznov/statement-recon/internal/ingest"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/jobs/inmemory"
	"github.com/dvloznov/statement-recon/internal/logger"
)

func main() {
	var (
		port    = flag.String("port", "8080", "HTTP server port")
		bucket  = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for uploaded exchange files (or set GCS_BUCKET)")
		project = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (or set GCP_PROJECT)")
		dataset = flag.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset (or set BQ_DATASET)")
	)
	flag.Parse()

	log := logger.ForService("api")

	if *project == "" || *dataset == "" {
		log.Fatal().Msg("Error: --project and --dataset are required")
	}
	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - file uploads will fail")
	}

	ctx := context.Background()

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

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportBatchJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		result, err := imp.ImportExchangeFile(ctx, importJob.FileURI, importJob.WalletID)
		if err != nil {
			return err
		}
		importJob.Result = &result
		return nil
	}

	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	batchesHandler := handlers.NewBatchesHandler(jobQueue, jobStore, *bucket, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/batches/upload", batchesHandler.UploadBatch)
	mux.HandleFunc("POST /api/batches/import", batchesHandler.EnqueueImport)
	mux.HandleFunc("GET /api/jobs/{id}", batchesHandler.GetJob)
	mux.HandleFunc("GET /api/jobs", batchesHandler.ListJobs)

	handler := middleware.Recovery(log)(middleware.Logger(log)(mux))

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Info().Str("port", *port).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown failed")
	}

	log.Info().Msg("API server exited")
}
