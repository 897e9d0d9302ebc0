package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	infraBQ "github.com/dvloznov/statement-recon/internal/infra/bigquery"
	"github.com/dvloznov/statement-recon/internal/importer"
	"github.com/dvloznov/statement-recon/internal/ingest"
	"github.com/dvloznov/statement-recon/internal/logger"
	"github.com/dvloznov/statement-recon/internal/store"
	"github.com/dvloznov/statement-recon/internal/store/inmemory"
)

func main() {
	log := logger.ForService("ingest")

	var (
		fileURI  = flag.String("file", "", "Exchange file to import (local path or gs:// URI)")
		walletID = flag.String("wallet", "", "Wallet the imported transactions belong to")
		project  = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (or set GCP_PROJECT)")
		dataset  = flag.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset (or set BQ_DATASET)")
		dryRun   = flag.Bool("dry-run", false, "Run against an in-memory store instead of BigQuery")
	)
	flag.Parse()

	if *fileURI == "" || *walletID == "" {
		log.Fatal().Msg("Error: --file and --wallet are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var (
		txStore  store.TransactionStore
		registry store.BatchRegistry
	)

	if *dryRun {
		txStore = inmemory.NewTransactionStore()
		registry = inmemory.NewBatchRegistry()
	} else {
		if *project == "" || *dataset == "" {
			log.Fatal().Msg("Error: --project and --dataset are required unless --dry-run is set")
		}
		bqStore, err := infraBQ.NewStore(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create transaction store")
		}
		defer bqStore.Close()

		bqRegistry, err := infraBQ.NewRegistry(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create batch registry")
		}
		defer bqRegistry.Close()

		txStore = bqStore
		registry = bqRegistry
	}

	engine := ingest.NewEngine(txStore, registry, ingest.NewDefaultClassifier(), log)
	imp := importer.New(engine, log)

	log.Info().Str("file", *fileURI).Str("wallet", *walletID).Msg("Starting import")

	result, err := imp.ImportExchangeFile(ctx, *fileURI, *walletID)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	if result.AlreadyImported {
		fmt.Println("Batch was already imported; nothing to do.")
		return
	}

	fmt.Printf("Import completed: %d created, %d updated, %d errors.\n",
		result.Created, result.Updated, result.Errors)
	for _, detail := range result.ErrorDetails {
		fmt.Printf("  %s: %s\n", detail.RecordRef, detail.Reason)
	}
}
