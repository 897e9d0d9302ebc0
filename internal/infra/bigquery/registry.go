package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-recon/internal/store"
	"google.golang.org/api/iterator"
)

// Registry is the BigQuery-backed implementation of store.BatchRegistry.
type Registry struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRegistry creates a Registry with a shared BigQuery client.
func NewRegistry(ctx context.Context, projectID, datasetID string) (*Registry, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRegistry: bigquery client: %w", err)
	}
	return &Registry{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// NewRegistryWithClient creates a Registry over an existing client.
func NewRegistryWithClient(client *bigquery.Client, projectID, datasetID string) *Registry {
	return &Registry{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the underlying BigQuery client.
func (r *Registry) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// WasImported implements store.BatchRegistry.
func (r *Registry) WasImported(ctx context.Context, batchID string) (bool, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT batch_id
		FROM %s.%s
		WHERE batch_id = @batch_id
		LIMIT 1
	`, r.datasetID, batchImportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "batch_id", Value: batchID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("WasImported: query read: %w", err)
	}

	var row BatchImportRow
	err = it.Next(&row)
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("WasImported: iter next: %w", err)
	}
	return true, nil
}

// MarkImported implements store.BatchRegistry.
func (r *Registry) MarkImported(ctx context.Context, batchID string) error {
	row := &BatchImportRow{
		BatchID:    batchID,
		ImportedTS: time.Now(),
	}
	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(batchImportsTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("MarkImported: inserting row: %w", err)
	}
	return nil
}

var _ store.BatchRegistry = (*Registry)(nil)
