package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/store"
	"google.golang.org/api/iterator"
)

// Store is the BigQuery-backed implementation of store.TransactionStore.
// It holds a shared client to avoid creating a new connection for each
// operation.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewStore creates a Store with a shared BigQuery client.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: bigquery client: %w", err)
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// NewStoreWithClient creates a Store over an existing client.
func NewStoreWithClient(client *bigquery.Client, projectID, datasetID string) *Store {
	return &Store{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the underlying BigQuery client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// FindByFingerprint implements store.TransactionStore.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			wallet_id,
			transaction_date,
			name,
			amount,
			kind,
			category,
			fingerprint,
			metadata,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE fingerprint = @fingerprint
		ORDER BY created_ts
		LIMIT 1
	`, s.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "fingerprint", Value: fingerprint},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindByFingerprint: query read: %w", err)
	}

	var row CanonicalTransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByFingerprint: iter next: %w", err)
	}

	return fromRow(&row)
}

// Create implements store.TransactionStore.
func (s *Store) Create(ctx context.Context, tx *domain.CanonicalTransaction) error {
	row, err := toRow(tx)
	if err != nil {
		return fmt.Errorf("Create: building row: %w", err)
	}

	table := s.client.DatasetInProject(s.projectID, s.datasetID).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("Create: inserting row: %w", err)
	}
	return nil
}

// Update implements store.TransactionStore. The stored metadata is read
// first so the merge-on-update rule (new keys override old ones) happens
// in one place regardless of backend.
func (s *Store) Update(ctx context.Context, id string, patch store.UpdatePatch) error {
	existing, err := s.readMetadata(ctx, id)
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(existing)+len(patch.Metadata))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range patch.Metadata {
		merged[k] = v
	}

	metadataJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("Update: marshaling metadata: %w", err)
	}

	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET amount = @amount,
		    kind = @kind,
		    category = @category,
		    metadata = PARSE_JSON(@metadata),
		    updated_ts = @updated_ts
		WHERE transaction_id = @transaction_id
	`, s.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "amount", Value: patch.Amount.Rat()},
		{Name: "kind", Value: string(patch.Kind)},
		{Name: "category", Value: patch.Category},
		{Name: "metadata", Value: string(metadataJSON)},
		{Name: "updated_ts", Value: time.Now()},
		{Name: "transaction_id", Value: id},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("Update: running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("Update: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("Update: job error: %w", err)
	}
	return nil
}

func (s *Store) readMetadata(ctx context.Context, id string) (map[string]string, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT metadata
		FROM %s.%s
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`, s.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("readMetadata: query read: %w", err)
	}

	var row struct {
		Metadata bigquery.NullJSON `bigquery:"metadata"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("readMetadata: transaction not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("readMetadata: iter next: %w", err)
	}
	return metadataFromJSON(row.Metadata)
}

var _ store.TransactionStore = (*Store)(nil)
