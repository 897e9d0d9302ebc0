// Package inmemory provides map-backed implementations of the store
// contracts. They are safe for concurrent use and suitable for tests and
// single-instance deployments; data is lost on restart.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/store"
	"github.com/google/uuid"
)

// TransactionStore is an in-memory implementation of store.TransactionStore.
// A per-store mutex serializes FindByFingerprint/Create/Update, which also
// gives the fingerprint-uniqueness guarantee the engine requires.
type TransactionStore struct {
	mu            sync.RWMutex
	byID          map[string]*domain.CanonicalTransaction
	byFingerprint map[string]string // fingerprint -> transaction ID
}

// NewTransactionStore creates an empty in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byID:          make(map[string]*domain.CanonicalTransaction),
		byFingerprint: make(map[string]string),
	}
}

// FindByFingerprint implements store.TransactionStore.
func (s *TransactionStore) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, nil
	}
	return copyTransaction(s.byID[id]), nil
}

// Create implements store.TransactionStore. It rejects a second create for
// a fingerprint that is already present, mirroring the unique constraint a
// database-backed store would enforce.
func (s *TransactionStore) Create(ctx context.Context, tx *domain.CanonicalTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if fp := tx.Fingerprint(); fp != "" {
		if _, exists := s.byFingerprint[fp]; exists {
			return fmt.Errorf("create: fingerprint %q already exists", fp)
		}
		s.byFingerprint[fp] = tx.ID
	}
	s.byID[tx.ID] = copyTransaction(tx)
	return nil
}

// Update implements store.TransactionStore.
func (s *TransactionStore) Update(ctx context.Context, id string, patch store.UpdatePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("update: transaction not found: %s", id)
	}

	tx.Amount = patch.Amount
	tx.Kind = patch.Kind
	tx.Category = patch.Category
	if tx.Metadata == nil {
		tx.Metadata = make(map[string]string, len(patch.Metadata))
	}
	for k, v := range patch.Metadata {
		tx.Metadata[k] = v
	}
	return nil
}

// All returns a snapshot of every stored transaction. Test helper.
func (s *TransactionStore) All() []*domain.CanonicalTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.CanonicalTransaction, 0, len(s.byID))
	for _, tx := range s.byID {
		out = append(out, copyTransaction(tx))
	}
	return out
}

func copyTransaction(tx *domain.CanonicalTransaction) *domain.CanonicalTransaction {
	if tx == nil {
		return nil
	}
	cp := *tx
	if tx.Metadata != nil {
		cp.Metadata = make(map[string]string, len(tx.Metadata))
		for k, v := range tx.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// BatchRegistry is an in-memory implementation of store.BatchRegistry.
type BatchRegistry struct {
	mu       sync.RWMutex
	imported map[string]bool
}

// NewBatchRegistry creates an empty in-memory batch registry.
func NewBatchRegistry() *BatchRegistry {
	return &BatchRegistry{imported: make(map[string]bool)}
}

// WasImported implements store.BatchRegistry.
func (r *BatchRegistry) WasImported(ctx context.Context, batchID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.imported[batchID], nil
}

// MarkImported implements store.BatchRegistry.
func (r *BatchRegistry) MarkImported(ctx context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported[batchID] = true
	return nil
}

var _ store.TransactionStore = (*TransactionStore)(nil)
var _ store.BatchRegistry = (*BatchRegistry)(nil)
