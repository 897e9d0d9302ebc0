package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/statement-recon/internal/jobs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestQueue_PublishAndProcess(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var processed atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		processed.Add(1)
		return nil
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	job := &jobs.ImportBatchJob{FileURI: "gs://bucket/file.csv", WalletID: "wallet-1"}
	if err := queue.PublishImportBatch(ctx, job); err != nil {
		t.Fatalf("PublishImportBatch() error: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("PublishImportBatch() did not assign a job ID")
	}
	if job.Status != jobs.JobStatusPending {
		t.Fatalf("published job status = %q, want pending", job.Status)
	}

	waitFor(t, 2*time.Second, func() bool { return processed.Load() == 1 })

	waitFor(t, 2*time.Second, func() bool {
		stored, err := store.GetJob(ctx, job.JobID)
		return err == nil && stored.Status == jobs.JobStatusCompleted
	})
}

func TestQueue_FailedJobRetries(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var attempts atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient failure")
		}
		return nil
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	job := &jobs.ImportBatchJob{FileURI: "gs://bucket/file.csv", WalletID: "wallet-1", MaxRetries: 5}
	if err := queue.PublishImportBatch(ctx, job); err != nil {
		t.Fatalf("PublishImportBatch() error: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool {
		stored, err := store.GetJob(ctx, job.JobID)
		return err == nil && stored.Status == jobs.JobStatusCompleted
	})

	if got := attempts.Load(); got != 3 {
		t.Errorf("handler ran %d times, want 3", got)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	queue := NewQueue(1, nil)
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	job := &jobs.ImportBatchJob{FileURI: "gs://bucket/file.csv"}
	if err := queue.PublishImportBatch(context.Background(), job); err == nil {
		t.Error("PublishImportBatch() accepted a job after Close")
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ImportBatchJob{
		{JobID: "j1", WalletID: "wallet-1", Status: jobs.JobStatusCompleted},
		{JobID: "j2", WalletID: "wallet-1", Status: jobs.JobStatusFailed},
		{JobID: "j3", WalletID: "wallet-2", Status: jobs.JobStatusCompleted},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) error: %v", j.JobID, err)
		}
	}

	byWallet, err := store.ListJobs(ctx, jobs.JobFilter{WalletID: "wallet-1"})
	if err != nil {
		t.Fatalf("ListJobs() error: %v", err)
	}
	if len(byWallet) != 2 {
		t.Errorf("ListJobs(wallet-1) returned %d jobs, want 2", len(byWallet))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs() error: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "j2" {
		t.Errorf("ListJobs(failed) = %v, want only j2", byStatus)
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs() error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListJobs(limit 1) returned %d jobs, want 1", len(limited))
	}
}

func TestStore_SaveJobRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.ImportBatchJob{}); err == nil {
		t.Error("SaveJob() accepted a job without an ID")
	}
}
