package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeImportBatch represents an exchange-file import job.
	JobTypeImportBatch JobType = "import_batch"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ImportBatchJob represents a job to import one exchange file.
type ImportBatchJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// FileURI locates the exchange file: a local path or a gs:// URI.
	FileURI string `json:"file_uri"`

	// WalletID is the wallet the imported transactions belong to.
	WalletID string `json:"wallet_id"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// Result is the batch outcome, set when the job completes.
	Result *domain.SyncResult `json:"result,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ImportBatchJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ImportBatchJob) GetType() JobType {
	return JobTypeImportBatch
}

// GetStatus implements the Job interface.
func (j *ImportBatchJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// The abstraction allows different queue implementations (in-memory,
// Cloud Tasks, Pub/Sub).
type Publisher interface {
	// PublishImportBatch publishes an exchange-file import job.
	PublishImportBatch(ctx context.Context, job *ImportBatchJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue. The handler is called
	// for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job. It returns an error if
// the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status,
// so job execution can be tracked across requests.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ImportBatchJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ImportBatchJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportBatchJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// WalletID filters jobs by wallet.
	WalletID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
