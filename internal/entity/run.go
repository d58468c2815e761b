package entity

import "time"

// RunStatus is the lifecycle state of a submitted batch run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunNotFound  RunStatus = "not_found"
)

// ErrorEntry is one line of the error summary: a reference and what went wrong.
type ErrorEntry struct {
	Reference string `json:"reference" yaml:"reference"`
	Message   string `json:"message" yaml:"message"`
}

// RunReport aggregates every row outcome of a batch.
type RunReport struct {
	RunID           string       `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartedAt       time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time    `json:"finished_at" yaml:"finished_at"`
	TotalDownloaded int          `json:"total_downloaded" yaml:"total_downloaded"`
	Errors          []ErrorEntry `json:"errors" yaml:"errors"`
	Rows            []RowResult  `json:"rows" yaml:"rows"`
}

// Run is a batch submitted to the service and processed by the run worker.
type Run struct {
	ID            string       `json:"id"`
	Rows          []ProductRow `json:"rows"`
	MaxPerProduct int          `json:"max_per_product"`
	SubmittedAt   time.Time    `json:"submitted_at"`
}

// RunState mirrors what the service knows about a run.
type RunState struct {
	RunID         string
	CurrentStatus RunStatus
	Report        *RunReport
	FailureReason string
}
