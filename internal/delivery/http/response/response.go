package response

import "github.com/user/product-image-scraper/internal/entity"

type SubmitRunResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// RunStatusResponse is a DTO for run status, mirroring entity.RunState
type RunStatusResponse struct {
	RunID         string            `json:"run_id"`
	CurrentStatus string            `json:"current_status"` // "pending", "running", "completed", "failed"
	FailureReason string            `json:"failure_reason,omitempty"`
	Report        *entity.RunReport `json:"report,omitempty"`
}
