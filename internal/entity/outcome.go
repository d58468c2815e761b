package entity

// RowStatus is the terminal state of a processed row.
type RowStatus string

const (
	RowCompleted           RowStatus = "completed"
	RowSkippedHTTPError    RowStatus = "skipped_http_error"
	RowSkippedNoImages     RowStatus = "skipped_no_images"
	RowSkippedRowException RowStatus = "skipped_row_exception"
)

// DownloadOutcome records a single attempted image download.
type DownloadOutcome struct {
	Reference   string `json:"reference" yaml:"reference"`
	TargetURL   string `json:"target_url" yaml:"target_url"`
	Path        string `json:"path" yaml:"path"`
	Success     bool   `json:"success" yaml:"success"`
	ErrorDetail string `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}

// RowResult is the outcome of processing one ProductRow.
type RowResult struct {
	Row        ProductRow        `json:"row" yaml:"row"`
	Status     RowStatus         `json:"status" yaml:"status"`
	Message    string            `json:"message,omitempty" yaml:"message,omitempty"`
	Candidates int               `json:"candidates" yaml:"candidates"`
	Downloads  []DownloadOutcome `json:"downloads,omitempty" yaml:"downloads,omitempty"`
}

// Downloaded returns the number of successful downloads in the row.
func (r RowResult) Downloaded() int {
	n := 0
	for _, d := range r.Downloads {
		if d.Success {
			n++
		}
	}
	return n
}
