package manifest

// Status is the outcome of one artifact.
type Status string

const (
	StatusPending Status = "pending"
	StatusWritten Status = "written"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Artifact records one output file of a run.
type Artifact struct {
	// ChartID is 0 for non-chart artifacts.
	ChartID int    `json:"chart_id,omitempty"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Status  Status `json:"status"`
	Kind    string `json:"error_kind,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the artifact was written.
func (a Artifact) OK() bool { return a.Status == StatusWritten }
