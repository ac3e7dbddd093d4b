// Package core orchestrates hygiene runs: reading the input tables, merging
// incoming rows into the authoritative list, annotating suppressed addresses,
// and producing the output table. It has no HTTP dependencies and is shared
// by the CLI and the web server.
package core

import (
	"io"
	"time"
)

// RunPhase represents the stage of a hygiene run.
type RunPhase string

const (
	PhaseStarting   RunPhase = "starting"
	PhaseReading    RunPhase = "reading"
	PhaseMerging    RunPhase = "merging"
	PhaseAnnotating RunPhase = "annotating"
	PhaseWriting    RunPhase = "writing"
	PhaseComplete   RunPhase = "complete"
	PhaseFailed     RunPhase = "failed"
	PhaseCancelled  RunPhase = "cancelled"
)

// Terminal reports whether the phase is a final state.
func (p RunPhase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseFailed, PhaseCancelled:
		return true
	}
	return false
}

// RunInput is one named input stream. Name is only used for logging and
// error messages; it is typically the uploaded file name.
type RunInput struct {
	Name   string
	Reader io.Reader
}

// RunRequest describes one hygiene run.
//
// Master is the authoritative contact table and must match the column layout
// of the source identified by Source. Incoming tables are folded in order.
// The suppression inputs are optional single-column-of-interest exports; the
// email column is located by name, so their exact layout does not matter.
type RunRequest struct {
	// Source is the registered source key for the master table and output.
	Source string

	// IncomingSource is the source key describing the incoming tables'
	// columns. Empty means the incoming tables share the master's layout.
	IncomingSource string

	Master   RunInput
	Incoming []RunInput

	Bounced      *RunInput
	Unsubscribed *RunInput

	// Excluded is an arbitrary suppression export annotated with
	// ExcludedTag instead of a fixed status word.
	Excluded    *RunInput
	ExcludedTag string
}

// RunProgress is a point-in-time snapshot of a run.
type RunProgress struct {
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	Phase        RunPhase  `json:"phase"`
	MasterRows   int       `json:"master_rows"`
	IncomingRows int       `json:"incoming_rows"`
	Records      int       `json:"records"`
	Error        string    `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunStats summarizes what a finished run did to the data.
type RunStats struct {
	MasterRows    int            `json:"master_rows"`
	IncomingRows  int            `json:"incoming_rows"`
	OutputRecords int            `json:"output_records"`
	Annotated     map[string]int `json:"annotated,omitempty"` // tag -> count
}

// RunResult is the outcome of a completed hygiene run.
type RunResult struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	MasterName string `json:"master_name"`

	// Columns and Rows are the merged output table in the master source's
	// column layout plus the Notes column.
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`

	Stats      RunStats      `json:"stats"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

// ProgressCallback receives progress snapshots during a synchronous run.
type ProgressCallback func(RunProgress)
