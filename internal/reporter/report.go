package reporter

import (
	"time"
)

// RunSummary contains metadata about a fuzz run.
type RunSummary struct {
	RunID         string  `json:"run_id"`
	TargetURL     string  `json:"target_url"`
	ScanStartTime string  `json:"scan_start_time"`
	ScanEndTime   string  `json:"scan_end_time"`
	TotalDuration string  `json:"total_duration"`
	Iterations    int     `json:"iterations"`
	Depth         int     `json:"depth"`
	SchemaTypes   int     `json:"schema_types"`
	Results       Summary `json:"results"`
}

// Report is the JSON document written at the end of a run.
type Report struct {
	RunSummary RunSummary `json:"run_summary"`
	Records    []Record   `json:"records"`
}

// NewReport creates a new report instance.
// Records is initialized so an empty run serializes as [] rather than null.
func NewReport(runID, target string, startTime time.Time) *Report {
	return &Report{
		RunSummary: RunSummary{
			RunID:         runID,
			TargetURL:     target,
			ScanStartTime: startTime.Format(time.RFC3339),
		},
		Records: make([]Record, 0),
	}
}

// Finalize completes the report with all final data before saving.
func (r *Report) Finalize(endTime, startTime time.Time, iterations, depth, schemaTypes int, summary Summary, records []Record) {
	r.RunSummary.ScanEndTime = endTime.Format(time.RFC3339)
	r.RunSummary.TotalDuration = endTime.Sub(startTime).Round(time.Millisecond).String()
	r.RunSummary.Iterations = iterations
	r.RunSummary.Depth = depth
	r.RunSummary.SchemaTypes = schemaTypes
	r.RunSummary.Results = summary
	if records != nil {
		r.Records = records
	}
}
