// Package scrape defines the core types and interfaces shared across the
// scraping pipeline.
package scrape

import "time"

// Status classifies the outcome of processing a single row.
type Status string

// Outcome status values persisted in the checkpoint.
const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Row is one input record. Index is the 0-based ordinal position in the
// input file and is stable across runs. Extra carries any additional
// columns through untouched.
type Row struct {
	Index int               `json:"index"`
	URL   string            `json:"url"`
	Extra map[string]string `json:"extra,omitempty"`
}

// Outcome is the result of processing one Row. Exactly one Outcome exists
// per row index per run.
type Outcome struct {
	Index     int               `json:"index"`
	URL       string            `json:"url"`
	Status    Status            `json:"status"`
	Record    map[string]string `json:"record,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Success builds a success outcome for a row.
func Success(row Row, record map[string]string, at time.Time) Outcome {
	return Outcome{
		Index:     row.Index,
		URL:       row.URL,
		Status:    StatusSuccess,
		Record:    record,
		FetchedAt: at,
	}
}

// Failure builds a failure outcome for a row.
func Failure(row Row, reason string, retryable bool, at time.Time) Outcome {
	return Outcome{
		Index:     row.Index,
		URL:       row.URL,
		Status:    StatusFailure,
		Reason:    reason,
		Retryable: retryable,
		FetchedAt: at,
	}
}

// Skipped builds a skipped outcome for a row.
func Skipped(row Row, reason string, at time.Time) Outcome {
	return Outcome{
		Index:     row.Index,
		URL:       row.URL,
		Status:    StatusSkipped,
		Reason:    reason,
		FetchedAt: at,
	}
}

// Equal reports whether two outcomes describe the same result for the same
// row. FetchedAt is ignored: replaying a recorded outcome after a resume
// produces a new timestamp but the same result.
func (o Outcome) Equal(other Outcome) bool {
	if o.Index != other.Index || o.URL != other.URL || o.Status != other.Status {
		return false
	}
	if o.Reason != other.Reason || o.Retryable != other.Retryable {
		return false
	}
	if len(o.Record) != len(other.Record) {
		return false
	}
	for k, v := range o.Record {
		if other.Record[k] != v {
			return false
		}
	}
	return true
}

// Summary aggregates terminal counts for a run.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}
