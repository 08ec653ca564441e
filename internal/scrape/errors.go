package scrape

import "fmt"

// InputError reports a fatal problem with the input file: missing file,
// unreadable content, or an absent URL column. It aborts the run before any
// row is processed.
type InputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("input %s: %s", e.Path, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// NetworkError reports a failed fetch attempt. Retryable errors (timeouts,
// 5xx, connection resets) are retried per policy; the rest surface
// immediately as row failures.
type NetworkError struct {
	URL       string
	Status    int
	Reason    string
	Retryable bool
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Reason)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractError reports a non-retryable failure interpreting a fetched
// payload. It is recorded as a row failure, never as run-level control flow.
type ExtractError struct {
	URL string
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// ConsistencyError signals a checkpoint bookkeeping invariant violation,
// such as recording two different outcomes for the same index. It indicates
// a driver bug and is fatal.
type ConsistencyError struct {
	Index  int
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("checkpoint index %d: %s", e.Index, e.Detail)
}

// StoreIOError reports a failure reading or writing checkpoint state. It is
// fatal during a flush and tolerated (fresh start) during load.
type StoreIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }
