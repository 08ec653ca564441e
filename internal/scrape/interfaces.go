package scrape

import (
	"context"
	"time"
)

// Loader reads the input table and yields rows in file order.
type Loader interface {
	Load(path, urlColumn string) ([]Row, error)
}

// Fetcher retrieves the raw payload for one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor interprets a raw payload into a structured record. It is
// pluggable per target site; failures are treated as non-retryable row
// failures by the driver.
type Extractor interface {
	Extract(payload []byte, url string) (map[string]string, error)
}

// Limiter gates outbound fetch attempts so consecutive requests keep the
// configured minimum spacing.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Store persists outcomes and resume progress.
type Store interface {
	// NextIndex returns the first unprocessed row index.
	NextIndex() int
	// Record appends the outcome for an index. Recording the same outcome
	// twice is a no-op; recording a different outcome for a recorded index
	// returns a *ConsistencyError.
	Record(index int, outcome Outcome) error
	// Advance raises the next-index watermark; it never decreases.
	Advance(to int)
	// Flush durably writes current state. A crash during flush must leave
	// the previous flush intact.
	Flush() error
	// Outcomes returns all recorded outcomes in index order.
	Outcomes() []Outcome
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
