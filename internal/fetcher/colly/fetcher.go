// Package collyfetcher implements scrape.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher retrieves one URL per call through a shared Colly collector,
// retrying transient failures per the injected policy. Payload
// interpretation is left entirely to the caller.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	retry         *scrape.RetryPolicy
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, retry *scrape.RetryPolicy, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if retry == nil {
		retry = scrape.NewRetryPolicy(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; the default collector is already synchronous.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		retry:         retry,
		logger:        logger,
	}
}

// Fetch executes an HTTP GET with bounded retries. Transient errors
// (timeouts, 5xx, connection resets) are retried with backoff; client
// errors and malformed URLs surface immediately as non-retryable
// *scrape.NetworkError values.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		body, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !f.retry.ShouldRetry(err, attempt) {
			return nil, lastErr
		}
		delay := f.retry.Backoff(attempt)
		f.logger.Warn("fetch attempt failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := pause(ctx, delay); err != nil {
			return nil, lastErr
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		if fetchErr != nil {
			return nil, classify(rawURL, status, fetchErr)
		}
		if visitErr != nil {
			return nil, classify(rawURL, status, visitErr)
		}
		return body, nil
	}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &scrape.NetworkError{
			URL:       rawURL,
			Reason:    "malformed_url",
			Retryable: false,
			Err:       err,
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &scrape.NetworkError{
			URL:       rawURL,
			Reason:    fmt.Sprintf("unsupported scheme %q", u.Scheme),
			Retryable: false,
		}
	}
	return nil
}

// classify maps transport and status failures onto the retryable/permanent
// split: timeouts, resets, and 5xx/429 responses retry; other 4xx do not.
func classify(rawURL string, status int, err error) *scrape.NetworkError {
	netErr := &scrape.NetworkError{URL: rawURL, Status: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		netErr.Reason = "server_error"
		netErr.Retryable = true
	case status >= 400:
		netErr.Reason = "client_error"
		netErr.Retryable = false
	case isTransient(err):
		netErr.Reason = "transient_network_error"
		netErr.Retryable = true
	default:
		netErr.Reason = "network_error"
		netErr.Retryable = false
	}
	return netErr
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var timeout net.Error
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF")
}

func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
