package forensiq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// Executor issues a provider GET and returns the body and wire time.
// Transport is the production implementation; tests substitute spies.
type Executor interface {
	Execute(ctx context.Context, rawURL string) ([]byte, int64, error)
}

// Transport is a pooled HTTP transport shared by every call a Client makes.
// It is safe for concurrent use.
type Transport struct {
	pool   *http.Transport
	client *http.Client

	inFlight        atomic.Int64
	lastMaintenance atomic.Int64 // unix nanos
}

// NewTransport builds the connection pool. MaxConnections bounds both the
// total pool and each host; IdleRetention is how long an idle connection
// may stay pooled.
func NewTransport(cfg ProviderConfig) (*Transport, error) {
	cfg = cfg.withDefaults()
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	pool := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxConnections,
		MaxIdleConnsPerHost:   cfg.MaxConnections,
		MaxConnsPerHost:       cfg.MaxConnections,
		IdleConnTimeout:       cfg.IdleRetention,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	}

	return &Transport{
		pool: pool,
		client: &http.Client{
			Transport: pool,
			Timeout:   cfg.RequestTimeout,
		},
	}, nil
}

// Execute performs a blocking GET against rawURL. Any network error or
// non-2xx status is returned as a *TransportError.
func (t *Transport) Execute(ctx context.Context, rawURL string) ([]byte, int64, error) {
	if t == nil || t.client == nil {
		return nil, 0, &NotInitializedError{Component: "transport"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	t.inFlight.Add(1)
	fqInFlight.Inc()
	defer func() {
		t.inFlight.Add(-1)
		fqInFlight.Dec()
	}()

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, time.Since(start).Milliseconds(), &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, elapsed, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	// Drain anything past the cap so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, elapsed, &TransportError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(snippet(body)),
		}
	}
	return body, elapsed, nil
}

// Maintain closes pooled connections that are idle. Connections serving a
// request are not touched, so it is safe to call while Execute is running.
// Connections idle longer than IdleRetention are also evicted by the pool
// on its own.
func (t *Transport) Maintain() {
	if t == nil || t.pool == nil {
		return
	}
	t.pool.CloseIdleConnections()
	t.lastMaintenance.Store(time.Now().UnixNano())
}

// InFlight returns the number of requests currently executing.
func (t *Transport) InFlight() int64 {
	if t == nil {
		return 0
	}
	return t.inFlight.Load()
}

// LastMaintenance returns when Maintain last ran, or the zero time.
func (t *Transport) LastMaintenance() time.Time {
	if t == nil {
		return time.Time{}
	}
	n := t.lastMaintenance.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func snippet(body []byte) string {
	if len(body) == 0 {
		return "empty body"
	}
	if len(body) > maxErrorBodySnippetSize {
		return string(body[:maxErrorBodySnippetSize]) + "..."
	}
	return string(body)
}
