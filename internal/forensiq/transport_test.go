package forensiq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T, endpoint string) *Transport {
	t.Helper()
	tr, err := NewTransport(ProviderConfig{Endpoint: endpoint, MaxConnections: 4})
	require.NoError(t, err)
	return tr
}

func TestTransport_NilReturnsNotInitialized(t *testing.T) {
	var tr *Transport
	_, _, err := tr.Execute(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, ErrNotInitialized)

	var zero Transport
	_, _, err = zero.Execute(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestTransport_ExecuteOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"riskScore":1,"timeMs":2}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	body, ms, err := tr.Execute(context.Background(), srv.URL+"/check")
	require.NoError(t, err)
	assert.JSONEq(t, `{"riskScore":1,"timeMs":2}`, string(body))
	assert.GreaterOrEqual(t, ms, int64(0))
	assert.Equal(t, int64(0), tr.InFlight())
}

func TestTransport_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	_, _, err := tr.Execute(context.Background(), srv.URL)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.Contains(t, te.Error(), "quota exceeded")
	assert.Equal(t, "bad_status", failureKind(err))
}

func TestTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	tr := newTestTransport(t, addr)
	_, _, err := tr.Execute(context.Background(), addr)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
	assert.Equal(t, "transport", failureKind(err))
}

func TestTransport_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := tr.Execute(ctx, srv.URL)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
}

func TestTransport_MaintainDuringInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv.URL)
	assert.True(t, tr.LastMaintenance().IsZero())

	const calls = 4
	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := tr.Execute(context.Background(), srv.URL)
			errs <- err
		}()
	}
	for i := 0; i < calls; i++ {
		<-started
	}

	assert.Equal(t, int64(calls), tr.InFlight())
	tr.Maintain()
	assert.False(t, tr.LastMaintenance().IsZero())

	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(0), tr.InFlight())

	tr.Maintain()
	_, _, err := tr.Execute(context.Background(), srv.URL)
	assert.NoError(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "empty body", snippet(nil))
	long := make([]byte, maxErrorBodySnippetSize+10)
	for i := range long {
		long[i] = 'x'
	}
	got := snippet(long)
	assert.Len(t, got, maxErrorBodySnippetSize+3)
}
