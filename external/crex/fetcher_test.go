package crex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/riskibarqy/cricket-live/internal/platform/resilience"
	"github.com/riskibarqy/cricket-live/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(attempts int) *Fetcher {
	return NewFetcher(FetcherConfig{
		MaxAttempts: attempts,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
		Logger:      logging.NewNop(),
	})
}

func TestFetcher_SuccessReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	res := newTestFetcher(3).Fetch(context.Background(), srv.URL+"/fixtures", time.Second)
	require.True(t, res.OK(), "err=%v", res.Err)
	assert.Equal(t, "<html>ok</html>", string(res.Body))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, res.Attempts)
}

func TestFetcher_TimeoutIsRetriedUpToBound(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	res := newTestFetcher(3).Fetch(context.Background(), srv.URL+"/live/m1", 50*time.Millisecond)
	assert.Equal(t, usecase.FetchTransient, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.True(t, crerr.Is(res.Err, usecase.ErrTransientFetch))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetcher_NotFoundIsPermanentWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	res := newTestFetcher(3).Fetch(context.Background(), srv.URL+"/match/gone", time.Second)
	assert.Equal(t, usecase.FetchPermanent, res.Outcome)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, crerr.Is(res.Err, usecase.ErrPermanentFetch))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_ServerErrorThenSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	res := newTestFetcher(3).Fetch(context.Background(), srv.URL+"/scorecard/m1", time.Second)
	require.True(t, res.OK(), "err=%v", res.Err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "recovered", string(res.Body))
}

func TestFetcher_MalformedURLIsPermanentWithoutAttempt(t *testing.T) {
	for _, raw := range []string{"", "ftp://crex.live/x", "http://", "::not a url"} {
		res := newTestFetcher(3).Fetch(context.Background(), raw, time.Second)
		assert.Equal(t, usecase.FetchPermanent, res.Outcome, raw)
		assert.Equal(t, 0, res.Attempts, raw)
		assert.True(t, crerr.Is(res.Err, usecase.ErrPermanentFetch), raw)
	}
}

func TestFetcher_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestFetcher(5).Fetch(ctx, srv.URL+"/fixtures", time.Second)
	assert.Equal(t, usecase.FetchTransient, res.Outcome)
	assert.LessOrEqual(t, res.Attempts, 1)
	assert.True(t, crerr.Is(res.Err, context.Canceled))
}

func TestFetcher_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		entered <- struct{}{}
		<-release
		_, _ = w.Write([]byte("<html>live</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(1)
	pageURL := srv.URL + "/match/m1/live"

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan usecase.FetchResult, 1)
	go func() { first <- f.Fetch(firstCtx, pageURL, 2*time.Second) }()
	<-entered

	second := make(chan usecase.FetchResult, 1)
	go func() { second <- f.Fetch(context.Background(), pageURL, 2*time.Second) }()
	// give the second caller time to join the in-flight request
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	abandoned := <-first
	assert.Equal(t, usecase.FetchTransient, abandoned.Outcome)
	assert.True(t, crerr.Is(abandoned.Err, context.Canceled))

	close(release)
	res := <-second
	require.True(t, res.OK(), "err=%v", res.Err)
	assert.Equal(t, "<html>live</html>", string(res.Body))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_OpenCircuitRejectsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{
		MaxAttempts: 1,
		BackoffBase: time.Millisecond,
		Logger:      logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		},
	})

	for i := 0; i < 2; i++ {
		res := f.Fetch(context.Background(), srv.URL+"/fixtures", time.Second)
		require.Equal(t, usecase.FetchTransient, res.Outcome)
	}

	res := f.Fetch(context.Background(), srv.URL+"/fixtures", time.Second)
	assert.Equal(t, usecase.FetchTransient, res.Outcome)
	assert.Equal(t, 0, res.Attempts)
	assert.True(t, crerr.Is(res.Err, usecase.ErrDependencyUnavailable))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcher_ElapsedBudgetCapsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{
		MaxAttempts: 10,
		BackoffBase: 40 * time.Millisecond,
		MaxElapsed:  60 * time.Millisecond,
		Logger:      logging.NewNop(),
	})

	res := f.Fetch(context.Background(), srv.URL+"/fixtures", time.Second)
	assert.Equal(t, usecase.FetchTransient, res.Outcome)
	assert.Less(t, res.Attempts, 10)
	assert.Equal(t, int32(res.Attempts), hits.Load())
}
