package registry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBreakerTestClient(max int) *RateLimitedHTTPClient {
	cfg := HTTPClientConfig{
		Timeout:           time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      time.Millisecond,
		RateLimit:         1000.0,
		CircuitBreakerMax: max,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRateLimitedHTTPClient(cfg, logger)
}

// deadServerURL returns an address with nothing listening on it
func deadServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

// TestCircuitBreakerOpensAfterConsecutiveFailures tests that the breaker
// trips at the configured threshold and rejects further requests until reset
func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := newBreakerTestClient(2)
	url := deadServerURL(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		_, err = client.Do(ctx, req)
		require.Error(t, err)
	}
	assert.True(t, client.IsOpen(), "breaker must open after max consecutive failures")

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	_, err = client.Do(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	client.Reset()
	assert.False(t, client.IsOpen())
}

// TestCircuitBreakerSuccessResetsFailureCount tests that a successful
// request clears the consecutive-failure streak
func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	client := newBreakerTestClient(2)
	ctx := context.Background()

	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer live.Close()
	dead := deadServerURL(t)

	for _, url := range []string{dead, live.URL, dead} {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		resp, doErr := client.Do(ctx, req)
		if resp != nil {
			resp.Body.Close()
		}
		_ = doErr
	}

	assert.False(t, client.IsOpen(), "non-consecutive failures must not trip the breaker")
}

// TestCircuitBreakerConcurrentRequests exercises the breaker state from
// many goroutines at once
func TestCircuitBreakerConcurrentRequests(t *testing.T) {
	client := newBreakerTestClient(3)
	url := deadServerURL(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodGet, url, nil)
			if err != nil {
				return
			}
			_, _ = client.Do(ctx, req)
		}()
	}
	wg.Wait()

	assert.True(t, client.IsOpen())
}
