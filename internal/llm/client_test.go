package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        5 * time.Millisecond,
	}
}

const chatOK = `{"choices":[{"message":{"role":"assistant","content":"Idea 1: test"}}]}`

func TestGenerateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatOK))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model", WithRetryConfig(fastRetry(3)))

	content, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Idea 1: test", content)
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(chatOK))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", WithRetryConfig(fastRetry(3)))

	content, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Idea 1: test", content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateFatalErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", "m", WithRetryConfig(fastRetry(3)))

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestGenerateExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", WithRetryConfig(fastRetry(3)))

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateEmptyPromptRejected(t *testing.T) {
	client := NewClient("http://localhost:0", "k", "m")

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "   "})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestGenerateContextCancelStopsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastRetry(3)
	cfg.BackoffBase = 200 * time.Millisecond
	cfg.MaxBackoff = time.Second
	client := NewClient(server.URL, "k", "m", WithRetryConfig(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, GenerateRequest{UserPrompt: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", WithRetryConfig(fastRetry(3)))

	vector, err := client.Embed(context.Background(), "coupon")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
}

func TestBackoffStaysWithinCap(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       5,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}

	for attempt := 1; attempt <= 10; attempt++ {
		d := cfg.backoff(attempt)
		assert.Greater(t, d, time.Duration(0))
		// Cap plus the 25% jitter margin.
		assert.LessOrEqual(t, d, 30*time.Second+30*time.Second/4)
	}
}
