package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/logging"
)

func testConfig(endpoint string) config.UploadConfig {
	return config.UploadConfig{
		Enabled:  true,
		Endpoint: endpoint,
		APIKey:   "secret-key",
		Timeout:  2 * time.Second,
		Retries:  3,
		Breaker: config.BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             time.Minute,
			MaxConsecutiveFails: 5,
		},
	}
}

func newTestClient(cfg config.UploadConfig) *Client {
	return NewClient(cfg, WithLogger(logging.Discard()), WithBaseDelay(time.Millisecond))
}

func TestUploadSuccess(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret-key", r.PostForm.Get("key"))
		assert.Equal(t, base64.StdEncoding.EncodeToString(png), r.PostForm.Get("image"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"url":"https://i.example/abc.png"}}`))
	}))
	defer srv.Close()

	c := newTestClient(testConfig(srv.URL))
	link, err := c.Upload(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/abc.png", link)
	assert.Equal(t, "closed", c.State())
}

func TestUploadRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"url":"https://i.example/x.png"}}`))
	}))
	defer srv.Close()

	link, err := newTestClient(testConfig(srv.URL)).Upload(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/x.png", link)
	assert.EqualValues(t, 2, hits.Load())
}

func TestUploadExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(testConfig(srv.URL)).Upload(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "invalid key")
	assert.EqualValues(t, 3, hits.Load())
}

func TestUploadBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Breaker.MaxConsecutiveFails = 2
	c := newTestClient(cfg)

	_, err := c.Upload(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Equal(t, "open", c.State())
	assert.EqualValues(t, 2, hits.Load())

	// Open breaker rejects without touching the host.
	_, err = c.Upload(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestUploadCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(testConfig(srv.URL)).Upload(ctx, []byte("img"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewClientDefaults(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Retries = 0
	cfg.Breaker.MaxConsecutiveFails = 0
	c := newTestClient(cfg)
	assert.Equal(t, 1, c.retries)
	assert.Equal(t, "closed", c.State())
	assert.Zero(t, c.Counts().Requests)
}
