// Package upload publishes rendered ship images to an imgbb compatible image
// host. Requests pass through a circuit breaker so an unreachable host fails
// fast instead of stalling every analysis.
package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/logging"
)

// ErrUploadFailed is returned when the host answers but does not hand back
// an image URL.
var ErrUploadFailed = errors.New("upload failed")

// Uploader publishes a PNG and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, png []byte) (string, error)
}

// Client uploads images through a gobreaker circuit breaker with retries.
type Client struct {
	breaker   *gobreaker.CircuitBreaker
	http      *http.Client
	logger    *logging.Logger
	endpoint  string
	apiKey    string
	retries   int
	baseDelay time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for breaker transitions and retries.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBaseDelay sets the linear backoff step between attempts.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// NewClient builds a Client from the upload section of the app config.
func NewClient(cfg config.UploadConfig, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logging.NewLogger(),
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		retries:   cfg.Retries,
		baseDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retries < 1 {
		c.retries = 1
	}

	maxFails := cfg.Breaker.MaxConsecutiveFails
	if maxFails == 0 {
		maxFails = 5
	}
	logger := c.logger
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "image-upload",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// State reports the breaker state as "closed", "half-open" or "open".
func (c *Client) State() string {
	return c.breaker.State().String()
}

// Counts exposes the breaker counters.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

// Upload posts png to the host and returns the URL of the stored image.
func (c *Client) Upload(ctx context.Context, png []byte) (string, error) {
	var link string
	err := c.executeWithRetry(ctx, func() error {
		u, err := c.post(ctx, png)
		if err != nil {
			return err
		}
		link = u
		return nil
	})
	if err != nil {
		return "", err
	}
	return link, nil
}

func (c *Client) execute(ctx context.Context, op func() error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err != nil {
		c.logger.LogWithContext(ctx, slog.LevelError, "upload attempt failed",
			"error", err,
			"state", c.breaker.State().String(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}
	return nil
}

func (c *Client) executeWithRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < c.retries; attempt++ {
		if err = c.execute(ctx, op); err == nil {
			return nil
		}

		if c.breaker.State() == gobreaker.StateOpen {
			c.logger.LogWithContext(ctx, slog.LevelWarn, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", c.retries,
			)
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
		if attempt == c.retries-1 {
			break
		}

		delay := time.Duration(attempt+1) * c.baseDelay
		c.logger.LogWithContext(ctx, slog.LevelWarn, "upload failed, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", c.retries, err)
}

type hostResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, png []byte) (string, error) {
	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(png))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var hr hostResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return "", fmt.Errorf("%w: status %d: undecodable body", ErrUploadFailed, resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 || hr.Data.URL == "" {
		msg := hr.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, msg)
	}
	return hr.Data.URL, nil
}
