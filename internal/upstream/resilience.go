// Package upstream holds the retry and circuit-breaker plumbing shared by
// every outbound HTTP collaborator.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is what every collaborator uses unless told otherwise.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrUnexpected    = errors.New("unexpected status code")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// NewBreaker returns the circuit breaker settings used for collaborators.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Do sends the request built by buildRequest through the breaker, retrying
// transport failures, 429 and 5xx with exponential backoff. Other non-2xx
// responses fail at once without counting against the breaker.
func Do(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		resp, err := send(cfg.Client, cb, req.WithContext(ctx))
		switch {
		case err == nil:
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				drain(resp)
				return nil, fmt.Errorf("%w: %d", ErrUnexpected, resp.StatusCode)
			}
			return resp, nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		case attempt >= cfg.Backoff.MaxRetries:
			return nil, err
		}

		timer := time.NewTimer(cfg.Backoff.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// send runs one attempt inside the breaker. Only transport errors, 429 and
// 5xx count as breaker failures.
func send(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			drain(resp)
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			drain(resp)
			return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// delay is InitialInterval doubled per attempt, capped at MaxInterval.
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
	if b.MaxInterval > 0 && d > b.MaxInterval {
		d = b.MaxInterval
	}
	return d
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
