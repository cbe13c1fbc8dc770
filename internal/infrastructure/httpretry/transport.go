// Package httpretry provides an http.RoundTripper that retries transient
// failures with exponential backoff.
package httpretry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	errServer = errors.New("server error")
	errClient = errors.New("client error")
)

// Config tunes the backoff schedule.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultConfig retries for up to two minutes, starting at half a second.
func DefaultConfig() Config {
	return Config{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
	}
}

// Transport retries connection errors, 5xx and 429 responses. Other non-2xx
// responses are returned immediately. When retries run out the last response
// is returned so callers see the real status.
type Transport struct {
	Base   http.RoundTripper
	Config Config
	Logger *slog.Logger
}

// New wraps base, or http.DefaultTransport when base is nil.
func New(base http.RoundTripper, cfg Config, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{Base: base, Config: cfg, Logger: logger}
}

// NewBackOff returns the schedule for one operation.
func (c Config) NewBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.MaxElapsedTime = c.MaxElapsedTime
	b.Reset()
	return b
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
	}

	var resp *http.Response
	op := func() error {
		attempt := req.Clone(req.Context())
		if body != nil {
			attempt.Body = io.NopCloser(bytes.NewReader(body))
		}
		var err error
		resp, err = t.Base.RoundTrip(attempt)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return errServer
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return backoff.Permanent(errClient)
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		if errors.Is(err, errServer) && resp != nil {
			t.Logger.Warn("retrying after server error",
				"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "wait", wait)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			resp = nil
			return
		}
		t.Logger.Warn("retrying after transport error",
			"method", req.Method, "url", req.URL.String(), "error", err, "wait", wait)
	}

	b := backoff.WithContext(t.Config.NewBackOff(), req.Context())
	err := backoff.RetryNotify(op, b, notify)
	switch {
	case err == nil, errors.Is(err, errClient):
		return resp, nil
	case errors.Is(err, errServer) && resp != nil:
		t.Logger.Warn("giving up after server errors", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
		return resp, nil
	default:
		return nil, err
	}
}
