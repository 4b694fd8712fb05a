package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// userAgentTransport sets the configured User-Agent on every request.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// sameHostAuth sends credentials only while a redirect chain stays on the host
// it started on. Hops to another host go out without the token.
type sameHostAuth struct {
	auth  http.RoundTripper
	plain http.RoundTripper
}

func (t *sameHostAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	if originHost(req) != req.URL.Host {
		return t.plain.RoundTrip(req)
	}
	return t.auth.RoundTrip(req)
}

// originHost follows req.Response back to the first request of a redirect chain.
func originHost(req *http.Request) string {
	first := req
	for first.Response != nil && first.Response.Request != nil {
		first = first.Response.Request
	}
	return first.URL.Host
}

// retryTransport retries idempotent GETs on network errors and 5xx responses
// with exponential backoff.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	logger     *log.Logger
}

// errServerStatus marks a 5xx attempt as retryable; the response itself is
// handed back when retries run out.
var errServerStatus = errors.New("server error status")

// retryBackOff doubles from retryBaseDelay up to retryMaxDelay without jitter.
func retryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBaseDelay
	b.MaxInterval = retryMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || t.maxRetries <= 0 {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	var (
		resp    *http.Response
		attempt int
	)

	op := func() error {
		if resp != nil {
			resp.Body.Close()
			resp = nil
		}
		attempt++

		r, err := t.base.RoundTrip(req)
		if err != nil {
			if !shouldRetry(ctx, nil, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		if shouldRetry(ctx, r, nil) {
			return errServerStatus
		}
		return nil
	}

	notify := func(err error, delay time.Duration) {
		t.logger.Warn("retrying request", "url", redactURL(req.URL.String()), "attempt", attempt, "delay", delay, "err", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(retryBackOff(), uint64(t.maxRetries)), ctx)
	err := backoff.RetryNotify(op, b, notify)
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerStatus) && resp != nil:
		return resp, nil
	default:
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
}

func shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if err != nil {
		return ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

// redactURL hides the client_id query parameter in logs and errors.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("client_id") {
		q.Set("client_id", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
