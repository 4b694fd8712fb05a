package services

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Throttle is a client-side burst limiter.
//
// Up to burstLength requests are allowed inside a burst window that opens with
// the first request. Once the burst is used up, requests are rejected until the
// burst window plus the wait window have passed since it opened.
type Throttle struct {
	mu          sync.Mutex
	burstLength int
	burstWindow time.Duration
	waitWindow  time.Duration
	start       time.Time
	hits        int
}

// NewThrottle creates a [Throttle]. A burstLength <= 0 allows everything.
func NewThrottle(burstLength int, burstWindow, waitWindow time.Duration) *Throttle {
	return &Throttle{burstLength: burstLength, burstWindow: burstWindow, waitWindow: waitWindow}
}

// Allow records a request and reports whether it may proceed.
func (t *Throttle) Allow() bool {
	if t == nil || t.burstLength <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	switch {
	case t.hits > 0 && now.Before(t.start.Add(t.burstWindow)):
		if t.hits >= t.burstLength {
			return false
		}
		t.hits++
		return true
	case t.hits >= t.burstLength && now.Before(t.start.Add(t.burstWindow+t.waitWindow)):
		return false
	default:
		t.start = now
		t.hits = 1
		return true
	}
}

func (t *Throttle) describe() string {
	return fmt.Sprintf("client-side rate limit: %d requests per %s", t.burstLength, t.burstWindow)
}

// throttlingTransport intercepts HEAD requests to host and answers with a
// synthesized 429 when the [Throttle] rejects them.
type throttlingTransport struct {
	base     http.RoundTripper
	throttle *Throttle
	host     string
}

func (t *throttlingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodHead || !strings.EqualFold(req.URL.Host, t.host) {
		return t.base.RoundTrip(req)
	}
	if t.throttle.Allow() {
		return t.base.RoundTrip(req)
	}
	return tooManyRequests(req, t.throttle.describe()), nil
}

func tooManyRequests(req *http.Request, reason string) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s (%s)", http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), reason),
		StatusCode:    http.StatusTooManyRequests,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header),
		Body:          io.NopCloser(strings.NewReader("")),
		ContentLength: 0,
		Request:       req,
	}
}
