// Package network provides the HTTP client shared by the probers.
package network

import (
	"net/http"
	"time"

	"github.com/tilawa-cli/tilawa/constant"
)

// Client is shared by all HTTP probes so that a mirror that answered once keeps its
// connection warm for the cascade of the next track.
// It sets no overall timeout: each probe is bounded by its own context.
var Client = &http.Client{
	Transport: &userAgent{next: newTransport()},
}

// newTransport initializes a tuned http.Transport. Mirrors are few and probed one at a
// time, so the pool stays small while response headers are expected quickly.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 16
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	t.ExpectContinueTimeout = 1 * time.Second
	return t
}

type userAgent struct {
	next http.RoundTripper
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", constant.UserAgent)
	return u.next.RoundTrip(clone)
}
