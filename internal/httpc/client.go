// Package httpc builds the HTTP clients used for provider calls.
//
// Every client shares one pooled transport, so the reasoning, transcription
// and speech providers reuse connections to the same hosts, and tags its
// requests with UserAgent.
package httpc

import (
	"net"
	"net/http"
	"time"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultKeepAlive      = 30 * time.Second
	DefaultIdleTimeout    = 90 * time.Second

	// UserAgent is set on requests that do not carry their own.
	UserAgent = "mad-ia/1.0"
)

var shared = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   DefaultConnectTimeout,
		KeepAlive: DefaultKeepAlive,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          50,
	MaxIdleConnsPerHost:   8,
	IdleConnTimeout:       DefaultIdleTimeout,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: time.Second,
}

// NewClient returns a client bounded by timeout over the shared transport.
// A non-positive timeout means DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: userAgent{next: shared},
	}
}

type userAgent struct {
	next http.RoundTripper
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	return u.next.RoundTrip(clone)
}
