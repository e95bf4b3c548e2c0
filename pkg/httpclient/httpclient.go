// Package httpclient provides a shared, pooled HTTP client factory tuned
// for vulnerability probing. All probe traffic should go through a client
// from this package so connections are reused across payload batteries.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/probekit/probekit/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request ceiling (default: duration.BaselineTimeout,
	// the longest any single request is allowed). Callers tighten individual
	// requests with a context deadline.
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification.
	// Defaults to true: probing targets frequently present self-signed
	// or mismatched certificates, and a cert error is not a finding.
	InsecureSkipVerify bool

	// MaxConnsPerHost caps connections per host (default: 10).
	// Probing is single-target, so this also caps total connections.
	MaxConnsPerHost int

	// IdleConnTimeout is how long idle connections stay pooled (default: 90s).
	IdleConnTimeout time.Duration

	// DialTimeout is the timeout for establishing connections (default: 5s).
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for the TLS handshake (default: 5s).
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns defaults tuned for single-target probing.
func DefaultConfig() Config {
	return Config{
		Timeout:             duration.BaselineTimeout,
		InsecureSkipVerify:  true,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         5 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns a shared, pre-configured HTTP client.
// The client is safe for concurrent use, pools connections, and does NOT
// follow redirects: detectors need to see the redirect response itself.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates a new HTTP client with the given configuration.
// Prefer Default() unless non-default settings are required.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = duration.BaselineTimeout
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = 5 * time.Second
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxConnsPerHost * 2,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		DialContext:           dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
