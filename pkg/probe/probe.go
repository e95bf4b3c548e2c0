// Package probe issues adversarial HTTP requests against a resolved target.
// Each call turns a (endpoint, payload) pair into exactly one Response:
// either a populated response record or a typed transport error, never both
// and never a thrown error. The executor keeps no state between calls
// beyond rate-limiter tokens and per-endpoint failure streaks.
package probe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/probekit/probekit/pkg/duration"
	"github.com/probekit/probekit/pkg/httpclient"
	"github.com/probekit/probekit/pkg/iohelper"
	"github.com/probekit/probekit/pkg/payloads"
)

// DefaultFailFastThreshold is how many consecutive transport failures
// against one endpoint short-circuit its remaining payloads.
const DefaultFailFastThreshold = 3

// headerProbeName is the request header mutated by header-point payloads.
const headerProbeName = "X-Probe-Input"

// queryProbeParam is the query/body parameter payload values are injected into.
const queryProbeParam = "test"

// Request describes one probe. Payload is nil for the baseline request.
type Request struct {
	Endpoint string
	Method   string
	Payload  *payloads.Payload
	Header   http.Header
	Body     string
}

// Response is the raw record of one probe. Exactly one of the response
// fields and Transport is meaningful: Failed() distinguishes them.
type Response struct {
	Request     Request
	StatusCode  int
	Header      http.Header
	BodyExcerpt string
	BodyLength  int
	Latency     time.Duration
	Transport   *TransportError
}

// Failed reports whether the probe ended in a transport error.
func (r *Response) Failed() bool {
	return r.Transport != nil
}

// IsBaseline reports whether this response came from an unmodified request.
func (r *Response) IsBaseline() bool {
	return r.Request.Payload == nil
}

// Config holds executor configuration.
type Config struct {
	// Timeout bounds each individual probe request. Zero selects the
	// canonical defaults: duration.ProbeTimeout for payload probes and
	// the longer duration.BaselineTimeout for baselines.
	Timeout time.Duration

	// RateLimit is the maximum requests per second against the target
	// (0 = unlimited). Kept deliberately low by default so the scanner
	// does not become its own denial of service.
	RateLimit float64

	// Burst is the rate limiter burst size.
	Burst int

	// FailFastThreshold is the consecutive-failure streak that
	// short-circuits an endpoint (default 3).
	FailFastThreshold int

	// UserAgent is sent on every probe.
	UserAgent string

	// Client overrides the shared HTTP client (tests).
	Client *http.Client

	// Logger receives per-probe debug records. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns executor defaults.
func DefaultConfig() *Config {
	return &Config{
		RateLimit:         20,
		Burst:             5,
		FailFastThreshold: DefaultFailFastThreshold,
		UserAgent:         "probekit/1.0 (+https://github.com/probekit/probekit)",
	}
}

// Executor issues probes under a transport timeout and rate budget.
type Executor struct {
	cfg     *Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	// streaks tracks consecutive transport failures per endpoint.
	streaks sync.Map // map[string]*int32
}

// NewExecutor creates a probe executor.
func NewExecutor(cfg *Config) *Executor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	client := cfg.Client
	if client == nil {
		if cfg.Timeout > 0 {
			clientCfg := httpclient.DefaultConfig()
			clientCfg.Timeout = cfg.Timeout
			client = httpclient.New(clientCfg)
		} else {
			client = httpclient.Default()
		}
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Baseline issues the unmodified request for an endpoint. The baseline is
// always awaited before payload probes fan out, so detectors have a
// differential reference for status, latency, and body length. It runs
// under the slightly longer baseline timeout: it also decides whether the
// endpoint is reachable at all.
func (e *Executor) Baseline(ctx context.Context, endpoint string) Response {
	return e.do(ctx, Request{Endpoint: endpoint, Method: http.MethodGet}, e.baselineTimeout())
}

// Probe issues one payload-injected request against an endpoint.
func (e *Executor) Probe(ctx context.Context, endpoint string, p payloads.Payload) Response {
	req := Request{Endpoint: endpoint, Payload: &p}
	switch p.Point {
	case payloads.InjectBody:
		req.Method = http.MethodPost
		form := url.Values{}
		form.Set(queryProbeParam, p.Value)
		req.Body = form.Encode()
	default:
		req.Method = http.MethodGet
	}
	return e.do(ctx, req, e.timeout())
}

// ShortCircuited reports whether an endpoint has hit the fail-fast
// threshold and remaining payloads should be skipped.
func (e *Executor) ShortCircuited(endpoint string) bool {
	v, ok := e.streaks.Load(endpoint)
	if !ok {
		return false
	}
	threshold := int32(e.cfg.FailFastThreshold)
	if threshold <= 0 {
		threshold = DefaultFailFastThreshold
	}
	return atomic.LoadInt32(v.(*int32)) >= threshold
}

func (e *Executor) do(ctx context.Context, preq Request, timeout time.Duration) Response {
	resp := Response{Request: preq}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			resp.Transport = classifyTransport(err)
			return resp
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := e.buildRequest(reqCtx, preq)
	if err != nil {
		resp.Transport = &TransportError{Kind: KindOther, Err: err}
		e.recordFailure(preq.Endpoint)
		return resp
	}

	start := time.Now()
	httpResp, err := e.client.Do(httpReq)
	resp.Latency = time.Since(start)

	if err != nil {
		resp.Transport = classifyTransport(err)
		e.recordFailure(preq.Endpoint)
		e.logger.Debug("probe failed",
			slog.String("endpoint", preq.Endpoint),
			slog.String("kind", string(resp.Transport.Kind)))
		return resp
	}
	defer iohelper.DrainAndClose(httpResp.Body)

	body, _ := iohelper.ReadExcerpt(httpResp.Body, iohelper.ExcerptMaxBytes)
	resp.StatusCode = httpResp.StatusCode
	resp.Header = httpResp.Header
	resp.BodyExcerpt = string(body)
	resp.BodyLength = len(body)

	e.recordSuccess(preq.Endpoint)
	e.logger.Debug("probe completed",
		slog.String("endpoint", preq.Endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", resp.Latency))
	return resp
}

func (e *Executor) timeout() time.Duration {
	if e.cfg.Timeout > 0 {
		return e.cfg.Timeout
	}
	return duration.ProbeTimeout
}

func (e *Executor) baselineTimeout() time.Duration {
	if e.cfg.Timeout > 0 {
		return e.cfg.Timeout
	}
	return duration.BaselineTimeout
}

// buildRequest constructs the HTTP request, mutating the part named by the
// payload's injection point.
func (e *Executor) buildRequest(ctx context.Context, preq Request) (*http.Request, error) {
	targetURL := preq.Endpoint
	var body *strings.Reader

	if p := preq.Payload; p != nil {
		switch p.Point {
		case payloads.InjectQuery:
			u, err := url.Parse(preq.Endpoint)
			if err != nil {
				return nil, err
			}
			q := u.Query()
			q.Set(queryProbeParam, p.Value)
			u.RawQuery = q.Encode()
			targetURL = u.String()
		case payloads.InjectPath:
			targetURL = strings.TrimRight(preq.Endpoint, "/") + "/" + p.Value
		}
	}

	if preq.Body != "" {
		body = strings.NewReader(preq.Body)
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, preq.Method, targetURL, body)
	if err != nil {
		return nil, err
	}

	for k, vs := range preq.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if p := preq.Payload; p != nil {
		if p.Point == payloads.InjectHeader {
			req.Header.Set(headerProbeName, p.Value)
		}
		if p.Point == payloads.InjectBody {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	return req, nil
}

func (e *Executor) recordFailure(endpoint string) {
	v, _ := e.streaks.LoadOrStore(endpoint, new(int32))
	atomic.AddInt32(v.(*int32), 1)
}

func (e *Executor) recordSuccess(endpoint string) {
	if v, ok := e.streaks.Load(endpoint); ok {
		atomic.StoreInt32(v.(*int32), 0)
	}
}
