package scan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
	"github.com/probekit/probekit/pkg/probe"
	"github.com/probekit/probekit/pkg/target"
)

// vulnerableHandler simulates an app that concatenates the query parameter
// into SQL and omits every hardening header.
func vulnerableHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("test")
		if strings.Contains(q, "'") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("You have an error in your SQL syntax near '''"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>search results</html>"))
	})
}

func testConfig(profile payloads.Profile) *Config {
	cfg := DefaultConfig()
	cfg.Profile = profile
	cfg.Budget = 30 * time.Second
	cfg.Probe = &probe.Config{
		Timeout:   2 * time.Second,
		RateLimit: 0,
		UserAgent: "probekit-test",
	}
	return cfg
}

func TestRunCompletedWithFindings(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(vulnerableHandler())
	defer srv.Close()

	sup := NewSupervisor(testConfig(payloads.ProfileQuick))
	res := sup.Run(context.Background(), srv.URL+"/search")

	require.Equal(t, StateCompleted, res.State)
	require.NotNil(t, res.Target)
	assert.Equal(t, target.KindWeb, res.Target.Kind)

	classes := make(map[payloads.Class]bool)
	for _, f := range res.Findings {
		classes[f.Class] = true
	}
	assert.True(t, classes[payloads.ClassSQLi], "SQL error text should be detected")
	assert.True(t, classes[payloads.ClassHeaders], "missing hardening headers should be detected")

	// Strongest evidence wins: one SQLi finding for the endpoint.
	sqliCount := 0
	for _, f := range res.Findings {
		if f.Class == payloads.ClassSQLi {
			sqliCount++
			assert.Equal(t, finding.Critical, f.Severity)
		}
	}
	assert.Equal(t, 1, sqliCount)

	assert.Positive(t, res.Risk.Numeric)
	assert.NotEmpty(t, res.Recommendations)
	assert.Positive(t, res.Meta.ProbesIssued)
	assert.Zero(t, res.Meta.ProbesRemaining)
	assert.False(t, res.Meta.FinishedAt.IsZero())
}

func TestRunCleanTarget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	sup := NewSupervisor(testConfig(payloads.ProfileQuick))
	res := sup.Run(context.Background(), srv.URL+"/")

	require.Equal(t, StateCompleted, res.State)
	assert.Empty(t, res.Findings)
	assert.Zero(t, res.Risk.Numeric)
	assert.Equal(t, "low", res.Risk.Level())
}

func TestRunBudgetExhaustionCompletes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig(payloads.ProfileInjection)
	cfg.Budget = 400 * time.Millisecond
	cfg.Concurrency = 1

	res := NewSupervisor(cfg).Run(context.Background(), srv.URL+"/app")

	// Running out of budget is a bounded scan doing its job, not a failure.
	require.Equal(t, StateCompleted, res.State)
	assert.Positive(t, res.Meta.ProbesRemaining, "unissued probes are reported")
	assert.Positive(t, res.Meta.ProbesIssued)
}

func TestRunCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig(payloads.ProfileInjection)
	cfg.Concurrency = 1

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	res := NewSupervisor(cfg).Run(ctx, srv.URL+"/app")

	require.Equal(t, StateCancelled, res.State)
	assert.Positive(t, res.Meta.ProbesRemaining, "cancellation leaves work undone")
}

func TestRunFallsBackToPlainHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>plain http only</html>"))
	}))
	defer srv.Close()

	// A bare host:port resolves to https first; the server only speaks
	// plain HTTP, so the baselines must be retried over http.
	hostPort := strings.TrimPrefix(srv.URL, "http://")

	res := NewSupervisor(testConfig(payloads.ProfilePassive)).Run(context.Background(), hostPort)

	require.Equal(t, StateCompleted, res.State)
	require.NotNil(t, res.Target)
	assert.Equal(t, "http", res.Target.Scheme)
	assert.True(t, strings.HasPrefix(res.Target.CanonicalURL, "http://"))
	assert.NotEmpty(t, res.Findings, "the http baseline is analyzed for headers")
}

func TestRunStatusExposesFindingsMidRun(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(40 * time.Millisecond)
		q := r.URL.Query().Get("test")
		if strings.Contains(q, "'") {
			_, _ = w.Write([]byte("You have an error in your SQL syntax near '''"))
			return
		}
		_, _ = w.Write([]byte("<html>results</html>"))
	}))
	defer srv.Close()

	cfg := testConfig(payloads.ProfileInjection)
	cfg.Concurrency = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := NewSupervisor(cfg)
	done := make(chan Assessment, 1)
	go func() { done <- sup.Run(ctx, srv.URL+"/search") }()

	var sawLive bool
	deadline := time.After(5 * time.Second)
poll:
	for {
		select {
		case <-deadline:
			break poll
		case <-time.After(10 * time.Millisecond):
			snap := sup.Status()
			if snap.State.Terminal() {
				break poll
			}
			if len(snap.Findings) > 0 {
				sawLive = true
				break poll
			}
		}
	}
	require.True(t, sawLive, "a confirmed finding should be visible before the scan ends")

	cancel()
	res := <-done
	assert.True(t, res.State.Terminal())
	assert.NotEmpty(t, res.Findings, "pre-cancel findings survive into the final assessment")
}

func TestRunEmptyCatalogFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	empty, err := payloads.Parse([]byte("[]"))
	require.NoError(t, err)

	cfg := testConfig(payloads.ProfileInjection)
	cfg.Catalog = empty

	res := NewSupervisor(cfg).Run(context.Background(), srv.URL+"/")

	require.Equal(t, StateFailed, res.State)
	assert.Contains(t, res.FailureReason, "no payloads")
}

func TestRunUnreachableTargetFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := testConfig(payloads.ProfileQuick)
	res := NewSupervisor(cfg).Run(context.Background(), url+"/")

	require.Equal(t, StateFailed, res.State)
	assert.Contains(t, res.FailureReason, "unreachable")
	assert.Empty(t, res.Findings)
}

func TestRunResolutionErrorFails(t *testing.T) {
	t.Parallel()

	res := NewSupervisor(testConfig(payloads.ProfilePassive)).Run(context.Background(), "ftp://example.com")

	require.Equal(t, StateFailed, res.State)
	assert.Contains(t, res.FailureReason, "unsupported scheme")
	assert.Nil(t, res.Target)
}

func TestRunPassiveProfileSendsNoPayloads(t *testing.T) {
	t.Parallel()

	var payloadProbes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" || r.Method != http.MethodGet {
			payloadProbes.Add(1)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res := NewSupervisor(testConfig(payloads.ProfilePassive)).Run(context.Background(), srv.URL+"/")

	require.Equal(t, StateCompleted, res.State)
	assert.Zero(t, payloadProbes.Load(), "passive scans only observe the baseline")
	for _, f := range res.Findings {
		assert.Equal(t, payloads.ClassHeaders, f.Class)
	}
}

func TestRunMaxProbesCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(vulnerableHandler())
	defer srv.Close()

	cfg := testConfig(payloads.ProfileInjection)
	cfg.MaxProbes = 3

	res := NewSupervisor(cfg).Run(context.Background(), srv.URL+"/search")

	require.Equal(t, StateCompleted, res.State)
	assert.LessOrEqual(t, res.Meta.ProbesIssued, 3)
	assert.Positive(t, res.Meta.ProbesRemaining)
}

func TestStatusSnapshotDuringRun(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(testConfig(payloads.ProfileQuick))
	snap := sup.Status()
	assert.Equal(t, StatePending, snap.State)
	assert.False(t, snap.State.Terminal())
}

func TestStateTerminal(t *testing.T) {
	t.Parallel()

	for _, st := range []State{StateCompleted, StateCancelled, StateFailed} {
		assert.True(t, st.Terminal(), st)
	}
	for _, st := range []State{StatePending, StateResolving, StateProbing, StateAnalyzing} {
		assert.False(t, st.Terminal(), st)
	}
}
