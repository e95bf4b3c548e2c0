// Package scan drives a full assessment: target resolution, baseline
// capture, concurrent payload probing, response analysis, and risk scoring.
// One Supervisor owns one assessment from start to terminal state; its
// Status snapshot is safe to read from other goroutines throughout.
package scan

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/probekit/probekit/pkg/aggregate"
	"github.com/probekit/probekit/pkg/detect"
	"github.com/probekit/probekit/pkg/duration"
	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
	"github.com/probekit/probekit/pkg/probe"
	"github.com/probekit/probekit/pkg/scoring"
	"github.com/probekit/probekit/pkg/target"
	"github.com/probekit/probekit/pkg/telemetry"
)

// DefaultConcurrency is the worker pool size when none is configured.
const DefaultConcurrency = 5

// defaultPaths are probed when the target is a bare host or IP with no
// path of its own.
var defaultPaths = []string{"/", "/login", "/search", "/api"}

// Config configures one assessment.
type Config struct {
	// Concurrency is the number of probe workers (default 5).
	Concurrency int

	// MaxProbes caps the number of payload probes issued (0 = unlimited).
	MaxProbes int

	// Budget bounds the whole assessment's wall-clock time.
	Budget time.Duration

	// DrainTimeout bounds how long cancellation waits for in-flight
	// probes before abandoning them.
	DrainTimeout time.Duration

	// Profile selects which vulnerability classes run.
	Profile payloads.Profile

	// Catalog supplies payloads. Nil selects the built-in catalog.
	Catalog *payloads.Catalog

	// Weights overrides the risk score weighting. Nil selects defaults.
	Weights scoring.Weights

	// Probe configures the probe executor. Nil selects probe defaults.
	Probe *probe.Config

	// Logger receives scan progress records. Nil disables logging.
	Logger *slog.Logger

	// Metrics receives instrumentation. Nil disables it.
	Metrics *telemetry.Metrics
}

// DefaultConfig returns assessment defaults.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:  DefaultConcurrency,
		Budget:       duration.ScanBudget,
		DrainTimeout: duration.DrainGrace,
		Profile:      payloads.ProfileFull,
	}
}

// Metadata records execution accounting for an assessment.
type Metadata struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// ProbesIssued counts payload probes actually sent.
	ProbesIssued int `json:"probes_issued"`

	// ProbesFailed counts probes that ended in a transport error.
	ProbesFailed int `json:"probes_failed"`

	// ProbesRemaining counts planned probes never issued because the
	// budget ran out, an endpoint short-circuited, or the scan was
	// cancelled.
	ProbesRemaining int `json:"probes_remaining"`
}

// Assessment is the result of one scan. It is complete only once State is
// terminal; Findings reflect everything observed up to that point.
type Assessment struct {
	Target          *target.Descriptor `json:"target,omitempty"`
	State           State              `json:"state"`
	Findings        []finding.Finding  `json:"findings"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Risk            scoring.RiskScore  `json:"risk"`
	Meta            Metadata           `json:"meta"`
	FailureReason   string             `json:"failure_reason,omitempty"`
}

// Supervisor runs one assessment.
type Supervisor struct {
	cfg    *Config
	exec   *probe.Executor
	logger *slog.Logger

	mu         sync.Mutex
	assessment Assessment

	issued    atomic.Int64
	failed    atomic.Int64
	remaining atomic.Int64
}

// NewSupervisor creates a supervisor for one assessment. A nil config
// selects DefaultConfig; the passed config is copied, not retained.
func NewSupervisor(src *Config) *Supervisor {
	cfg := DefaultConfig()
	if src != nil {
		*cfg = *src
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Budget <= 0 {
		cfg.Budget = duration.ScanBudget
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = duration.DrainGrace
	}
	if !cfg.Profile.IsValid() {
		cfg.Profile = payloads.ProfileFull
	}
	if cfg.Catalog == nil {
		cfg.Catalog = payloads.Builtin()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{
		cfg:        cfg,
		exec:       probe.NewExecutor(cfg.Probe),
		logger:     logger,
		assessment: Assessment{State: StatePending},
	}
}

// Status returns a point-in-time snapshot of the assessment.
func (s *Supervisor) Status() Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.assessment
	snap.Findings = append([]finding.Finding(nil), s.assessment.Findings...)
	snap.Recommendations = append([]string(nil), s.assessment.Recommendations...)
	snap.Meta.ProbesIssued = int(s.issued.Load())
	snap.Meta.ProbesFailed = int(s.failed.Load())
	snap.Meta.ProbesRemaining = int(s.remaining.Load())
	return snap
}

// task is one planned payload probe.
type task struct {
	endpoint string
	payload  payloads.Payload
}

// result pairs a probe response with the baseline it should be judged
// against.
type result struct {
	baseline *probe.Response
	resp     probe.Response
}

// Run executes the assessment to a terminal state. Cancelling ctx stops
// dispatching new probes; in-flight probes drain within DrainTimeout and
// their findings are kept. The returned assessment equals the final
// Status snapshot.
func (s *Supervisor) Run(ctx context.Context, rawTarget string) Assessment {
	s.setState(StateResolving)
	s.setStarted(time.Now())
	s.cfg.Metrics.ScanStarted()
	defer s.cfg.Metrics.ScanFinished()

	desc, err := target.Resolve(rawTarget)
	if err != nil {
		s.logger.Error("target resolution failed", slog.String("target", rawTarget), slog.Any("error", err))
		return s.fail(err.Error())
	}
	s.setTarget(desc)
	s.logger.Info("target resolved",
		slog.String("target", desc.CanonicalURL),
		slog.String("kind", string(desc.Kind)))

	endpoints := s.endpoints(desc)
	classes := s.cfg.Profile.Classes()

	budgetCtx, cancelBudget := context.WithTimeout(ctx, s.cfg.Budget)
	defer cancelBudget()

	s.setState(StateProbing)

	// Baselines are awaited before any payload fans out so every detector
	// has a differential reference.
	baselines, reachable := s.captureBaselines(budgetCtx, endpoints)
	if reachable == 0 && ctx.Err() == nil {
		// A host that assumed https may only speak plain HTTP.
		if fb := desc.HTTPFallback(); fb != nil {
			s.logger.Info("no https endpoint answered, retrying over http",
				slog.String("target", fb.CanonicalURL))
			desc = fb
			s.setTarget(desc)
			endpoints = s.endpoints(desc)
			baselines, reachable = s.captureBaselines(budgetCtx, endpoints)
		}
	}
	if reachable == 0 {
		if ctx.Err() != nil {
			return s.cancelTerminal()
		}
		return s.fail(finding.ErrTargetUnreachable.Error())
	}

	agg := aggregate.New()
	var headerFindings []finding.Finding

	if hasClass(classes, payloads.ClassHeaders) {
		for _, ep := range endpoints {
			for _, f := range detect.SecurityHeaders(baselines[ep]) {
				if agg.Add(f) {
					headerFindings = append(headerFindings, f)
				}
			}
		}
	}

	tasks, capped := s.plan(endpoints, classes, baselines)
	if len(tasks) == 0 && capped == 0 && !hasClass(classes, payloads.ClassHeaders) {
		return s.fail(finding.ErrNoPayloads.Error())
	}
	s.remaining.Store(int64(len(tasks) + capped))

	// Buffered for the full task list so workers never block on a
	// collector that has given up waiting.
	results := make(chan result, len(tasks)+1)
	taskChan := make(chan task)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, taskChan, results, baselines)
		}()
	}

	go func() {
		defer close(taskChan)
		for _, t := range tasks {
			select {
			case taskChan <- t:
			case <-budgetCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// strongest keeps one finding per (endpoint, class): the first signal
	// wins unless a later one carries stronger evidence. Boolean payload
	// halves are parked until both have responded.
	strongest := make(map[string]finding.Finding)
	booleans := make(map[string]map[string]result)
	drain := time.NewTimer(s.cfg.Budget + s.cfg.DrainTimeout)
	defer drain.Stop()

	s.publishFindings(headerFindings, strongest)

collect:
	for {
		select {
		case res, ok := <-results:
			if !ok {
				break collect
			}
			if s.record(strongest, booleans, res) {
				s.publishFindings(headerFindings, strongest)
			}
		case <-drain.C:
			s.logger.Warn("abandoning probes still in flight after drain grace")
			break collect
		}
	}

	cancelled := ctx.Err() != nil

	s.setState(StateAnalyzing)
	for _, pair := range booleans {
		truthy, hasTrue := pair["true"]
		falsy, hasFalse := pair["false"]
		if !hasTrue || !hasFalse {
			continue
		}
		if f := detect.BooleanSQLi(truthy.baseline, &truthy.resp, &falsy.resp); f != nil {
			foldStrongest(strongest, *f)
		}
	}
	for _, f := range strongest {
		agg.Add(f)
	}

	findings, recs := agg.Emit()
	risk := scoring.NewScorer(s.cfg.Weights).Score(findings)
	for _, f := range findings {
		s.cfg.Metrics.FindingEmitted(f.Class.String(), f.Severity.String())
	}

	s.mu.Lock()
	s.assessment.Findings = findings
	s.assessment.Recommendations = recs
	s.assessment.Risk = risk
	s.mu.Unlock()

	if cancelled {
		return s.cancelTerminal()
	}

	s.logger.Info("scan completed",
		slog.Int("findings", len(findings)),
		slog.Int("risk", risk.Numeric),
		slog.Int64("probes_issued", s.issued.Load()),
		slog.Int64("probes_remaining", s.remaining.Load()))
	return s.finish(StateCompleted, "")
}

// worker consumes tasks until the channel closes. Probes run under a
// detached context so an in-flight request finishes its own timeout even
// when the scan context is cancelled mid-request.
func (s *Supervisor) worker(ctx context.Context, tasks <-chan task, results chan<- result, baselines map[string]*probe.Response) {
	probeCtx := context.WithoutCancel(ctx)
	for t := range tasks {
		if ctx.Err() != nil {
			return
		}
		if s.exec.ShortCircuited(t.endpoint) {
			continue
		}
		resp := s.exec.Probe(probeCtx, t.endpoint, t.payload)
		s.issued.Add(1)
		s.remaining.Add(-1)
		s.cfg.Metrics.ProbeIssued()
		if resp.Failed() {
			s.failed.Add(1)
			s.cfg.Metrics.ProbeFailed()
		}
		results <- result{baseline: baselines[t.endpoint], resp: resp}
	}
}

// captureBaselines issues the unmodified request for every endpoint and
// reports how many answered.
func (s *Supervisor) captureBaselines(ctx context.Context, endpoints []string) (map[string]*probe.Response, int) {
	baselines := make(map[string]*probe.Response, len(endpoints))
	reachable := 0
	for _, ep := range endpoints {
		resp := s.exec.Baseline(ctx, ep)
		s.cfg.Metrics.ProbeIssued()
		if resp.Failed() {
			s.cfg.Metrics.ProbeFailed()
			s.logger.Warn("baseline failed",
				slog.String("endpoint", ep),
				slog.String("kind", string(resp.Transport.Kind)))
		} else {
			reachable++
		}
		r := resp
		baselines[ep] = &r
	}
	return baselines, reachable
}

// record classifies one probe result and folds it into the
// strongest-evidence-per-(endpoint, class) map. Boolean payload halves
// are parked in booleans for pair evaluation instead of judged alone.
// Returns true when the confirmed finding set changed.
func (s *Supervisor) record(strongest map[string]finding.Finding, booleans map[string]map[string]result, res result) bool {
	p := res.resp.Request.Payload
	if p.Boolean != "" && p.Class == payloads.ClassSQLi {
		ep := res.resp.Request.Endpoint
		if booleans[ep] == nil {
			booleans[ep] = make(map[string]result, 2)
		}
		booleans[ep][p.Boolean] = res
		// Fall through: error text surfaced by a boolean half is still
		// direct evidence, only the length differential waits for the pair.
	}

	det := detect.ForClass(p.Class)
	if det == nil {
		return false
	}
	f := det(res.baseline, &res.resp)
	if f == nil {
		return false
	}
	return foldStrongest(strongest, *f)
}

func foldStrongest(strongest map[string]finding.Finding, f finding.Finding) bool {
	key := f.Endpoint + "\x00" + string(f.Class)
	if prev, ok := strongest[key]; !ok || f.Stronger(prev) {
		strongest[key] = f
		return true
	}
	return false
}

// publishFindings writes the confirmed-so-far finding set into the
// assessment so Status exposes findings while the scan is still running.
// The final ordered set from the aggregator replaces it on completion.
func (s *Supervisor) publishFindings(headerFindings []finding.Finding, strongest map[string]finding.Finding) {
	live := make([]finding.Finding, 0, len(headerFindings)+len(strongest))
	live = append(live, headerFindings...)
	for _, f := range strongest {
		live = append(live, f)
	}
	s.mu.Lock()
	s.assessment.Findings = live
	s.mu.Unlock()
}

// plan expands (endpoint x class x payload) into the ordered task list,
// skipping endpoints whose baseline never connected. The MaxProbes cap
// truncates the list; capped is how many planned probes it cut, which
// count as remaining work.
func (s *Supervisor) plan(endpoints []string, classes []payloads.Class, baselines map[string]*probe.Response) (tasks []task, capped int) {
	planned := 0
	for _, ep := range endpoints {
		if baselines[ep].Failed() {
			continue
		}
		for _, cl := range classes {
			if cl == payloads.ClassHeaders {
				continue
			}
			for _, p := range s.cfg.Catalog.ForClass(cl) {
				planned++
				if s.cfg.MaxProbes > 0 && len(tasks) >= s.cfg.MaxProbes {
					continue
				}
				tasks = append(tasks, task{endpoint: ep, payload: p})
			}
		}
	}
	capped = planned - len(tasks)
	if capped > 0 {
		s.logger.Info("probe cap reached", slog.Int("skipped", capped))
	}
	return tasks, capped
}

// endpoints derives the probe endpoints for a resolved target. Web targets
// are probed as given; bare hosts and IPs get a default path sweep.
func (s *Supervisor) endpoints(desc *target.Descriptor) []string {
	if desc.Kind == target.KindWeb {
		return []string{desc.CanonicalURL}
	}
	eps := make([]string, 0, len(defaultPaths))
	for _, p := range defaultPaths {
		if p == "/" {
			eps = append(eps, desc.CanonicalURL+"/")
			continue
		}
		eps = append(eps, desc.CanonicalURL+p)
	}
	return eps
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.assessment.State = st
	s.mu.Unlock()
}

func (s *Supervisor) setStarted(t time.Time) {
	s.mu.Lock()
	s.assessment.Meta.StartedAt = t
	s.mu.Unlock()
}

func (s *Supervisor) setTarget(d *target.Descriptor) {
	s.mu.Lock()
	s.assessment.Target = d
	s.mu.Unlock()
}

func (s *Supervisor) fail(reason string) Assessment {
	return s.finish(StateFailed, reason)
}

func (s *Supervisor) cancelTerminal() Assessment {
	s.logger.Info("scan cancelled", slog.Int64("probes_issued", s.issued.Load()))
	return s.finish(StateCancelled, "")
}

func (s *Supervisor) finish(st State, reason string) Assessment {
	s.mu.Lock()
	s.assessment.State = st
	s.assessment.FailureReason = reason
	s.assessment.Meta.FinishedAt = time.Now()
	s.mu.Unlock()
	return s.Status()
}

func hasClass(classes []payloads.Class, cl payloads.Class) bool {
	for _, c := range classes {
		if c == cl {
			return true
		}
	}
	return false
}
