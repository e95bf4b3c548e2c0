// Package detect turns raw probe responses into findings. Detectors are
// pure functions over a (baseline, probe response) pair: they never issue
// requests themselves, so the same response pair always classifies the
// same way.
package detect

import (
	"strings"
	"time"

	"github.com/probekit/probekit/pkg/duration"
	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
	"github.com/probekit/probekit/pkg/probe"
	"github.com/probekit/probekit/pkg/scoring"
)

// boolLengthDelta is the body length shift treated as a boolean
// differential signal. Small shifts are noise (timestamps, nonces).
const boolLengthDelta = 100

// excerptRadius is how much surrounding context an evidence excerpt keeps
// on each side of the match.
const excerptRadius = 50

// Detector examines one payload response against the endpoint baseline.
// A nil return means no signal.
type Detector func(baseline, resp *probe.Response) *finding.Finding

// ForClass returns the detector for a payload-bearing vulnerability class.
// ClassHeaders has no per-payload detector; use SecurityHeaders instead.
func ForClass(cl payloads.Class) Detector {
	switch cl {
	case payloads.ClassSQLi:
		return SQLi
	case payloads.ClassXSS:
		return XSS
	case payloads.ClassCmdInjection:
		return CmdInjection
	case payloads.ClassPathTraversal:
		return PathTraversal
	default:
		return nil
	}
}

// SQLi classifies a SQL injection probe response. Database error text is
// high confidence; timing deltas are medium. Boolean payload pairs are
// judged separately by BooleanSQLi once both halves have responded.
func SQLi(baseline, resp *probe.Response) *finding.Finding {
	if resp == nil || resp.IsBaseline() {
		return nil
	}
	p := resp.Request.Payload
	if resp.Failed() && p.Sleep == 0 {
		return nil
	}

	if sig, excerpt := matchSQLError(resp.BodyExcerpt); sig != "" {
		return newFinding(payloads.ClassSQLi, resp, finding.ConfidenceHigh, sig, excerpt,
			"Database error text surfaced after injecting "+p.Description)
	}

	return timingFinding(payloads.ClassSQLi, baseline, resp)
}

// BooleanSQLi judges a boolean-blind payload pair. Evidence requires the
// injected condition to behave like a toggle: the true half shifts the
// body away from the baseline while the false half tracks it. A length
// shift on the true half alone is just a parameter that changes the page.
func BooleanSQLi(baseline, truthy, falsy *probe.Response) *finding.Finding {
	if baseline == nil || baseline.Failed() {
		return nil
	}
	if truthy == nil || truthy.Failed() || truthy.IsBaseline() {
		return nil
	}
	if falsy == nil || falsy.Failed() {
		return nil
	}
	if delta(truthy.BodyLength, baseline.BodyLength) <= boolLengthDelta {
		return nil
	}
	if delta(falsy.BodyLength, baseline.BodyLength) > boolLengthDelta {
		return nil
	}
	p := truthy.Request.Payload
	return newFinding(payloads.ClassSQLi, truthy, finding.ConfidenceMedium, p.Signature, "",
		"Response length follows the injected boolean condition")
}

// XSS classifies a reflected cross-site scripting probe response. Only a
// verbatim (unescaped) reflection of the payload counts: HTML-entity
// escaped echoes are the server doing its job.
func XSS(_, resp *probe.Response) *finding.Finding {
	if resp == nil || resp.IsBaseline() || resp.Failed() {
		return nil
	}
	p := resp.Request.Payload
	if !strings.Contains(resp.BodyExcerpt, p.Signature) {
		return nil
	}
	return newFinding(payloads.ClassXSS, resp, finding.ConfidenceHigh,
		p.Signature, excerptAround(resp.BodyExcerpt, p.Signature),
		"Payload reflected unescaped: "+p.Description)
}

// CmdInjection classifies an OS command injection probe response.
func CmdInjection(baseline, resp *probe.Response) *finding.Finding {
	if resp == nil || resp.IsBaseline() {
		return nil
	}
	p := resp.Request.Payload
	if p.Sleep > 0 {
		return timingFinding(payloads.ClassCmdInjection, baseline, resp)
	}
	if resp.Failed() {
		return nil
	}
	if !strings.Contains(resp.BodyExcerpt, p.Signature) {
		return nil
	}
	// The sentinel appearing in the baseline means it is page content,
	// not command output.
	if baseline != nil && strings.Contains(baseline.BodyExcerpt, p.Signature) {
		return nil
	}
	return newFinding(payloads.ClassCmdInjection, resp, finding.ConfidenceHigh,
		p.Signature, excerptAround(resp.BodyExcerpt, p.Signature),
		"Command output observed in response: "+p.Description)
}

// PathTraversal classifies a directory traversal probe response.
func PathTraversal(baseline, resp *probe.Response) *finding.Finding {
	if resp == nil || resp.IsBaseline() || resp.Failed() {
		return nil
	}
	p := resp.Request.Payload
	if !strings.Contains(resp.BodyExcerpt, p.Signature) {
		return nil
	}
	if baseline != nil && strings.Contains(baseline.BodyExcerpt, p.Signature) {
		return nil
	}
	return newFinding(payloads.ClassPathTraversal, resp, finding.ConfidenceHigh,
		p.Signature, excerptAround(resp.BodyExcerpt, p.Signature),
		"File contents disclosed: "+p.Description)
}

// timingFinding checks a time-based payload for a latency delta consistent
// with the injected sleep. Timing evidence is inherently medium confidence.
func timingFinding(cl payloads.Class, baseline, resp *probe.Response) *finding.Finding {
	p := resp.Request.Payload
	if p.Sleep <= 0 {
		return nil
	}
	var base time.Duration
	if baseline != nil && !baseline.Failed() {
		base = baseline.Latency
	}
	if resp.Latency < base+p.Sleep-duration.TimingSlack {
		return nil
	}
	return newFinding(cl, resp, finding.ConfidenceMedium, p.Signature, "",
		"Response delayed consistently with injected sleep: "+p.Description)
}

func newFinding(cl payloads.Class, resp *probe.Response, conf finding.Confidence, sig, excerpt, detail string) *finding.Finding {
	return &finding.Finding{
		Class:      cl,
		Severity:   scoring.SeverityFor(cl, conf),
		Confidence: conf,
		Endpoint:   resp.Request.Endpoint,
		Evidence:   finding.Evidence{Signature: sig, Excerpt: excerpt},
		Detail:     detail,
	}
}

// excerptAround returns the matched text with surrounding context.
func excerptAround(body, match string) string {
	i := strings.Index(body, match)
	if i < 0 {
		return ""
	}
	start := i - excerptRadius
	if start < 0 {
		start = 0
	}
	end := i + len(match) + excerptRadius
	if end > len(body) {
		end = len(body)
	}
	return body[start:end]
}

func delta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
