package detect

import (
	"strings"

	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
	"github.com/probekit/probekit/pkg/probe"
)

// headerCheck describes one expected hardening header.
type headerCheck struct {
	name     string
	severity finding.Severity
	detail   string
	// httpsOnly restricts the check to TLS endpoints.
	httpsOnly bool
}

// headerChecks is evaluated in order so the emitted findings are
// deterministic for a given baseline.
var headerChecks = []headerCheck{
	{
		name:     "Content-Security-Policy",
		severity: finding.Low,
		detail:   "No Content-Security-Policy header; injected script has no browser-side restriction.",
	},
	{
		name:     "X-Frame-Options",
		severity: finding.Low,
		detail:   "No X-Frame-Options header; the page can be framed for clickjacking.",
	},
	{
		name:     "X-Content-Type-Options",
		severity: finding.Low,
		detail:   "No X-Content-Type-Options header; browsers may MIME-sniff responses.",
	},
	{
		name:      "Strict-Transport-Security",
		severity:  finding.Low,
		detail:    "No Strict-Transport-Security header on an HTTPS endpoint.",
		httpsOnly: true,
	},
	{
		name:     "Referrer-Policy",
		severity: finding.Info,
		detail:   "No Referrer-Policy header; full URLs may leak to third parties.",
	},
}

// SecurityHeaders inspects the baseline response of an endpoint for missing
// hardening headers. Unlike payload detectors it can emit several findings
// for one endpoint, one per missing header, each keyed by the header name.
func SecurityHeaders(baseline *probe.Response) []finding.Finding {
	if baseline == nil || baseline.Failed() {
		return nil
	}

	https := strings.HasPrefix(baseline.Request.Endpoint, "https://")

	var out []finding.Finding
	for _, hc := range headerChecks {
		if hc.httpsOnly && !https {
			continue
		}
		if baseline.Header.Get(hc.name) != "" {
			continue
		}
		out = append(out, finding.Finding{
			Class:      payloads.ClassHeaders,
			Severity:   hc.severity,
			Confidence: finding.ConfidenceHigh,
			Endpoint:   baseline.Request.Endpoint,
			Evidence:   finding.Evidence{Signature: "missing-header/" + hc.name},
			Detail:     hc.detail,
		})
	}
	return out
}
