// Package aggregate collects findings from concurrent probe workers,
// deduplicates them, and emits the final ordered finding list with
// per-class remediation recommendations. One aggregator instance is the
// single writer for an assessment's finding set; workers never mutate the
// list directly.
package aggregate

import (
	"sort"

	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
)

// Aggregator accumulates findings for one assessment.
// It is not safe for concurrent use: feed it from a single drain point.
type Aggregator struct {
	seen     map[string]int // finding key -> index into findings
	findings []finding.Finding
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{seen: make(map[string]int)}
}

// Add records a finding. Identical (endpoint, class, signature) tuples are
// deduplicated; when a duplicate arrives with stronger evidence it replaces
// the weaker one. Returns true if the set changed.
func (a *Aggregator) Add(f finding.Finding) bool {
	key := f.Key()
	if i, ok := a.seen[key]; ok {
		if f.Stronger(a.findings[i]) {
			a.findings[i] = f
			return true
		}
		return false
	}
	a.seen[key] = len(a.findings)
	a.findings = append(a.findings, f)
	return true
}

// Len returns the current number of distinct findings.
func (a *Aggregator) Len() int {
	return len(a.findings)
}

// Emit returns the frozen finding list, sorted by severity descending then
// class name, endpoint, and signature for determinism, plus one remediation
// recommendation per vulnerability class present.
func (a *Aggregator) Emit() ([]finding.Finding, []string) {
	out := make([]finding.Finding, len(a.findings))
	copy(out, a.findings)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Score() != out[j].Severity.Score() {
			return out[i].Severity.Score() > out[j].Severity.Score()
		}
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Evidence.Signature < out[j].Evidence.Signature
	})

	return out, recommendations(out)
}

// recommendations produces one fixed remediation string per class present,
// ordered by the canonical class order.
func recommendations(findings []finding.Finding) []string {
	present := make(map[payloads.Class]bool)
	for _, f := range findings {
		present[f.Class] = true
	}

	var recs []string
	for _, cl := range payloads.AllClasses() {
		if present[cl] {
			recs = append(recs, remediationFor(cl))
		}
	}
	return recs
}

func remediationFor(cl payloads.Class) string {
	switch cl {
	case payloads.ClassSQLi:
		return "Use parameterized queries (prepared statements) for all database access and validate input against an allow-list."
	case payloads.ClassXSS:
		return "Encode all user-controlled output for its HTML context and deploy a restrictive Content-Security-Policy."
	case payloads.ClassCmdInjection:
		return "Never pass user input to a shell; use exec-style APIs with fixed argument vectors and strict input validation."
	case payloads.ClassPathTraversal:
		return "Canonicalize file paths and reject any resolved path outside the intended base directory."
	case payloads.ClassHeaders:
		return "Set the standard hardening headers: X-Frame-Options, X-Content-Type-Options, Strict-Transport-Security, and Content-Security-Policy."
	default:
		return "Review the affected endpoint and apply input validation and output encoding."
	}
}
