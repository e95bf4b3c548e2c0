// Package scoring converts a set of classified findings into a numeric
// risk score and severity distribution. Scoring is a pure function of the
// finding set: recomputation over the same findings always yields the same
// result, and the score is never partially updated.
package scoring

import (
	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
)

// Weights maps each severity to its per-occurrence score contribution.
type Weights map[finding.Severity]int

// DefaultWeights returns the default severity weighting. These constants
// are a policy default, not a contract; callers may supply their own.
func DefaultWeights() Weights {
	return Weights{
		finding.Critical: 40,
		finding.High:     25,
		finding.Medium:   10,
		finding.Low:      3,
		finding.Info:     0,
	}
}

// MaxScore caps the numeric risk score.
const MaxScore = 100

// RiskScore is the derived risk of an assessment.
type RiskScore struct {
	Numeric        int                      `json:"numeric"`
	SeverityCounts map[finding.Severity]int `json:"severity_counts"`
}

// Level bands the numeric score into a coarse risk level, matching the
// thresholds used by downstream report generators.
func (r RiskScore) Level() string {
	switch {
	case r.Numeric >= 80:
		return "critical"
	case r.Numeric >= 60:
		return "high"
	case r.Numeric >= 40:
		return "medium"
	default:
		return "low"
	}
}

// Scorer computes risk scores under a fixed weighting.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. A nil weights map selects DefaultWeights.
func NewScorer(w Weights) *Scorer {
	if w == nil {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// Score computes the risk score for a finding set. The input is read-only;
// repeated invocation over the same set is idempotent.
func (s *Scorer) Score(findings []finding.Finding) RiskScore {
	counts := make(map[finding.Severity]int, len(finding.AllSeverities()))
	total := 0
	for _, f := range findings {
		counts[f.Severity]++
		total += s.weights[f.Severity]
	}
	if total > MaxScore {
		total = MaxScore
	}
	return RiskScore{Numeric: total, SeverityCounts: counts}
}

// SeverityFor assigns a severity to a vulnerability class, demoted one
// step when the evidence confidence is below high. The mapping is a fixed
// lookup so classification stays deterministic.
func SeverityFor(class payloads.Class, conf finding.Confidence) finding.Severity {
	var base finding.Severity
	switch class {
	case payloads.ClassSQLi, payloads.ClassCmdInjection:
		base = finding.Critical
	case payloads.ClassPathTraversal:
		base = finding.High
	case payloads.ClassXSS:
		base = finding.High
	case payloads.ClassHeaders:
		return finding.Low
	default:
		base = finding.Medium
	}

	if conf == finding.ConfidenceHigh {
		return base
	}
	return demote(base)
}

func demote(s finding.Severity) finding.Severity {
	switch s {
	case finding.Critical:
		return finding.High
	case finding.High:
		return finding.Medium
	case finding.Medium:
		return finding.Low
	default:
		return finding.Info
	}
}
