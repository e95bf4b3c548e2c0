package finding

import "github.com/probekit/probekit/pkg/payloads"

// Confidence grades how strong the heuristic evidence behind a finding is.
type Confidence string

const (
	// ConfidenceHigh means a signature match (DB error text, reflected
	// marker, sentinel file contents) was observed directly.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium means a differential signal (timing delta, body
	// length shift) without direct content evidence.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow means a weak secondary indicator only.
	ConfidenceLow Confidence = "low"
)

// Rank returns a numeric rank for comparing confidence levels.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Evidence ties a finding back to the probe response that produced it.
// Excerpt is always taken from an observed response body or header set,
// never synthesized.
type Evidence struct {
	// Signature is the matched detection signature (error fragment,
	// reflection marker, header name).
	Signature string `json:"signature"`

	// Excerpt is the surrounding response content that matched.
	Excerpt string `json:"excerpt,omitempty"`
}

// Finding is one classified vulnerability observation. Findings are
// immutable once emitted; the aggregator owns them afterwards.
type Finding struct {
	Class      payloads.Class `json:"class"`
	Severity   Severity       `json:"severity"`
	Confidence Confidence     `json:"confidence"`
	Endpoint   string         `json:"endpoint"`
	Evidence   Evidence       `json:"evidence"`
	Detail     string         `json:"detail,omitempty"`
}

// Key returns the deduplication key: identical (endpoint, class, signature)
// tuples describe the same finding.
func (f Finding) Key() string {
	return f.Endpoint + "\x00" + string(f.Class) + "\x00" + f.Evidence.Signature
}

// Stronger reports whether f carries stronger evidence than other,
// comparing severity first and confidence second.
func (f Finding) Stronger(other Finding) bool {
	if f.Severity.Score() != other.Severity.Score() {
		return f.Severity.Score() > other.Severity.Score()
	}
	return f.Confidence.Rank() > other.Confidence.Rank()
}
