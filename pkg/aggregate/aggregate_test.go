package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probekit/probekit/pkg/finding"
	"github.com/probekit/probekit/pkg/payloads"
)

func mkFinding(endpoint string, cl payloads.Class, sev finding.Severity, sig string) finding.Finding {
	return finding.Finding{
		Class:      cl,
		Severity:   sev,
		Confidence: finding.ConfidenceHigh,
		Endpoint:   endpoint,
		Evidence:   finding.Evidence{Signature: sig},
	}
}

func TestAddDeduplicates(t *testing.T) {
	t.Parallel()

	a := New()
	f := mkFinding("https://example.com/", payloads.ClassSQLi, finding.Critical, "sql-error/mysql")

	assert.True(t, a.Add(f))
	assert.False(t, a.Add(f), "identical finding is dropped")
	assert.Equal(t, 1, a.Len())
}

func TestAddKeepsStrongerDuplicate(t *testing.T) {
	t.Parallel()

	a := New()
	weak := mkFinding("https://example.com/", payloads.ClassSQLi, finding.High, "time-delay")
	weak.Confidence = finding.ConfidenceMedium
	strong := mkFinding("https://example.com/", payloads.ClassSQLi, finding.Critical, "time-delay")

	assert.True(t, a.Add(weak))
	assert.True(t, a.Add(strong), "stronger duplicate replaces the weaker")
	assert.Equal(t, 1, a.Len())

	got, _ := a.Emit()
	require.Len(t, got, 1)
	assert.Equal(t, finding.Critical, got[0].Severity)

	// A weaker duplicate arriving later changes nothing.
	assert.False(t, a.Add(weak))
}

func TestEmitOrdering(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(mkFinding("https://example.com/b", payloads.ClassHeaders, finding.Low, "missing-header/X-Frame-Options"))
	a.Add(mkFinding("https://example.com/a", payloads.ClassXSS, finding.High, "reflect"))
	a.Add(mkFinding("https://example.com/a", payloads.ClassSQLi, finding.Critical, "sql-error/mysql"))
	a.Add(mkFinding("https://example.com/b", payloads.ClassSQLi, finding.Critical, "sql-error/pgsql"))

	got, _ := a.Emit()
	require.Len(t, got, 4)

	assert.Equal(t, finding.Critical, got[0].Severity)
	assert.Equal(t, finding.Critical, got[1].Severity)
	assert.Equal(t, "https://example.com/a", got[0].Endpoint, "ties break on endpoint")
	assert.Equal(t, "https://example.com/b", got[1].Endpoint)
	assert.Equal(t, finding.High, got[2].Severity)
	assert.Equal(t, finding.Low, got[3].Severity)

	// Emit is stable across calls.
	again, _ := a.Emit()
	assert.Equal(t, got, again)
}

func TestEmitRecommendations(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(mkFinding("https://example.com/", payloads.ClassSQLi, finding.Critical, "sql-error/mysql"))
	a.Add(mkFinding("https://example.com/", payloads.ClassSQLi, finding.Critical, "sql-error/pgsql"))
	a.Add(mkFinding("https://example.com/", payloads.ClassHeaders, finding.Low, "missing-header/X-Frame-Options"))

	_, recs := a.Emit()
	require.Len(t, recs, 2, "one recommendation per class present")
	assert.Contains(t, recs[0], "parameterized queries")
	assert.Contains(t, recs[1], "hardening headers")
}

func TestEmitEmpty(t *testing.T) {
	t.Parallel()

	got, recs := New().Emit()
	assert.Empty(t, got)
	assert.Empty(t, recs)
}
