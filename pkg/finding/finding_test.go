package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probekit/probekit/pkg/payloads"
)

func TestKeyIdentifiesDuplicates(t *testing.T) {
	t.Parallel()

	a := Finding{Class: payloads.ClassSQLi, Endpoint: "https://example.com/", Evidence: Evidence{Signature: "sql-error/mysql"}}
	b := Finding{Class: payloads.ClassSQLi, Endpoint: "https://example.com/", Evidence: Evidence{Signature: "sql-error/mysql"}}
	c := Finding{Class: payloads.ClassSQLi, Endpoint: "https://example.com/", Evidence: Evidence{Signature: "sql-error/pgsql"}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestStronger(t *testing.T) {
	t.Parallel()

	critical := Finding{Severity: Critical, Confidence: ConfidenceMedium}
	high := Finding{Severity: High, Confidence: ConfidenceHigh}
	highWeak := Finding{Severity: High, Confidence: ConfidenceLow}

	assert.True(t, critical.Stronger(high), "severity outranks confidence")
	assert.False(t, high.Stronger(critical))
	assert.True(t, high.Stronger(highWeak), "confidence breaks severity ties")
	assert.False(t, high.Stronger(high), "equal strength is not stronger")
}

func TestSeverityScoreOrdering(t *testing.T) {
	t.Parallel()

	sevs := AllSeverities()
	for i := 1; i < len(sevs); i++ {
		assert.Greater(t, sevs[i-1].Score(), sevs[i].Score())
	}
}

func TestConfidenceRank(t *testing.T) {
	t.Parallel()

	assert.Greater(t, ConfidenceHigh.Rank(), ConfidenceMedium.Rank())
	assert.Greater(t, ConfidenceMedium.Rank(), ConfidenceLow.Rank())
	assert.Zero(t, Confidence("bogus").Rank())
}
