package payloads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogStableOrder(t *testing.T) {
	t.Parallel()

	c := Builtin()
	first := c.ForClass(ClassSQLi)
	second := c.ForClass(ClassSQLi)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	// The returned slice is a copy: mutating it must not leak back.
	first[0].Value = "mutated"
	assert.NotEqual(t, first[0].Value, c.ForClass(ClassSQLi)[0].Value)
}

func TestBuiltinCatalogCoverage(t *testing.T) {
	t.Parallel()

	c := Builtin()
	for _, cl := range []Class{ClassSQLi, ClassXSS, ClassCmdInjection, ClassPathTraversal} {
		assert.NotEmpty(t, c.ForClass(cl), "class %s has no payloads", cl)
	}
	// The header check is baseline-only.
	assert.Empty(t, c.ForClass(ClassHeaders))
}

func TestBuiltinPayloadsAreWellFormed(t *testing.T) {
	t.Parallel()

	c := Builtin()
	for _, cl := range AllClasses() {
		for _, p := range c.ForClass(cl) {
			assert.Equal(t, cl, p.Class)
			assert.NotEmpty(t, p.Value)
			assert.NotEmpty(t, p.Signature)
			assert.True(t, p.Point == InjectQuery || p.Point == InjectBody ||
				p.Point == InjectHeader || p.Point == InjectPath)
		}
	}
}

func TestXSSPayloadsCarryMarker(t *testing.T) {
	t.Parallel()

	for _, p := range Builtin().ForClass(ClassXSS) {
		assert.Contains(t, p.Value, XSSMarker())
		assert.Contains(t, p.Signature, XSSMarker())
	}
}

func TestProfileClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		profile Profile
		want    []Class
	}{
		{ProfileFull, AllClasses()},
		{ProfileInjection, []Class{ClassSQLi, ClassXSS, ClassCmdInjection, ClassPathTraversal}},
		{ProfileQuick, []Class{ClassSQLi, ClassXSS, ClassHeaders}},
		{ProfilePassive, []Class{ClassHeaders}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.profile), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.profile.Classes())
		})
	}
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := ParseProfile("quick")
	require.NoError(t, err)
	assert.Equal(t, ProfileQuick, p)

	_, err = ParseProfile("aggressive")
	assert.Error(t, err)
}

func TestParseYAMLCatalog(t *testing.T) {
	t.Parallel()

	data := []byte(`
- class: sqli
  value: "' OR 1=1--"
  signature: "SQL syntax"
  description: custom OR injection
- class: sqli
  value: "' AND SLEEP(3)--"
  signature: time-delay
  sleep: 3s
- class: xss
  value: "<b>probe</b>"
  point: body
  signature: "<b>probe</b>"
`)

	c, err := Parse(data)
	require.NoError(t, err)

	sqli := c.ForClass(ClassSQLi)
	require.Len(t, sqli, 2)
	assert.Equal(t, InjectQuery, sqli[0].Point, "point defaults to query")
	assert.Equal(t, 3*time.Second, sqli[1].Sleep)

	xss := c.ForClass(ClassXSS)
	require.Len(t, xss, 1)
	assert.Equal(t, InjectBody, xss[0].Point)

	assert.Equal(t, 3, c.Count(ClassSQLi, ClassXSS))
}

func TestParseYAMLCatalogRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"unknown class", "- class: lfi\n  value: x\n"},
		{"empty value", "- class: sqli\n  value: \"\"\n"},
		{"bad sleep", "- class: sqli\n  value: x\n  sleep: soon\n"},
		{"not yaml", ": ["},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
