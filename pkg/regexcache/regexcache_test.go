package regexcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachesCompiledPattern(t *testing.T) {
	Clear()

	re1, err := Get(`(?i)sql syntax`)
	require.NoError(t, err)
	re2, err := Get(`(?i)sql syntax`)
	require.NoError(t, err)

	assert.Same(t, re1, re2, "second lookup hits the cache")
	assert.Equal(t, 1, Size())
	assert.True(t, re1.MatchString("You have an error in your SQL syntax"))
}

func TestGetInvalidPattern(t *testing.T) {
	_, err := Get(`[unclosed`)
	assert.Error(t, err)
}

func TestMustGetPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { MustGet(`[unclosed`) })
	assert.NotPanics(t, func() { MustGet(`ORA-\d{5}`) })
}

func TestClear(t *testing.T) {
	MustGet(`uid=`)
	assert.Positive(t, Size())
	Clear()
	assert.Zero(t, Size())
}
