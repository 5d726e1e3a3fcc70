package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePattern_AcceptsDetectionPatterns(t *testing.T) {
	rv := NewRegexValidator()
	for _, pattern := range []string{
		"bot|crawler|spider|scraper|curl|wget",
		"/admin|/api/admin",
		"internal-scanner",
		"a{1,10}",
	} {
		assert.NoError(t, rv.ValidatePattern(pattern), pattern)
	}
}

func TestValidatePattern_RejectsEmpty(t *testing.T) {
	rv := NewRegexValidator()
	assert.Error(t, rv.ValidatePattern(""))
}

func TestValidatePattern_RejectsOverlong(t *testing.T) {
	rv := NewRegexValidator()
	assert.Error(t, rv.ValidatePattern(strings.Repeat("a", MaxRegexLength+1)))
}

func TestValidatePattern_RejectsNestedQuantifiers(t *testing.T) {
	rv := NewRegexValidator()
	for _, pattern := range []string{"a++b", "a**b", "a*+b", "a+*b"} {
		assert.Error(t, rv.ValidatePattern(pattern), pattern)
	}
}

func TestValidatePattern_RejectsTooManyAlternations(t *testing.T) {
	rv := NewRegexValidator()
	pattern := strings.Repeat("a|", MaxAlternations+1) + "a"
	assert.Error(t, rv.ValidatePattern(pattern))
}

func TestValidatePattern_RejectsExcessiveRepetition(t *testing.T) {
	rv := NewRegexValidator()
	assert.Error(t, rv.ValidatePattern("a{1000}"))
	assert.NoError(t, rv.ValidatePattern("a{999}"))
}

func TestValidatePattern_RejectsMalformedRegex(t *testing.T) {
	rv := NewRegexValidator()
	assert.Error(t, rv.ValidatePattern("(unclosed"))
}

func TestCompile_CaseInsensitive(t *testing.T) {
	rv := NewRegexValidator()
	re, err := rv.Compile("bot|crawler")
	require.NoError(t, err)
	assert.True(t, re.MatchString("GoogleBot/2.1"))
	assert.True(t, re.MatchString("CRAWLER"))
	assert.False(t, re.MatchString("Mozilla/5.0"))
}

func TestCompile_RejectsUnsafePattern(t *testing.T) {
	rv := NewRegexValidator()
	_, err := rv.Compile("a++b")
	assert.Error(t, err)
}
