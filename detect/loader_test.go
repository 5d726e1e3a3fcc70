package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"argus/core"
)

const patternsYAML = `patterns:
  - id: internal_scanner
    name: Internal Scanner
    severity: medium
    enabled: true
    criteria:
      user_agent_pattern: internal-scanner
  - id: multiple_failed_logins
    name: Multiple Failed Logins (tightened)
    severity: critical
    enabled: true
    criteria:
      event_type: login_failed
      window_minutes: 10
      threshold: 3
`

func writePatternsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPatternsFile(t *testing.T) {
	logger := zap.NewNop().Sugar()
	path := writePatternsFile(t, patternsYAML)

	patterns, err := LoadPatternsFile(path, logger)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.Equal(t, "internal_scanner", patterns[0].ID)
	assert.Equal(t, "internal-scanner", patterns[0].Criteria.UserAgentPattern)
	assert.Equal(t, core.SeverityCritical, patterns[1].Severity)
	assert.Equal(t, 3, patterns[1].Criteria.Threshold)
}

func TestLoadPatternsFile_MissingFile(t *testing.T) {
	logger := zap.NewNop().Sugar()
	_, err := LoadPatternsFile(filepath.Join(t.TempDir(), "absent.yaml"), logger)
	assert.Error(t, err)
}

func TestLoadPatternsFile_MalformedYAML(t *testing.T) {
	logger := zap.NewNop().Sugar()
	path := writePatternsFile(t, "patterns: [not: {valid")
	_, err := LoadPatternsFile(path, logger)
	assert.Error(t, err)
}

func TestMergePatterns_FileOverridesBuiltin(t *testing.T) {
	logger := zap.NewNop().Sugar()
	path := writePatternsFile(t, patternsYAML)
	extra, err := LoadPatternsFile(path, logger)
	require.NoError(t, err)

	builtin := BuiltinPatterns()
	merged := MergePatterns(builtin, extra)
	assert.Len(t, merged, len(builtin)+1)

	r, err := NewPatternRegistry(merged, logger)
	require.NoError(t, err)

	overridden, err := r.Get("multiple_failed_logins")
	require.NoError(t, err)
	assert.Equal(t, core.SeverityCritical, overridden.Severity)
	assert.Equal(t, 3, overridden.Criteria.Threshold)

	added, err := r.Get("internal_scanner")
	require.NoError(t, err)
	assert.NotNil(t, added.UserAgentRegexp())
}

func TestMergePatterns_NoExtras(t *testing.T) {
	builtin := BuiltinPatterns()
	assert.Equal(t, builtin, MergePatterns(builtin, nil))
}
