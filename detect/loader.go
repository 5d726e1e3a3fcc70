package detect

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"argus/core"
)

// maxPatternFileSize bounds pattern files against accidental or
// hostile oversized documents.
const maxPatternFileSize = 1 << 20 // 1MB

// patternFile is the on-disk shape of a pattern definition file.
type patternFile struct {
	Patterns []*core.AnomalyPattern `yaml:"patterns"`
}

// LoadPatternsFile reads additional anomaly patterns from a YAML file.
// The returned patterns are unvalidated; callers merge them into a
// registry, which validates and compiles fail-fast.
func LoadPatternsFile(path string, logger *zap.SugaredLogger) ([]*core.AnomalyPattern, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat patterns file: %w", err)
	}
	if info.Size() > maxPatternFileSize {
		return nil, fmt.Errorf("patterns file %s exceeds %d bytes", path, maxPatternFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns file: %w", err)
	}

	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse patterns file %s: %w", path, err)
	}

	logger.Infow("loaded pattern definitions from file", "path", path, "patterns", len(file.Patterns))
	return file.Patterns, nil
}

// MergePatterns combines built-in and file-loaded patterns. File
// patterns with an id matching a built-in override the built-in
// definition.
func MergePatterns(builtin, extra []*core.AnomalyPattern) []*core.AnomalyPattern {
	if len(extra) == 0 {
		return builtin
	}
	index := make(map[string]int, len(builtin))
	merged := make([]*core.AnomalyPattern, len(builtin))
	copy(merged, builtin)
	for i, p := range merged {
		index[p.ID] = i
	}
	for _, p := range extra {
		if i, ok := index[p.ID]; ok {
			merged[i] = p
			continue
		}
		index[p.ID] = len(merged)
		merged = append(merged, p)
	}
	return merged
}
