package util

import (
	"fmt"
	"regexp"
	"strings"
)

// Limits for pattern regex validation.
const (
	// MaxRegexLength is the maximum allowed regex pattern length.
	MaxRegexLength = 500
	// MaxAlternations is the maximum allowed number of alternations.
	MaxAlternations = 50
	// MaxRepetition is the maximum allowed bounded repetition count.
	MaxRepetition = 999
)

// RegexValidator validates and compiles detection regexes with safety
// checks, rejecting patterns that could degrade the reactive path.
// All patterns compile case-insensitively: detection patterns match
// user agents and endpoints regardless of casing.
type RegexValidator struct {
	maxLength int
}

// NewRegexValidator creates a validator with default limits.
func NewRegexValidator() *RegexValidator {
	return &RegexValidator{maxLength: MaxRegexLength}
}

// ValidatePattern checks a regex pattern for safety without compiling
// it into a matcher the caller keeps.
func (rv *RegexValidator) ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("regex pattern cannot be empty")
	}
	if len(pattern) > rv.maxLength {
		return fmt.Errorf("regex pattern too long: %d characters (max %d)", len(pattern), rv.maxLength)
	}
	if err := checkNestedQuantifiers(pattern); err != nil {
		return err
	}
	if n := strings.Count(pattern, "|"); n > MaxAlternations {
		return fmt.Errorf("too many alternations: %d (max %d)", n, MaxAlternations)
	}
	if err := checkRepetitionBounds(pattern); err != nil {
		return err
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	return nil
}

// Compile validates pattern and compiles it case-insensitively.
func (rv *RegexValidator) Compile(pattern string) (*regexp.Regexp, error) {
	if err := rv.ValidatePattern(pattern); err != nil {
		return nil, err
	}
	re, err := regexp.Compile("(?i:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return re, nil
}

// checkNestedQuantifiers rejects quantifier stacking that Go's RE2
// engine tolerates but that signals a malformed rule.
func checkNestedQuantifiers(pattern string) error {
	suspect := []string{
		")+*", ")*+", ")+{", ")*{",
		"}+*", "}*+", "}+{", "}*{",
		"++", "**", "*+", "+*",
	}
	for _, s := range suspect {
		if strings.Contains(pattern, s) {
			return fmt.Errorf("pattern contains nested quantifiers: found %q", s)
		}
	}
	return nil
}

var repetitionRe = regexp.MustCompile(`\{(\d+)(?:,\d*)?\}`)

// checkRepetitionBounds rejects bounded repetitions above MaxRepetition.
func checkRepetitionBounds(pattern string) error {
	for _, match := range repetitionRe.FindAllStringSubmatch(pattern, -1) {
		var count int
		fmt.Sscanf(match[1], "%d", &count)
		if count > MaxRepetition {
			return fmt.Errorf("excessive repetition: %s (max %d)", match[0], MaxRepetition)
		}
	}
	return nil
}
