package constraint

import (
	"regexp"
	"strings"
	"sync"
)

// patternCache holds compiled anchored, case-insensitive patterns.
// Bound values repeat across every item offered to a lineage, so each
// pattern is compiled once per process.
var patternCache sync.Map // map[string]*regexp.Regexp

// MeetsConditions reports whether value fully matches any of the patterns,
// ignoring case. A pattern that fails to compile never matches.
func MeetsConditions(value string, patterns []string) bool {
	for _, p := range patterns {
		re, err := compileAnchored(p)
		if err != nil {
			continue
		}
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// CompilePattern checks that p is a valid condition pattern.
// Used by the rule compiler to reject bad patterns at load time.
func CompilePattern(p string) error {
	_, err := compileAnchored(p)
	return err
}

func compileAnchored(p string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`(?i)^(?:` + p + `)$`)
	if err != nil {
		return nil, err
	}
	patternCache.Store(p, re)
	return re, nil
}

// Escape turns an observed value into a literal-match pattern.
func Escape(value string) string {
	return regexp.QuoteMeta(value)
}

// Unescape reverses Escape for display.
func Unescape(pattern string) string {
	if !strings.Contains(pattern, `\`) {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern))
	escaped := false
	for _, r := range pattern {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
