// Package ignore compiles gitignore-style pattern lines into a predicate over
// directory paths relative to the scan root.
//
// Each line is either a segment pattern (no "/") tested against every path
// segment independently, or a path pattern tested against the whole relative
// path. Rules are evaluated in order and the last matching rule decides:
// a plain rule ignores, a "!" rule re-includes.
package ignore

import (
	"strings"

	"github.com/gobwas/glob"
)

// Kind distinguishes segment patterns from path patterns.
type Kind int

const (
	// KindSegment patterns contain no "/" and match any single path segment.
	KindSegment Kind = iota
	// KindPath patterns contain a "/" and match the full relative path.
	KindPath
)

func (k Kind) String() string {
	if k == KindPath {
		return "path"
	}
	return "segment"
}

// Rule is a single parsed ignore line.
type Rule struct {
	Pattern string
	Negated bool
	Kind    Kind

	// nil when the pattern failed to compile; such a rule never matches.
	glob glob.Glob
}

// Valid reports whether the rule's pattern compiled.
func (r Rule) Valid() bool {
	return r.glob != nil
}

// Matches reports whether the rule matches relPath, a "/"-separated path
// relative to the scan root.
func (r Rule) Matches(relPath string) bool {
	if r.glob == nil {
		return false
	}
	if r.Kind == KindPath {
		return r.glob.Match(relPath)
	}
	for _, seg := range strings.Split(relPath, "/") {
		if seg == "" {
			continue
		}
		if r.glob.Match(seg) {
			return true
		}
	}
	return false
}

// ParseLine parses one ignore-file line. ok is false for blank lines and
// comments.
func ParseLine(line string) (rule Rule, ok bool) {
	line = strings.TrimRight(line, "\r")
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false
	}

	if strings.HasPrefix(line, "!") {
		rule.Negated = true
		line = line[1:]
	}
	line = strings.TrimRight(line, "/")
	if line == "" {
		return Rule{}, false
	}

	if strings.Contains(line, "/") {
		rule.Kind = KindPath
		line = strings.TrimLeft(line, "/")
	}
	rule.Pattern = line

	g, err := glob.Compile(line, '/')
	if err == nil {
		rule.glob = g
	}
	return rule, true
}

// Parse parses pattern lines in order, dropping blanks and comments.
// Malformed patterns are kept as rules that never match.
func Parse(lines []string) []Rule {
	rules := make([]Rule, 0, len(lines))
	for _, line := range lines {
		if r, ok := ParseLine(line); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

// Matcher decides whether a directory is ignored.
type Matcher struct {
	rules []Rule
}

// Compile builds a Matcher from raw pattern lines.
func Compile(lines []string) *Matcher {
	return &Matcher{rules: Parse(lines)}
}

// Rules returns the compiled rules in evaluation order.
func (m *Matcher) Rules() []Rule {
	if m == nil {
		return nil
	}
	return m.rules
}

// Ignored reports whether relPath is ignored. A nil Matcher ignores nothing.
func (m *Matcher) Ignored(relPath string) bool {
	if m == nil {
		return false
	}
	relPath = strings.Trim(relPath, "/")
	if relPath == "" || relPath == "." {
		return false
	}

	ignored := false
	for _, r := range m.rules {
		if r.Matches(relPath) {
			ignored = !r.Negated
		}
	}
	return ignored
}
