// Package pathrules parses the path rules that say where a report type's
// files are. One rule per line:
//
//	+:reports/junit/*.xml
//	-:reports/junit/TEST-flaky.xml
//	build/test-results
//
// A line without a prefix includes. Wildcards are allowed in the last path
// element only. A rule naming a directory includes every file directly
// inside it; a path that does not exist yet names a file when it has an
// extension. When several rules match a file the last one wins.
package pathrules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmpty is returned when the text holds no rules.
	ErrEmpty = errors.New("no path rules")
	// ErrWildcardDir is returned for wildcards outside the last element.
	ErrWildcardDir = errors.New("wildcards are only allowed in the file name")
)

const meta = "*?[{"

// Rule is one parsed line.
type Rule struct {
	Include bool
	Dir     string
	Pattern string
	matcher glob.Glob
}

// Rules is an ordered list of path rules.
type Rules struct {
	rules []Rule
}

// Parse reads rules from text. Relative paths are resolved against baseDir.
func Parse(text, baseDir string) (*Rules, error) {
	var rs Rules
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := parseRule(line, baseDir)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", n+1, line, err)
		}
		rs.rules = append(rs.rules, r)
	}
	if len(rs.rules) == 0 {
		return nil, ErrEmpty
	}
	return &rs, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text, baseDir string) *Rules {
	rs, err := Parse(text, baseDir)
	if err != nil {
		panic(err)
	}
	return rs
}

func parseRule(line, baseDir string) (Rule, error) {
	r := Rule{Include: true}
	switch {
	case strings.HasPrefix(line, "+:"):
		line = strings.TrimSpace(line[2:])
	case strings.HasPrefix(line, "-:"):
		r.Include = false
		line = strings.TrimSpace(line[2:])
	}
	if line == "" {
		return r, ErrEmpty
	}

	path := filepath.FromSlash(line)
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	path = filepath.Clean(path)
	dir, name := filepath.Split(path)
	dir = filepath.Clean(dir)
	if strings.ContainsAny(dir, meta) {
		return r, ErrWildcardDir
	}

	switch {
	case strings.ContainsAny(name, meta):
		r.Dir = dir
		r.Pattern = glob.QuoteMeta(filepath.ToSlash(dir)) + "/" + name
	case isFile(path, name):
		r.Dir = dir
		r.Pattern = glob.QuoteMeta(filepath.ToSlash(path))
	default:
		r.Dir = path
		r.Pattern = glob.QuoteMeta(filepath.ToSlash(path)) + "/*"
	}
	m, err := glob.Compile(r.Pattern, '/')
	if err != nil {
		return r, err
	}
	r.matcher = m
	return r, nil
}

// isFile decides whether a path without wildcards names a file. Paths that
// do not exist yet are files when the name has an extension.
func isFile(path, name string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return filepath.Ext(name) != ""
	}
	return !info.IsDir()
}

// Dirs returns the directories of the include rules, without duplicates, in
// rule order.
func (rs *Rules) Dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, r := range rs.rules {
		if r.Include && !seen[r.Dir] {
			seen[r.Dir] = true
			dirs = append(dirs, r.Dir)
		}
	}
	return dirs
}

// Match reports whether path is included. The last matching rule decides.
func (rs *Rules) Match(path string) bool {
	p := filepath.ToSlash(filepath.Clean(path))
	included := false
	for _, r := range rs.rules {
		if r.matcher.Match(p) {
			included = r.Include
		}
	}
	return included
}

// Rules returns the parsed rules.
func (rs *Rules) Rules() []Rule { return append([]Rule(nil), rs.rules...) }

// String describes the rules one per line, for log messages.
func (rs *Rules) String() string {
	lines := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		prefix := "+:"
		if !r.Include {
			prefix = "-:"
		}
		lines = append(lines, prefix+r.Pattern)
	}
	return strings.Join(lines, "\n")
}

// Relative returns name relative to base with forward slashes. Relative
// names, an empty base and names outside base are returned unchanged apart
// from the slashes.
func Relative(base, name string) string {
	if base == "" || !filepath.IsAbs(name) {
		return filepath.ToSlash(name)
	}
	rel, err := filepath.Rel(base, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(name)
	}
	return filepath.ToSlash(rel)
}
