// Package ignore implements layered glob exclusion rules for project
// scanning. Rules come from an optional user override file, else the
// project's .gitignore, and a built-in default list is always appended.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// ProjectIgnoreFile is the ignore file consulted at the project root when
// no override path is supplied.
const ProjectIgnoreFile = ".gitignore"

// DefaultPatterns are always in effect, regardless of which ignore file
// was loaded. They cover dependency trees, build output, generated and
// boilerplate code, test fixtures, and story files.
var DefaultPatterns = []string{
	"node_modules/",
	".git/",
	".next/",
	"dist/",
	"build/",
	"out/",
	"coverage/",
	"generated/",
	"__fixtures__/",
	"*.stories.ts",
	"*.stories.tsx",
}

type rule struct {
	glob   string
	negate bool
}

// RuleSet evaluates relative, POSIX-normalized paths against an ordered
// list of glob rules. Later rules win, so a negated rule can re-include
// a path excluded by an earlier one.
type RuleSet struct {
	rules        []rule
	hasNegations bool
}

// Load builds a RuleSet for projectRoot. When overridePath is non-empty
// it is used instead of the project ignore file; if it cannot be read, a
// warning is logged and only the built-in defaults apply. The built-in
// defaults are appended in every case.
func Load(projectRoot, overridePath string, log zerolog.Logger) *RuleSet {
	var lines []string

	if overridePath != "" {
		p := overridePath
		if !filepath.IsAbs(p) {
			p = filepath.Join(projectRoot, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			log.Warn().Str("path", overridePath).Err(err).
				Msg("ignore override file not readable, falling back to built-in defaults")
		} else {
			lines = strings.Split(string(data), "\n")
		}
	} else if data, err := os.ReadFile(filepath.Join(projectRoot, ProjectIgnoreFile)); err == nil {
		lines = strings.Split(string(data), "\n")
	}

	rs := &RuleSet{}
	for _, line := range lines {
		rs.add(line)
	}
	for _, p := range DefaultPatterns {
		rs.add(p)
	}
	return rs
}

// NewRuleSet builds a RuleSet from raw pattern lines, without touching
// the filesystem. The built-in defaults are not appended.
func NewRuleSet(patterns ...string) *RuleSet {
	rs := &RuleSet{}
	for _, p := range patterns {
		rs.add(p)
	}
	return rs
}

func (rs *RuleSet) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	r := rule{}
	if strings.HasPrefix(line, "!") {
		r.negate = true
		rs.hasNegations = true
		line = line[1:]
	}
	// Trailing slash marks a directory pattern; segment matching already
	// treats directory names as ignoring their whole subtree.
	line = strings.TrimSuffix(line, "/")
	r.glob = strings.TrimPrefix(line, "/")
	if r.glob == "" {
		return
	}
	rs.rules = append(rs.rules, r)
}

// ShouldIgnore reports whether the relative path is excluded from
// scanning. Path separators are normalized before matching, so callers
// may pass platform-native paths.
func (rs *RuleSet) ShouldIgnore(relPath string) bool {
	p := Normalize(relPath)
	ignored := false
	for _, r := range rs.rules {
		if r.matches(p) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ShouldIgnoreDir reports whether an entire directory subtree can be
// skipped during a walk. When negation rules exist the walker must still
// descend, since a child could be re-included.
func (rs *RuleSet) ShouldIgnoreDir(relPath string) bool {
	if rs.hasNegations {
		return false
	}
	return rs.ShouldIgnore(relPath)
}

func (r rule) matches(p string) bool {
	if !strings.Contains(r.glob, "/") {
		// A bare pattern applies to every path segment at any depth, so a
		// pattern naming a directory ignores everything beneath it.
		for _, seg := range strings.Split(p, "/") {
			if ok, _ := doublestar.Match(r.glob, seg); ok {
				return true
			}
		}
		return false
	}
	if ok, _ := doublestar.Match(r.glob, p); ok {
		return true
	}
	// An anchored pattern matching a directory ignores everything beneath it.
	ok, _ := doublestar.Match(r.glob+"/**", p)
	return ok
}

// Normalize converts a path to the canonical POSIX form used for
// matching.
func Normalize(p string) string {
	return strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
}
