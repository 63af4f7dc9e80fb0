// Package classify maps relative file paths to their structural role in
// the project. Classification is pure: the file contents are never read.
package classify

import (
	"path"
	"strings"
)

// Role is the structural category assigned to a discovered file.
type Role string

const (
	RoleComponent  Role = "Component"
	RoleMiddleware Role = "Middleware"
	RoleAPIRoute   Role = "API Route"
	RolePage       Role = "Page"
	RolePlugin     Role = "Plugin"
	RoleConfig     Role = "Config"
	RolePackage    Role = "Package"
	// RoleModule is the fallback role for files that match no other rule.
	// It is never selected for analysis.
	RoleModule Role = "Module"
)

// componentExt is the extension that marks a file as a renderable component.
const componentExt = ".tsx"

// pageSuffixes are the bootstrap/layout/not-found/scripts entry points
// that are always treated as pages regardless of location.
var pageSuffixes = []string{
	"_app.tsx",
	"layout.tsx",
	"not-found.tsx",
	"scripts/index.ts",
}

// configSuffixes are the known configuration file basenames.
var configSuffixes = []string{
	"components/props/index.ts",
	"next.config.js",
	"next.config.mjs",
}

// Classify assigns a role to a relative path. The rules form an ordered
// decision list and the first matching rule wins: a path under both a
// middleware directory and a plugins directory is Middleware because the
// middleware rule is evaluated first. Matching is case-insensitive and
// path separators are normalized, so behavior is identical across
// platforms.
func Classify(relPath string) Role {
	p := normalize(relPath)

	switch {
	case hasAnySuffix(p, pageSuffixes):
		return RolePage
	case hasAnySuffix(p, configSuffixes):
		return RoleConfig
	case hasSegment(p, "components") && strings.HasSuffix(p, componentExt):
		return RoleComponent
	case hasSegment(p, "middleware"):
		return RoleMiddleware
	case hasSegment(p, "pages/api"):
		return RoleAPIRoute
	case hasSegment(p, "pages") && strings.HasSuffix(p, componentExt):
		return RolePage
	case hasSegment(p, "plugins"):
		return RolePlugin
	case path.Base(p) == "package.json":
		return RolePackage
	default:
		return RoleModule
	}
}

// RoleSet is a set of roles selected for analysis.
type RoleSet map[Role]struct{}

// DefaultRolesOfInterest returns every role except Module.
func DefaultRolesOfInterest() RoleSet {
	return NewRoleSet(
		RoleComponent,
		RoleMiddleware,
		RoleAPIRoute,
		RolePage,
		RolePlugin,
		RoleConfig,
		RolePackage,
	)
}

// NewRoleSet builds a RoleSet from the given roles. Module is dropped if
// present: it is excluded from analysis unconditionally.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if r == RoleModule {
			continue
		}
		s[r] = struct{}{}
	}
	return s
}

// Contains reports whether role is selected for analysis.
func (s RoleSet) Contains(role Role) bool {
	_, ok := s[role]
	return ok
}

// ParseRole resolves a user-supplied role name, case-insensitively.
// Returns false for unknown names.
func ParseRole(name string) (Role, bool) {
	for _, r := range []Role{
		RoleComponent, RoleMiddleware, RoleAPIRoute, RolePage,
		RolePlugin, RoleConfig, RolePackage, RoleModule,
	} {
		if strings.EqualFold(name, string(r)) {
			return r, true
		}
	}
	return "", false
}

func normalize(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
}

// hasAnySuffix matches basename suffixes literally; a suffix spanning
// segments must start on a segment boundary, so "scripts/index.ts"
// does not match "buildscripts/index.ts".
func hasAnySuffix(p string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.Contains(s, "/") {
			if p == s || strings.HasSuffix(p, "/"+s) {
				return true
			}
			continue
		}
		if strings.HasSuffix(p, s) {
			return true
		}
	}
	return false
}

// hasSegment reports whether the path contains seg as a complete
// directory segment (seg itself may span multiple segments, e.g. "pages/api").
func hasSegment(p, seg string) bool {
	return strings.Contains("/"+p+"/", "/"+seg+"/")
}
