// Package scan enumerates the candidate files of a project: source files
// and package manifests that survive the ignore rules and classify to a
// role of interest.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/insightify/insightify-cli/internal/classify"
	"github.com/insightify/insightify-cli/internal/events"
	"github.com/insightify/insightify-cli/internal/ignore"
)

// ErrPathNotFound indicates the project root does not exist. It is
// checked before any enumeration starts.
var ErrPathNotFound = errors.New("path not found")

// sourceGlob matches the two source extensions considered for analysis.
const sourceGlob = "*.{ts,tsx}"

// manifestName matches a package manifest at any depth.
const manifestName = "package.json"

// FileRecord describes one discovered file. Records are immutable once
// created.
type FileRecord struct {
	AbsolutePath string
	RelativePath string
	Role         classify.Role
}

// Engine discovers candidate files under a project root.
type Engine struct {
	roles  classify.RoleSet
	events events.Sink
	log    zerolog.Logger
}

// NewEngine creates a discovery engine that keeps files whose role is in
// roles. A nil roles set selects the default roles of interest.
func NewEngine(roles classify.RoleSet, sink events.Sink, log zerolog.Logger) *Engine {
	if roles == nil {
		roles = classify.DefaultRolesOfInterest()
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Engine{roles: roles, events: sink, log: log}
}

// Discover walks projectRoot and returns the files selected for
// analysis. Results follow the walk's lexical order, so repeated runs
// over the same tree produce the same list.
func (e *Engine) Discover(projectRoot string, rules *ignore.RuleSet) ([]FileRecord, error) {
	info, err := os.Stat(projectRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, projectRoot)
	}

	var records []FileRecord
	err = filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = ignore.Normalize(rel)

		if d.IsDir() {
			if rules.ShouldIgnoreDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.isCandidate(rel) {
			return nil
		}
		if rules.ShouldIgnore(rel) {
			return nil
		}
		e.events.Publish(events.FileDiscovered(rel))

		role := classify.Classify(rel)
		if !e.roles.Contains(role) {
			e.log.Debug().Str("path", rel).Str("role", string(role)).Msg("skipping role not selected for analysis")
			return nil
		}
		e.events.Publish(events.FileClassified(rel, string(role)))
		records = append(records, FileRecord{
			AbsolutePath: path,
			RelativePath: rel,
			Role:         role,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", projectRoot, err)
	}

	e.log.Info().Int("files", len(records)).Str("root", projectRoot).Msg("discovery complete")
	return records, nil
}

func (e *Engine) isCandidate(rel string) bool {
	base := path.Base(rel)
	if base == manifestName {
		return true
	}
	ok, _ := doublestar.Match(sourceGlob, base)
	return ok
}
