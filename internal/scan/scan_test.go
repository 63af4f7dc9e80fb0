package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightify/insightify-cli/internal/classify"
	"github.com/insightify/insightify-cli/internal/events"
	"github.com/insightify/insightify-cli/internal/ignore"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("export {}\n"), 0o644))
}

type captureSink struct {
	evts []events.Event
}

func (c *captureSink) Publish(e events.Event) { c.evts = append(c.evts, e) }

func TestDiscoverScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/components/Foo.tsx")
	writeFile(t, root, "src/middleware/plugins/bar.ts")
	writeFile(t, root, "node_modules/x/package.json")
	writeFile(t, root, "package.json")

	engine := NewEngine(nil, nil, zerolog.Nop())
	records, err := engine.Discover(root, ignore.Load(root, "", zerolog.Nop()))
	require.NoError(t, err)

	byPath := map[string]classify.Role{}
	for _, r := range records {
		byPath[r.RelativePath] = r.Role
	}
	assert.Equal(t, map[string]classify.Role{
		"src/components/Foo.tsx":        classify.RoleComponent,
		"src/middleware/plugins/bar.ts": classify.RoleMiddleware,
		"package.json":                  classify.RolePackage,
	}, byPath)
}

func TestDiscoverMissingRoot(t *testing.T) {
	engine := NewEngine(nil, nil, zerolog.Nop())
	_, err := engine.Discover(filepath.Join(t.TempDir(), "nope"), ignore.NewRuleSet())
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestDiscoverRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plain.txt")
	engine := NewEngine(nil, nil, zerolog.Nop())
	_, err := engine.Discover(filepath.Join(root, "plain.txt"), ignore.NewRuleSet())
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestDiscoverDropsModulesAndNonCandidates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib/format.ts") // classifies as Module
	writeFile(t, root, "README.md")         // not a candidate extension
	writeFile(t, root, "src/pages/index.tsx")

	engine := NewEngine(nil, nil, zerolog.Nop())
	records, err := engine.Discover(root, ignore.Load(root, "", zerolog.Nop()))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "src/pages/index.tsx", records[0].RelativePath)
	assert.Equal(t, classify.RolePage, records[0].Role)
}

func TestDiscoverHonorsRolesOfInterest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/components/Foo.tsx")
	writeFile(t, root, "src/pages/index.tsx")

	engine := NewEngine(classify.NewRoleSet(classify.RolePage), nil, zerolog.Nop())
	records, err := engine.Discover(root, ignore.Load(root, "", zerolog.Nop()))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, classify.RolePage, records[0].Role)
}

func TestDiscoverEmitsEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/components/Foo.tsx")

	sink := &captureSink{}
	engine := NewEngine(nil, sink, zerolog.Nop())
	_, err := engine.Discover(root, ignore.Load(root, "", zerolog.Nop()))
	require.NoError(t, err)

	require.Len(t, sink.evts, 2)
	assert.Equal(t, events.TypeFileDiscovered, sink.evts[0].Type)
	assert.Equal(t, events.TypeFileClassified, sink.evts[1].Type)
	assert.Equal(t, "src/components/Foo.tsx", sink.evts[1].Path)
	assert.Equal(t, string(classify.RoleComponent), sink.evts[1].Role)
}

func TestDiscoverIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/pages/a.tsx")
	writeFile(t, root, "src/pages/b.tsx")
	writeFile(t, root, "src/pages/c.tsx")

	engine := NewEngine(nil, nil, zerolog.Nop())
	first, err := engine.Discover(root, ignore.NewRuleSet())
	require.NoError(t, err)
	second, err := engine.Discover(root, ignore.NewRuleSet())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
