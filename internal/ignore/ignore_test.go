package ignore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAlwaysApply(t *testing.T) {
	// No ignore file anywhere: built-in defaults still exclude dependency
	// and build-output directories.
	root := t.TempDir()
	rs := Load(root, "", zerolog.Nop())

	assert.True(t, rs.ShouldIgnore("node_modules/x/package.json"))
	assert.True(t, rs.ShouldIgnore(".next/static/chunk.js"))
	assert.True(t, rs.ShouldIgnore("dist/index.js"))
	assert.True(t, rs.ShouldIgnore("coverage/lcov.info"))
	assert.True(t, rs.ShouldIgnore("src/components/Foo.stories.tsx"))
	assert.False(t, rs.ShouldIgnore("src/components/Foo.tsx"))
	assert.False(t, rs.ShouldIgnore("package.json"))
}

func TestProjectIgnoreFileIsLayeredOverDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("secret/\n*.snap\n"), 0o644))

	rs := Load(root, "", zerolog.Nop())

	assert.True(t, rs.ShouldIgnore("secret/key.ts"))
	assert.True(t, rs.ShouldIgnore("src/__snapshots__/a.snap"))
	// Defaults still apply alongside the project file.
	assert.True(t, rs.ShouldIgnore("node_modules/left-pad/index.js"))
}

func TestOverrideReplacesProjectIgnoreFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("from-project/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "custom.ignore"), []byte("from-override/\n"), 0o644))

	rs := Load(root, "custom.ignore", zerolog.Nop())

	assert.True(t, rs.ShouldIgnore("from-override/a.ts"))
	// The project .gitignore is not consulted when an override is given.
	assert.False(t, rs.ShouldIgnore("from-project/a.ts"))
	assert.True(t, rs.ShouldIgnore("node_modules/a.ts"))
}

func TestMissingOverrideWarnsAndFallsBackToDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("from-project/\n"), 0o644))

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	rs := Load(root, "does-not-exist.ignore", log)

	// Only built-in defaults apply: neither the project file nor the
	// missing override contributes rules.
	assert.False(t, rs.ShouldIgnore("from-project/a.ts"))
	assert.True(t, rs.ShouldIgnore("node_modules/a.ts"))
	assert.Contains(t, buf.String(), "does-not-exist.ignore")
	assert.Contains(t, buf.String(), "warn")
}

func TestNegationReincludes(t *testing.T) {
	rs := NewRuleSet("docs/**", "!docs/keep.ts")

	assert.True(t, rs.ShouldIgnore("docs/drop.ts"))
	assert.False(t, rs.ShouldIgnore("docs/keep.ts"))
}

func TestAnchoredPatternIgnoresSubtree(t *testing.T) {
	rs := NewRuleSet("src/fixtures")

	assert.True(t, rs.ShouldIgnore("src/fixtures"))
	assert.True(t, rs.ShouldIgnore("src/fixtures/deep/nested.ts"))
	assert.False(t, rs.ShouldIgnore("other/fixtures/nested.ts"))
}

func TestSeparatorNormalization(t *testing.T) {
	rs := NewRuleSet("node_modules/")
	assert.True(t, rs.ShouldIgnore(`node_modules\x\package.json`))
}

func TestShouldIgnoreDir(t *testing.T) {
	rs := NewRuleSet("vendor/")
	assert.True(t, rs.ShouldIgnoreDir("vendor"))
	assert.False(t, rs.ShouldIgnoreDir("src"))

	// With negations present the walker must descend everywhere.
	withNeg := NewRuleSet("vendor/", "!vendor/keep")
	assert.False(t, withNeg.ShouldIgnoreDir("vendor"))
}

func TestCommentsAndBlankLinesAreSkipped(t *testing.T) {
	rs := NewRuleSet("# a comment", "", "  ", "real/")
	assert.True(t, rs.ShouldIgnore("real/file.ts"))
	assert.False(t, rs.ShouldIgnore("a comment"))
}
