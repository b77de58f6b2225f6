package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVersionFile_FillsDefaultsOnly(t *testing.T) {
	origVersion, origBuild, origCommit := Version, Build, GitCommit
	t.Cleanup(func() { Version, Build, GitCommit = origVersion, origBuild, origCommit })

	Version, Build, GitCommit = "dev", "2026-01-01", "unknown"

	path := filepath.Join(t.TempDir(), ".version")
	require.NoError(t, os.WriteFile(path, []byte("# release\nversion: 1.4.0\nbuild: 2026-10-01\ncommit: abc1234\nbogus line\n"), 0644))

	applyVersionFile(path)

	assert.Equal(t, "1.4.0", Version)
	assert.Equal(t, "2026-01-01", Build, "ldflags value must win")
	assert.Equal(t, "abc1234", GitCommit)
	assert.Equal(t, "1.4.0 (build: 2026-01-01, commit: abc1234)", GetFullVersion())
}
