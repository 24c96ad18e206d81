package emit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleGoMod = `
module github.com/example/treeschemas

go 1.21

require (
	treegen v0.1.0
)
`

func TestResolveImportPathJoinsModuleAndRelDir(t *testing.T) {
	p, err := ResolveImportPath([]byte(sampleGoMod), "internal/fstypes")
	require.NoError(t, err)
	require.Equal(t, "github.com/example/treeschemas/internal/fstypes", p)
}

func TestResolveImportPathEmptyRelDirReturnsModuleRoot(t *testing.T) {
	p, err := ResolveImportPath([]byte(sampleGoMod), "")
	require.NoError(t, err)
	require.Equal(t, "github.com/example/treeschemas", p)
}

func TestResolveImportPathRejectsMalformedGoMod(t *testing.T) {
	_, err := ResolveImportPath([]byte("not a go.mod"), "x")
	require.Error(t, err)
}
