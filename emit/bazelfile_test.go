package emit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBazelFileDescribesGoLibrary(t *testing.T) {
	out, err := BazelFile("fs", "fs.go", "fs_impl.go", Options{Full: true})
	require.NoError(t, err)

	s := string(out)
	require.Contains(t, s, `go_library(`)
	require.Contains(t, s, `name = "fs"`)
	require.Contains(t, s, `"fs.go"`)
	require.Contains(t, s, `"fs_impl.go"`)
	require.Contains(t, s, `importpath = "treegen/fs"`)
	require.Contains(t, s, "support/cbor")
}

func TestBazelFileLiteOmitsCodecDep(t *testing.T) {
	out, err := BazelFile("fs", "fs.go", "fs_impl.go", Options{Full: false})
	require.NoError(t, err)

	s := string(out)
	require.NotContains(t, s, `"fs_impl.go"`)
	require.NotContains(t, s, "support/cbor")
}
