package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandMacrosSplicesEmittedText(t *testing.T) {
	src := `
initialize init;
ext T;
%starlark {
for name in ["a", "b", "c"]:
    emit("node Literal" + name.upper() + " { x: T; }")
}
`
	expanded, err := ExpandMacros("macro.tree", src)
	require.NoError(t, err)
	require.Contains(t, expanded, "node LiteralA { x: T; }")
	require.Contains(t, expanded, "node LiteralB { x: T; }")
	require.Contains(t, expanded, "node LiteralC { x: T; }")
	require.NotContains(t, expanded, "%starlark")
}

func TestParseWithMacrosProducesUsableSpecification(t *testing.T) {
	src := `
initialize init;
ext T;
%starlark {
for name in ["one", "two"]:
    emit("node n_" + name + " { x: T; }")
}
`
	spec, err := ParseWithMacros("macro.tree", src)
	require.NoError(t, err)
	_, ok := spec.Lookup("n_one")
	require.True(t, ok)
	_, ok = spec.Lookup("n_two")
	require.True(t, ok)
}

func TestExpandMacrosRejectsUnterminatedBlock(t *testing.T) {
	src := `
%starlark {
emit("node X { }")
`
	_, err := ExpandMacros("bad.tree", src)
	require.Error(t, err)
}

func TestExpandMacrosPropagatesStarlarkErrors(t *testing.T) {
	src := `
%starlark {
emit(1 / 0)
}
`
	_, err := ExpandMacros("err.tree", src)
	require.Error(t, err)
}
