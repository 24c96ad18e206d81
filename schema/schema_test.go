package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const filesystemSchema = `
namespace fs;
support treegen_support;
initialize init;
serialize ser, des;
source_loc SourceLoc;

ext Letter;
ext String;

/// A filesystem made up of one or more drives.
node System {
  drives: NonEmptyList<Drive>;
}

node Drive {
  letter: Letter;
  root_dir: Exactly<Directory>;
}

node Directory {
  entries: List<Entry>;
  name: String;
}

/// Common base of everything a Directory can contain.
node Entry {
  name: String;

  node File {
    contents: String;
  }

  node Mount {
    target: Link<Directory>;
  }
}
`

func TestParseFilesystemSchema(t *testing.T) {
	spec, err := Parse("fs.tree", filesystemSchema)
	require.NoError(t, err)

	require.Equal(t, "fs", spec.Config.Namespace)
	require.Equal(t, "treegen_support", spec.Config.SupportNamespace)
	require.Equal(t, "init", spec.Config.InitializeFunc)
	require.Equal(t, "ser", spec.Config.SerializeFunc)
	require.Equal(t, "des", spec.Config.DeserializeFunc)

	sys, ok := spec.Lookup("system")
	require.True(t, ok)
	require.Equal(t, "System", sys.TitleName)
	require.True(t, sys.Leaf())
	require.Len(t, sys.Fields, 1)
	require.Equal(t, NonEmptyList, sys.Fields[0].Kind)
	require.Equal(t, "drive", sys.Fields[0].RefNode)

	entry, ok := spec.Lookup("entry")
	require.True(t, ok)
	require.False(t, entry.Leaf())
	require.Equal(t, []string{"file", "mount"}, entry.Children)

	file, ok := spec.Lookup("file")
	require.True(t, ok)
	require.Equal(t, "entry", file.Parent)
	// File inherits Entry's "name" field followed by its own "contents".
	require.Len(t, file.Fields, 2)
	require.Equal(t, "name", file.Fields[0].Name)
	require.Equal(t, "contents", file.Fields[1].Name)

	mount, ok := spec.Lookup("mount")
	require.True(t, ok)
	require.Equal(t, Link, mount.Fields[1].Kind)
	require.Equal(t, "directory", mount.Fields[1].RefNode)

	leaves := spec.Leaves("entry")
	require.Len(t, leaves, 2)
}

func TestDuplicateNodeNameRejected(t *testing.T) {
	src := `
initialize init;
node A { x: T; }
node A { y: T; }
`
	_, err := Parse("dup.tree", src)
	require.Error(t, err)
}

func TestUnknownFieldTypeRejected(t *testing.T) {
	src := `
initialize init;
node A { x: Exactly<Nope>; }
`
	_, err := Parse("unknown.tree", src)
	require.Error(t, err)
}

func TestBareNodeFieldRejected(t *testing.T) {
	src := `
initialize init;
ext T;
node A { y: T; }
node B { x: A; }
`
	_, err := Parse("bare.tree", src)
	require.Error(t, err)
}

func TestReorderPermutesFields(t *testing.T) {
	src := `
initialize init;
ext T;
node A {
  a: T;
  b: T;
  reorder(b, a);
}
`
	spec, err := Parse("reorder.tree", src)
	require.NoError(t, err)
	a, _ := spec.Lookup("a")
	require.Equal(t, []string{"b", "a"}, []string{a.Fields[0].Name, a.Fields[1].Name})
}

func TestMissingInitializeDirectiveRejected(t *testing.T) {
	src := `
node A { }
`
	_, err := Parse("noinit.tree", src)
	require.Error(t, err)
}

func TestErrorMarkerNodeType(t *testing.T) {
	src := `
initialize init;
ext T;
node A {
  error;
  x: T;
}
`
	spec, err := Parse("err.tree", src)
	require.NoError(t, err)
	a, _ := spec.Lookup("a")
	require.True(t, a.IsError)
}
