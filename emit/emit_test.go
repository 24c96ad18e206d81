package emit

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"treegen/schema"
)

// fieldPattern builds a regexp tolerant of gofmt's struct-field column
// alignment, which inserts a variable run of spaces between a field name
// and its type depending on its sibling fields' widths.
func fieldPattern(name, typ string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(name) + `\s+` + regexp.QuoteMeta(typ))
}

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

func mustParse(t *testing.T) *schema.Specification {
	t.Helper()
	spec, err := schema.Parse("fs.tree", filesystemSchema)
	require.NoError(t, err)
	return spec
}

func TestFullGeneratesNodeModelAndCodec(t *testing.T) {
	spec := mustParse(t)
	res, err := Full(spec, Options{})
	require.NoError(t, err)

	main := string(res.Main)
	require.Contains(t, main, "package fs")
	require.Contains(t, main, "type System struct")
	require.Regexp(t, fieldPattern("Drives", `edge\.NonEmptyList\[\*Drive\]`), main)
	require.Contains(t, main, "type Entry interface")
	require.Contains(t, main, "func (*File) isEntry() {}")
	require.Contains(t, main, "func (n *System) FindReachable(pm *wellform.PointerMap) error")
	require.Contains(t, main, "func (n *System) CheckComplete(pm *wellform.PointerMap) error")
	require.Contains(t, main, "multierr.Append")
	require.Contains(t, main, "func (n *System) Clone() *System")
	require.Contains(t, main, "cp.annotations = n.annotations.CloneRaw()")
	require.Contains(t, main, "func (n *System) Equal(other *System) bool")
	require.Contains(t, main, "n.annotations.Equal(&other.annotations)")
	require.Contains(t, main, "type Visitor[R any] interface")
	require.Contains(t, main, "func DispatchVisit[R any](v Visitor[R], n visitor.Node) R")
	require.Contains(t, main, "func Dump(n visitor.Node) string")
	require.Contains(t, main, "func AsFile(n Entry) (*File, bool)")
	require.Contains(t, main, "func AsMount(n Entry) (*Mount, bool)")

	impl := string(res.Impl)
	require.Contains(t, impl, "package fs")
	require.Contains(t, impl, "func Serialize(root *System) ([]byte, error)")
	require.Contains(t, impl, "func Deserialize(data []byte) (*System, error)")
	require.Contains(t, impl, "type pendingLink struct")
	require.Contains(t, impl, `case "Mount":`)

	// The support/cbor import only belongs in the Full variant.
	require.Contains(t, main, "treegen/support/cbor")
	require.Contains(t, impl, "treegen/support/cbor")
}

func TestLiteOmitsCodec(t *testing.T) {
	spec := mustParse(t)
	res, err := Lite(spec, Options{})
	require.NoError(t, err)

	main := string(res.Main)
	require.Contains(t, main, "type System struct")
	require.NotContains(t, main, "treegen/support/cbor")
	require.NotContains(t, main, "func Serialize(")

	impl := strings.TrimSpace(string(res.Impl))
	require.Contains(t, impl, "package fs")
	require.NotContains(t, impl, "func Serialize(")
	require.NotContains(t, impl, "func Deserialize(")
}

func TestGenerateRejectsEmptySpecification(t *testing.T) {
	_, err := Generate(&schema.Specification{}, Options{})
	require.Error(t, err)
}

func TestPackageNameOverride(t *testing.T) {
	spec := mustParse(t)
	res, err := Full(spec, Options{PackageName: "vfs"})
	require.NoError(t, err)
	require.Contains(t, string(res.Main), "package vfs")
}

func TestMountLinkFieldUsesLinkEdgeType(t *testing.T) {
	spec := mustParse(t)
	res, err := Full(spec, Options{})
	require.NoError(t, err)
	require.Regexp(t, fieldPattern("Target", `edge\.Link\[\*Directory\]`), string(res.Main))
}

func TestAbstractNodeRefFieldUsesBareInterfaceType(t *testing.T) {
	spec := mustParse(t)
	res, err := Full(spec, Options{})
	require.NoError(t, err)
	// Entry is abstract (File/Mount derive from it): a field referencing
	// it must use the bare interface type, not a pointer to it.
	require.Regexp(t, fieldPattern("Entries", `edge\.List\[Entry\]`), string(res.Main))
}

func TestAbstractInterfaceDeclaresWellformMethodsAndDispatchesCloneEqual(t *testing.T) {
	spec := mustParse(t)
	res, err := Full(spec, Options{})
	require.NoError(t, err)
	main := string(res.Main)

	// Entry must expose FindReachable/CheckComplete directly (every leaf
	// shares the same signature), since Directory.Entries' generated
	// FindReachable/CheckComplete bodies call them on the bare Entry
	// interface value.
	require.Contains(t, main, "FindReachable(pm *wellform.PointerMap) error")
	require.Contains(t, main, "CheckComplete(pm *wellform.PointerMap) error")

	// Clone/Equal can't join the interface (File.Clone returns *File, not
	// Entry), so Directory's Clone/Equal dispatch through generated
	// free functions instead of calling v.Clone()/a.Equal(b) directly.
	require.Contains(t, main, "func cloneEntry(n Entry) Entry")
	require.Contains(t, main, "func equalEntry(a, b Entry) bool")
	require.Contains(t, main, "return cloneEntry(v) }")
	require.Contains(t, main, "return equalEntry(a, b) }")
}
