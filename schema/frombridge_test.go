package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const thriftFixture = `
struct Directory {
  1: required string name
  2: optional list<Directory> children
}
`

func TestParseThriftBuildsNodeTypes(t *testing.T) {
	spec, err := ParseThrift("fs.thrift", []byte(thriftFixture))
	require.NoError(t, err)

	dir, ok := spec.Lookup("directory")
	require.True(t, ok)
	require.True(t, dir.Leaf())

	var nameField, childrenField *Field
	for i := range dir.Fields {
		switch dir.Fields[i].Name {
		case "name":
			nameField = &dir.Fields[i]
		case "children":
			childrenField = &dir.Fields[i]
		}
	}
	require.NotNil(t, nameField)
	require.Equal(t, EdgeNone, nameField.Kind)
	require.Equal(t, "String", nameField.RefPrimitive)

	require.NotNil(t, childrenField)
	require.Equal(t, List, childrenField.Kind)
	require.Equal(t, "directory", childrenField.RefNode)
}

const protoFixture = `
syntax = "proto3";

message Directory {
  string name = 1;
  repeated Directory children = 2;
}
`

func TestParseProtoBuildsNodeTypes(t *testing.T) {
	spec, err := ParseProto("fs.proto", protoFixture)
	require.NoError(t, err)

	dir, ok := spec.Lookup("directory")
	require.True(t, ok)
	require.True(t, dir.Leaf())

	var nameField, childrenField *Field
	for i := range dir.Fields {
		switch dir.Fields[i].Name {
		case "name":
			nameField = &dir.Fields[i]
		case "children":
			childrenField = &dir.Fields[i]
		}
	}
	require.NotNil(t, nameField)
	require.Equal(t, EdgeNone, nameField.Kind)
	require.Equal(t, "String", nameField.RefPrimitive)

	require.NotNil(t, childrenField)
	require.Equal(t, List, childrenField.Kind)
	require.Equal(t, "directory", childrenField.RefNode)
}
