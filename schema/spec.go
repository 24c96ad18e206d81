// Package schema implements the schema parser (C7) and analyzer (C8): it
// tokenizes and parses the schema grammar into a raw AST, then resolves
// node references, inheritance chains, and field orderings into a
// finished Specification that the emitters (package emit) consume.
package schema

import (
	"strings"
)

// EdgeKind is one of the six edge kinds a Field may be wrapped in. The
// zero value, EdgeNone, marks a bare (unwrapped) primitive field.
type EdgeKind int

const (
	EdgeNone EdgeKind = iota
	Exactly
	Maybe
	List
	NonEmptyList
	Link
	OptLink
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeNone:
		return ""
	case Exactly:
		return "Exactly"
	case Maybe:
		return "Maybe"
	case List:
		return "List"
	case NonEmptyList:
		return "NonEmptyList"
	case Link:
		return "Link"
	case OptLink:
		return "OptLink"
	default:
		return "?"
	}
}

// Owning reports whether edges of this kind own their child (Exactly,
// Maybe, List, NonEmptyList) as opposed to merely referring to it (Link,
// OptLink).
func (k EdgeKind) Owning() bool {
	switch k {
	case Exactly, Maybe, List, NonEmptyList:
		return true
	default:
		return false
	}
}

func parseEdgeKind(s string) (EdgeKind, bool) {
	switch s {
	case "Exactly":
		return Exactly, true
	case "Maybe":
		return Maybe, true
	case "List":
		return List, true
	case "NonEmptyList":
		return NonEmptyList, true
	case "Link":
		return Link, true
	case "OptLink":
		return OptLink, true
	default:
		return EdgeNone, false
	}
}

// Field is one declared field of a NodeType.
type Field struct {
	Name string
	Doc  string
	Line int

	// Kind is the edge kind wrapping this field's element, or EdgeNone
	// for a bare (unwrapped) primitive field.
	Kind EdgeKind

	// Exactly one of RefNode/RefPrimitive is set once the field's
	// element type has been resolved by the analyzer. Before analysis,
	// RefName holds the raw, unresolved type name from the schema text.
	RefName      string
	RefNode      string
	RefPrimitive string
}

// IsNodeRef reports whether this field's element type resolved to a
// NodeType (as opposed to an opaque primitive).
func (f *Field) IsNodeRef() bool { return f.RefNode != "" }

// NodeType is a single schema-defined node kind.
type NodeType struct {
	Name      string // snake_case form of the declared name
	TitleName string // derived title-case identifier, computed during analysis
	Doc       string
	Line      int

	Parent   string // parent NodeType name, "" if none
	Children []string // derived kinds, populated during analysis, declaration order

	Fields []Field // own + inherited, in final declared order (after reorder), populated during analysis
	ownFields []Field // fields declared directly on this node, pre-analysis (unresolved element types)
	ownResolved []Field // this node's own fields, post-resolution, pre-reorder

	ReorderNames []string // names from an explicit reorder(...) directive, nil if none given
	IsError      bool     // error-marker NodeType

	leaf bool // computed: true iff Children is empty
}

// Leaf reports whether this NodeType has no derived children.
func (n *NodeType) Leaf() bool { return n.leaf }

// Config is the schema's global configuration.
type Config struct {
	Namespace        string
	Includes         []string
	SupportNamespace string
	InitializeFunc   string
	SerializeFunc    string
	DeserializeFunc  string
	SourceLocType    string
}

// Specification is the fully resolved result of parsing and analyzing a
// schema: every NodeType reference resolved, inheritance chains linked in
// both directions, and nodes listed in topological (parents before
// children) order.
type Specification struct {
	Config Config
	Nodes  []*NodeType

	byName map[string]*NodeType
}

// Lookup finds a NodeType by its snake_case name.
func (s *Specification) Lookup(name string) (*NodeType, bool) {
	n, ok := s.byName[name]
	return n, ok
}

// Leaves returns every leaf NodeType transitively derived from name
// (name itself, if it is a leaf). Order matches declaration order.
func (s *Specification) Leaves(name string) []*NodeType {
	n, ok := s.byName[name]
	if !ok {
		return nil
	}
	if n.Leaf() {
		return []*NodeType{n}
	}
	var out []*NodeType
	for _, childName := range n.Children {
		out = append(out, s.Leaves(childName)...)
	}
	return out
}

// Ancestors returns name's ancestor chain, nearest-parent first, not
// including name itself.
func (s *Specification) Ancestors(name string) []*NodeType {
	var out []*NodeType
	n, ok := s.byName[name]
	for ok && n.Parent != "" {
		p, pok := s.byName[n.Parent]
		if !pok {
			break
		}
		out = append(out, p)
		n, ok = p, pok
	}
	return out
}

// titleCase converts a snake_case schema identifier to TitleCase, the
// convention used for generated Go type names.
func titleCase(snake string) string {
	parts := strings.Split(snake, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
