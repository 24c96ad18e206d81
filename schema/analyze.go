package schema

import (
	"treegen/errs"
)

// Parse reads schema text (file is used only for diagnostics) and returns
// a fully resolved Specification: the parser (C7) builds the raw AST,
// then this analysis (C8) resolves references, links inheritance, and
// orders fields and NodeTypes.
func Parse(file string, src string) (*Specification, error) {
	raw, err := parseSchema(file, src)
	if err != nil {
		return nil, err
	}
	return analyze(file, raw)
}

func analyze(file string, raw *rawSpec) (*Specification, error) {
	primitives := map[string]bool{}
	for _, p := range raw.primitives {
		primitives[p] = true
	}

	spec := &Specification{Config: raw.cfg, byName: map[string]*NodeType{}}

	// Pass 1: flatten the nested rawNode forest into NodeType values,
	// recording parent/child names and each node's own (not yet
	// inherited) fields. Declaration order is preserved for a stable,
	// reproducible topological ordering. Node names are normalized to
	// snake_case, so a block declared as `node Drive` is named "drive".
	var order []string
	var flatten func(n *rawNode, parent string) error
	flatten = func(n *rawNode, parent string) error {
		name := snakeCase(n.name)
		if _, dup := spec.byName[name]; dup {
			return errs.NewSchemaError(file, n.line, "duplicate node type %q", n.name)
		}
		nt := &NodeType{
			Name:         name,
			TitleName:    titleCase(name),
			Doc:          n.doc,
			Line:         n.line,
			Parent:       parent,
			ownFields:    n.fields,
			ReorderNames: n.reorder,
			IsError:      n.isError,
		}
		spec.byName[name] = nt
		order = append(order, name)
		if parent != "" {
			p := spec.byName[parent]
			p.Children = append(p.Children, name)
		}
		for _, child := range n.children {
			if err := flatten(child, name); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range raw.roots {
		if err := flatten(root, ""); err != nil {
			return nil, err
		}
	}

	for _, name := range order {
		nt := spec.byName[name]
		nt.leaf = len(nt.Children) == 0
	}

	// Pass 2: resolve each field's element type (NodeType reference vs.
	// primitive) and compose each NodeType's full field list (ancestor
	// fields, outermost first, followed by this node's own fields),
	// then apply an explicit reorder(...) if one was given.
	for _, name := range order {
		nt := spec.byName[name]
		resolved := make([]Field, len(nt.ownFields))
		for i, f := range nt.ownFields {
			rf := f
			if target, ok := spec.byName[snakeCase(f.RefName)]; ok {
				rf.RefNode = target.Name
			} else if primitives[f.RefName] {
				rf.RefPrimitive = f.RefName
			} else {
				return nil, errs.NewSchemaError(file, f.Line,
					"field %q of node %q refers to unknown type %q (not a declared node or ext primitive)",
					f.Name, nt.Name, f.RefName)
			}
			if rf.IsNodeRef() && rf.Kind == EdgeNone {
				return nil, errs.NewSchemaError(file, f.Line,
					"field %q of node %q: node-typed fields must be wrapped in an edge kind, found bare %q",
					f.Name, nt.Name, f.RefName)
			}
			resolved[i] = rf
		}

		var full []Field
		ancestors := ancestorChain(spec, nt)
		for i := len(ancestors) - 1; i >= 0; i-- {
			full = append(full, ancestors[i].ownResolved...)
		}
		full = append(full, resolved...)
		nt.ownResolved = resolved
		nt.Fields = full

		if len(nt.ReorderNames) > 0 {
			reordered, err := applyReorder(file, nt, full)
			if err != nil {
				return nil, err
			}
			nt.Fields = reordered
		}

		if err := checkDuplicateFieldNames(file, nt); err != nil {
			return nil, err
		}
	}

	if spec.Config.InitializeFunc == "" {
		return nil, errs.NewSchemaError(file, 0, "schema is missing a required 'initialize' directive")
	}

	for _, name := range order {
		spec.Nodes = append(spec.Nodes, spec.byName[name])
	}
	return spec, nil
}

// ancestorChain returns nt's ancestors, nearest parent first. It is used
// during analysis before Specification.Ancestors' public form is safe to
// call (byName is still being populated field-by-field), so it is kept
// as an unexported analysis-time helper operating directly on the map.
func ancestorChain(spec *Specification, nt *NodeType) []*NodeType {
	var out []*NodeType
	cur := nt
	for cur.Parent != "" {
		p, ok := spec.byName[cur.Parent]
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out
}

func applyReorder(file string, nt *NodeType, full []Field) ([]Field, error) {
	byName := map[string]Field{}
	for _, f := range full {
		byName[f.Name] = f
	}
	if len(nt.ReorderNames) != len(full) {
		return nil, errs.NewSchemaError(file, nt.Line,
			"reorder(...) on node %q names %d fields but node has %d (own + inherited)",
			nt.Name, len(nt.ReorderNames), len(full))
	}
	out := make([]Field, len(nt.ReorderNames))
	for i, name := range nt.ReorderNames {
		f, ok := byName[name]
		if !ok {
			return nil, errs.NewSchemaError(file, nt.Line,
				"reorder(...) on node %q names unknown field %q", nt.Name, name)
		}
		out[i] = f
	}
	return out, nil
}

func checkDuplicateFieldNames(file string, nt *NodeType) error {
	seen := map[string]bool{}
	for _, f := range nt.Fields {
		if seen[f.Name] {
			return errs.NewSchemaError(file, f.Line, "node %q declares field %q more than once (including inherited fields)", nt.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
