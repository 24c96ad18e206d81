package schema

import (
	"strings"

	"go.uber.org/thriftrw/ast"
	"go.uber.org/thriftrw/idl"

	"treegen/errs"
)

// ParseThrift bridges a Thrift IDL file into the same rawSpec/analyze
// pipeline the native grammar (C7/C8) uses: idl.Parse builds thriftrw's
// own AST (exactly the way analyzer/thrift/ast_util.go's astBuild does
// for the teacher's diff comparison), and this file walks that AST into
// rawNode/Field values instead.
//
// Only a conservative subset of Thrift is recognized: struct definitions
// become NodeTypes (derivation is expressed with a struct-level
// "treegen.parent" annotation, since Thrift has no native inheritance),
// and fields are mapped as follows:
//
//	required <StructName> field   -> Exactly<StructName>
//	optional <StructName> field   -> Maybe<StructName>
//	required list<StructName>     -> NonEmptyList<StructName>
//	optional list<StructName>     -> List<StructName>
//	a field annotated "treegen.link" = "true" -> Link/OptLink instead of
//	  Exactly/Maybe, for the same StructName/optionality rules
//	any base-typed field (string, i32, bool, ...) -> a bare ext primitive
//	  named after the Thrift base type (e.g. "String", "I32")
//
// thriftrw represents unions and exceptions as *ast.Struct too, so they
// are bridged exactly like structs. Enums, typedefs, includes, and
// services are not supported: those definitions are skipped without an
// error, matching the scope of this supplemental front end rather than
// the full Thrift language (see DESIGN.md).
func ParseThrift(file string, src []byte) (*Specification, error) {
	prog, err := idl.Parse(src)
	if err != nil {
		return nil, errs.NewSchemaError(file, 0, "parsing thrift IDL: %v", err)
	}

	raw := &rawSpec{cfg: Config{InitializeFunc: "init", Namespace: "generated"}}
	structs := map[string]*ast.Struct{}
	var order []string
	primitives := map[string]bool{}

	for _, def := range prog.Definitions {
		s, ok := def.(*ast.Struct)
		if !ok {
			continue
		}
		name := snakeCase(s.Name)
		if _, dup := structs[name]; dup {
			return nil, errs.NewSchemaError(file, s.Line, "duplicate struct %q", s.Name)
		}
		structs[name] = s
		order = append(order, name)
	}

	nodesByName := map[string]*rawNode{}
	for _, name := range order {
		s := structs[name]
		nodesByName[name] = &rawNode{name: name, line: s.Line}
	}

	for _, name := range order {
		s := structs[name]
		rn := nodesByName[name]
		for _, f := range s.Fields {
			field, prim, err := thriftFieldToField(file, f, structs)
			if err != nil {
				return nil, err
			}
			if prim != "" {
				primitives[prim] = true
			}
			rn.fields = append(rn.fields, field)
		}
		if parent := thriftParentAnnotation(s.Annotations); parent != "" {
			p, ok := nodesByName[snakeCase(parent)]
			if !ok {
				return nil, errs.NewSchemaError(file, s.Line,
					"struct %q names unknown parent %q via treegen.parent", s.Name, parent)
			}
			p.children = append(p.children, rn)
		} else {
			raw.roots = append(raw.roots, rn)
		}
	}

	for p := range primitives {
		raw.primitives = append(raw.primitives, p)
	}

	return analyze(file, raw)
}

// thriftFieldToField converts a single thriftrw ast.Field into this
// package's Field representation. It returns the resolved primitive name
// as a second value when the field is not a struct reference, so the
// caller can collect the full set of `ext` primitives the bridged schema
// needs.
func thriftFieldToField(file string, f *ast.Field, structs map[string]*ast.Struct) (Field, string, error) {
	name := snakeCase(f.Name)
	required := f.Requiredness == ast.Required
	link := thriftLinkAnnotation(f.Annotations)

	switch t := f.Type.(type) {
	case *ast.TypeReference:
		refName := snakeCase(t.Name)
		if _, ok := structs[refName]; !ok {
			return Field{}, "", errs.NewSchemaError(file, f.Line,
				"field %q references unknown struct %q", f.Name, t.Name)
		}
		kind := Exactly
		if link {
			kind = Link
		}
		if !required {
			if link {
				kind = OptLink
			} else {
				kind = Maybe
			}
		}
		return Field{Name: name, Line: f.Line, Kind: kind, RefName: refName}, "", nil

	case *ast.ListType:
		ref, ok := t.ValueType.(*ast.TypeReference)
		if !ok {
			prim := thriftBaseTypeName(t.ValueType)
			if prim == "" {
				return Field{}, "", errs.NewSchemaError(file, f.Line,
					"field %q: unsupported list element type", f.Name)
			}
			kind := List
			if required {
				kind = NonEmptyList
			}
			return Field{Name: name, Line: f.Line, Kind: kind, RefName: prim}, prim, nil
		}
		refName := snakeCase(ref.Name)
		if _, ok := structs[refName]; !ok {
			return Field{}, "", errs.NewSchemaError(file, f.Line,
				"field %q references unknown struct %q", f.Name, ref.Name)
		}
		kind := List
		if required {
			kind = NonEmptyList
		}
		return Field{Name: name, Line: f.Line, Kind: kind, RefName: refName}, "", nil

	default:
		prim := thriftBaseTypeName(f.Type)
		if prim == "" {
			return Field{}, "", errs.NewSchemaError(file, f.Line,
				"field %q: unsupported Thrift type", f.Name)
		}
		return Field{Name: name, Line: f.Line, Kind: EdgeNone, RefName: prim}, prim, nil
	}
}

func thriftBaseTypeName(t ast.Type) string {
	bt, ok := t.(*ast.BaseType)
	if !ok {
		return ""
	}
	switch bt.ID {
	case ast.BoolTypeID:
		return "Bool"
	case ast.ByteTypeID:
		return "Byte"
	case ast.I16TypeID:
		return "I16"
	case ast.I32TypeID:
		return "I32"
	case ast.I64TypeID:
		return "I64"
	case ast.DoubleTypeID:
		return "Double"
	case ast.StringTypeID:
		return "String"
	case ast.BinaryTypeID:
		return "Binary"
	default:
		return ""
	}
}

func thriftParentAnnotation(anns []*ast.Annotation) string {
	for _, a := range anns {
		if a.Name == "treegen.parent" {
			return a.Value
		}
	}
	return ""
}

func thriftLinkAnnotation(anns []*ast.Annotation) bool {
	for _, a := range anns {
		if a.Name == "treegen.link" && a.Value == "true" {
			return true
		}
	}
	return false
}

// snakeCase converts a Thrift UpperCamelCase identifier to the
// lower_snake_case convention NodeType/Field names use on this side of
// the bridge.
func snakeCase(camel string) string {
	var b strings.Builder
	for i, r := range camel {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
